package model

import "time"

// PastAttendanceConfig 补录考勤配置，对应 past_attendance_config（单行强类型）
type PastAttendanceConfig struct {
	Singleton   bool      `gorm:"primaryKey;default:true" json:"-"`
	Enabled     bool      `gorm:"not null;default:false"  json:"enabled"`
	MaxPastDays int       `gorm:"not null;default:7"      json:"max_past_days"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy   *string   `gorm:"type:varchar(50)"        json:"updated_by,omitempty"`
}

// TableName 指定表名
func (PastAttendanceConfig) TableName() string { return "past_attendance_config" }
