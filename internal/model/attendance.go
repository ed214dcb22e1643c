package model

import "time"

// AttendanceState 每人每日的考勤状态
type AttendanceState string

const (
	StateAbsent   AttendanceState = "absent"
	StateInOnly   AttendanceState = "in_only"
	StateComplete AttendanceState = "complete"
)

// Attendance 考勤表，对应 attendances，主键 (code, attendance_date)
type Attendance struct {
	Code            string     `gorm:"type:varchar(50);primaryKey"  json:"code"`
	AttendanceDate  time.Time  `gorm:"type:date;primaryKey"         json:"attendance_date"`
	Name            string     `gorm:"type:varchar(100);not null"   json:"name"`
	WorkstationName string     `gorm:"type:varchar(100)"            json:"workstation_name"`
	InTime          *time.Time `json:"in_time,omitempty"`
	InPhotoRef      *string    `gorm:"type:varchar(255)"            json:"in_photo_ref,omitempty"`
	OutTime         *time.Time `json:"out_time,omitempty"`
	OutPhotoRef     *string    `gorm:"type:varchar(255)"            json:"out_photo_ref,omitempty"`
	SupervisorName  string     `gorm:"type:varchar(100)"            json:"supervisor_name"`
	ShiftSeconds    *int64     `gorm:"column:shift_duration_seconds" json:"shift_duration_seconds,omitempty"` // 派生字段
	Holiday         bool       `gorm:"not null;default:false"       json:"holiday"`
	HolidayRemarks  *string    `gorm:"type:varchar(255)"            json:"holiday_remarks,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Attendance) TableName() string { return "attendances" }

// State 由 InTime / OutTime 推导状态；假日为正交标记，不参与推导
func (a *Attendance) State() AttendanceState {
	switch {
	case a == nil || a.InTime == nil:
		return StateAbsent
	case a.OutTime == nil || a.ShiftSeconds == nil:
		return StateInOnly
	default:
		return StateComplete
	}
}

// ShiftDuration 班次时长，未下班时返回 nil
func (a *Attendance) ShiftDuration() *time.Duration {
	if a.ShiftSeconds == nil {
		return nil
	}
	d := time.Duration(*a.ShiftSeconds) * time.Second
	return &d
}
