package model

import "time"

// ServiceCounts 每日服务台数；Total 与 AlignAndBalance 为派生字段，
// 只能通过 Recompute 写入，不信任调用方传入的值
type ServiceCounts struct {
	RunningRepair   int `gorm:"not null;default:0" json:"running_repair"`
	FreeService     int `gorm:"not null;default:0" json:"free_service"`
	PaidService     int `gorm:"not null;default:0" json:"paid_service"`
	BodyShop        int `gorm:"not null;default:0" json:"body_shop"`
	Total           int `gorm:"not null;default:0" json:"total"`
	Align           int `gorm:"not null;default:0" json:"align"`
	Balance         int `gorm:"not null;default:0" json:"balance"`
	AlignAndBalance int `gorm:"not null;default:0" json:"align_and_balance"`
}

// Recompute 重新计算派生合计
func (c *ServiceCounts) Recompute() {
	c.Total = c.RunningRepair + c.FreeService + c.PaidService + c.BodyShop
	c.AlignAndBalance = c.Align + c.Balance
}

// Add 逐字段累加
func (c *ServiceCounts) Add(o ServiceCounts) {
	c.RunningRepair += o.RunningRepair
	c.FreeService += o.FreeService
	c.PaidService += o.PaidService
	c.BodyShop += o.BodyShop
	c.Total += o.Total
	c.Align += o.Align
	c.Balance += o.Balance
	c.AlignAndBalance += o.AlignAndBalance
}

// Inputs 参与校验的六个录入字段
func (c ServiceCounts) Inputs() map[string]int {
	return map[string]int{
		"running_repair": c.RunningRepair,
		"free_service":   c.FreeService,
		"paid_service":   c.PaidService,
		"body_shop":      c.BodyShop,
		"align":          c.Align,
		"balance":        c.Balance,
	}
}

// WorkstationMetric 工位日报，对应 workstation_metrics，主键 (metric_date, workstation_name)
type WorkstationMetric struct {
	MetricDate      time.Time     `gorm:"type:date;primaryKey"         json:"metric_date"`
	WorkstationName string        `gorm:"type:varchar(100);primaryKey" json:"workstation_name"`
	SupervisorName  string        `gorm:"type:varchar(100)"            json:"supervisor_name"`
	Counts          ServiceCounts `gorm:"embedded"                     json:"counts"`
	SubmittedAt     time.Time     `gorm:"not null"                     json:"submitted_at"`
}

// TableName 指定表名
func (WorkstationMetric) TableName() string { return "workstation_metrics" }

// AdvisorMetric 顾问日报，对应 advisor_metrics，主键 (metric_date, workstation_name, advisor_name)
type AdvisorMetric struct {
	MetricDate      time.Time     `gorm:"type:date;primaryKey"         json:"metric_date"`
	WorkstationName string        `gorm:"type:varchar(100);primaryKey" json:"workstation_name"`
	AdvisorName     string        `gorm:"type:varchar(100);primaryKey" json:"advisor_name"`
	SupervisorName  string        `gorm:"type:varchar(100)"            json:"supervisor_name"`
	Counts          ServiceCounts `gorm:"embedded"                     json:"counts"`
	SubmittedAt     time.Time     `gorm:"not null"                     json:"submitted_at"`
}

// TableName 指定表名
func (AdvisorMetric) TableName() string { return "advisor_metrics" }
