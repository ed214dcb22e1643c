package dto

// ── 报表模块 DTO ──

// ReportRequest 报表查询参数；日期接受 dd-mm-yyyy 或 yyyy-mm-dd
type ReportRequest struct {
	From           string `form:"from"            binding:"required,daydate"`
	To             string `form:"to"              binding:"required,daydate"`
	SupervisorCode string `form:"supervisor_code" binding:"omitempty,max=50"`
	Workstation    string `form:"workstation"     binding:"omitempty,max=100"`
}

// AttendanceSummaryRow 考勤汇总行，按 (主管, 技师编码, 技师姓名) 分组
type AttendanceSummaryRow struct {
	SupervisorName string `json:"supervisor_name"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	TotalDays      int    `json:"total_days"`
	TotalHours     string `json:"total_hours"` // HH:MM:SS，小时可超过 24
	SundayCount    int    `json:"sunday_count"`
	HolidayCount   int    `json:"holiday_count"`
}

// ServiceSummaryRow 台数汇总行；按工位汇总时主管、顾问为空
type ServiceSummaryRow struct {
	SupervisorName  string        `json:"supervisor_name,omitempty"`
	WorkstationName string        `json:"workstation_name"`
	AdvisorName     string        `json:"advisor_name,omitempty"`
	Counts          ServiceCounts `json:"counts"`
}
