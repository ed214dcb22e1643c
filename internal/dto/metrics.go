package dto

// ── 服务台数模块 DTO ──

// ServiceCounts 八项台数；Total 与 AlignAndBalance 由服务端重算，传入值被忽略
type ServiceCounts struct {
	RunningRepair   int `json:"running_repair"`
	FreeService     int `json:"free_service"`
	PaidService     int `json:"paid_service"`
	BodyShop        int `json:"body_shop"`
	Total           int `json:"total"`
	Align           int `json:"align"`
	Balance         int `json:"balance"`
	AlignAndBalance int `json:"align_and_balance"`
}

// SubmitWorkstationRequest 工位日报提交
type SubmitWorkstationRequest struct {
	Date           string        `json:"date"            binding:"required,daydate"`
	Workstation    string        `json:"workstation"     binding:"required,max=100"`
	SupervisorName string        `json:"supervisor_name" binding:"max=100"`
	Counts         ServiceCounts `json:"counts"`
}

// SubmitAdvisorRequest 单个顾问日报提交
type SubmitAdvisorRequest struct {
	Date           string        `json:"date"            binding:"required,daydate"`
	Workstation    string        `json:"workstation"     binding:"required,max=100"`
	Advisor        string        `json:"advisor"         binding:"required,max=100"`
	SupervisorName string        `json:"supervisor_name" binding:"max=100"`
	Counts         ServiceCounts `json:"counts"`
}

// AdvisorCountsRow 批量提交中的一行
type AdvisorCountsRow struct {
	Advisor string        `json:"advisor" binding:"required,max=100"`
	Counts  ServiceCounts `json:"counts"`
}

// SubmitAdvisorBatchRequest 同一工位同一天的多个顾问一次提交
type SubmitAdvisorBatchRequest struct {
	Date           string             `json:"date"            binding:"required,daydate"`
	Workstation    string             `json:"workstation"     binding:"required,max=100"`
	SupervisorName string             `json:"supervisor_name" binding:"max=100"`
	Rows           []AdvisorCountsRow `json:"rows"            binding:"required,min=1,dive"`
}

// WorkstationMetricResponse 工位日报
type WorkstationMetricResponse struct {
	Date           string        `json:"date"`
	Workstation    string        `json:"workstation"`
	SupervisorName string        `json:"supervisor_name,omitempty"`
	Counts         ServiceCounts `json:"counts"`
	SubmittedAt    string        `json:"submitted_at"`
}

// AdvisorMetricResponse 顾问日报
type AdvisorMetricResponse struct {
	Date           string        `json:"date"`
	Workstation    string        `json:"workstation"`
	Advisor        string        `json:"advisor"`
	SupervisorName string        `json:"supervisor_name,omitempty"`
	Counts         ServiceCounts `json:"counts"`
	SubmittedAt    string        `json:"submitted_at"`
}

// DashboardResponse 工位看板：目标、当日录入、本月累计
type DashboardResponse struct {
	Workstation string         `json:"workstation"`
	Date        string         `json:"date"`
	Target      *int           `json:"target,omitempty"`
	Today       *ServiceCounts `json:"today,omitempty"`
	MonthToDate ServiceCounts  `json:"month_to_date"`
}

// AdvisorEntryRequest 顾问录入表查询参数
type AdvisorEntryRequest struct {
	Date string `form:"date" binding:"omitempty,daydate"`
}

// AdvisorEntryRow 顾问录入表中的一行
type AdvisorEntryRow struct {
	Code      string        `json:"code"`
	Advisor   string        `json:"advisor"`
	Submitted bool          `json:"submitted"`
	Counts    ServiceCounts `json:"counts"`
}

// AdvisorEntryResponse 顾问录入表
type AdvisorEntryResponse struct {
	Date        string            `json:"date"`
	Workstation string            `json:"workstation"`
	Advisors    []AdvisorEntryRow `json:"advisors"`
}
