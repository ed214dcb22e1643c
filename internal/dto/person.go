package dto

// PersonListRequest 人员列表查询参数
type PersonListRequest struct {
	Role           string `form:"role"            binding:"omitempty,oneof=technician supervisor workstation advisor super_admin"`
	SupervisorCode string `form:"supervisor_code" binding:"omitempty,max=50"`
}
