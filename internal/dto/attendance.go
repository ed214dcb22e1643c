package dto

// ── 考勤模块 DTO ──

// PunchRequest 上/下班打卡（multipart，照片字段名 photo）
// Code 为空表示本人打卡；主管代打卡时填写技师编码
type PunchRequest struct {
	Code        string `form:"code"        binding:"omitempty,max=50"`
	Workstation string `form:"workstation" binding:"omitempty,max=100"`
}

// HolidayRequest 标记假日
type HolidayRequest struct {
	Remarks string `json:"remarks" binding:"max=255"`
}

// PastAttendanceRequest 补录考勤；时间格式 03.04.05 PM
type PastAttendanceRequest struct {
	InTime  *string `json:"in_time"  binding:"omitempty,clock12"`
	OutTime *string `json:"out_time" binding:"omitempty,clock12"`
}

// AttendanceListRequest 考勤明细查询参数
type AttendanceListRequest struct {
	From           string `form:"from"            binding:"required,daydate"`
	To             string `form:"to"              binding:"required,daydate"`
	SupervisorCode string `form:"supervisor_code" binding:"omitempty,max=50"`
}

// AttendanceResponse 考勤记录响应；日期为 dd-mm-yyyy，时间为 12 小时制
type AttendanceResponse struct {
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	Date            string  `json:"date"`
	WorkstationName string  `json:"workstation_name,omitempty"`
	InTime          string  `json:"in_time,omitempty"`
	InPhotoRef      *string `json:"in_photo_ref,omitempty"`
	OutTime         string  `json:"out_time,omitempty"`
	OutPhotoRef     *string `json:"out_photo_ref,omitempty"`
	SupervisorName  string  `json:"supervisor_name,omitempty"`
	ShiftDuration   string  `json:"shift_duration,omitempty"`
	State           string  `json:"state"`
	Holiday         bool    `json:"holiday"`
	HolidayRemarks  *string `json:"holiday_remarks,omitempty"`
}

// TodayStatusResponse 当日打卡状态
type TodayStatusResponse struct {
	Code      string              `json:"code"`
	Date      string              `json:"date"`
	PunchedIn bool                `json:"punched_in"`
	State     string              `json:"state"`
	Record    *AttendanceResponse `json:"record,omitempty"`
}
