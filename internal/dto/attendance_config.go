package dto

// ── 补录考勤配置 DTO ──

// UpdatePastAttendanceConfigRequest 更新补录配置请求
type UpdatePastAttendanceConfigRequest struct {
	Enabled     *bool `json:"enabled"`
	MaxPastDays *int  `json:"max_past_days" binding:"omitempty,min=0,max=3650"`
}

// PastAttendanceConfigResponse 补录配置响应
type PastAttendanceConfigResponse struct {
	Enabled     bool    `json:"enabled"`
	MaxPastDays int     `json:"max_past_days"`
	UpdatedAt   string  `json:"updated_at"`
	UpdatedBy   *string `json:"updated_by,omitempty"`
}
