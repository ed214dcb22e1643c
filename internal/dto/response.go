package dto

// ── 人员模块响应 ──

// PersonResponse 人员信息响应（脱敏，不含密码哈希）
type PersonResponse struct {
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	Role           string  `json:"role"`
	SupervisorCode *string `json:"supervisor_code,omitempty"`
	Target         *int    `json:"target,omitempty"`
}

// ── 导入导出 ──

// ImportResult 批量导入结果；存在错误时整批不落库
type ImportResult struct {
	Total    int              `json:"total"`
	Imported int              `json:"imported"`
	Errors   []ImportRowError `json:"errors,omitempty"`
}

// ImportRowError 导入错误详情（Row 为表格行号，表头为第 1 行）
type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// FileResponse 导出文件
type FileResponse struct {
	Filename    string
	ContentType string
	Content     []byte
}
