package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"workshop-tracker/backend/internal/dto"
	"workshop-tracker/backend/internal/service"
	"workshop-tracker/backend/pkg/response"
)

// ReportHandler 报表 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// Attendance 考勤汇总
// GET /api/v1/reports/attendance?from=&to=&supervisor_code=
func (h *ReportHandler) Attendance(c *gin.Context) {
	actor, q, ok := bindReport(c)
	if !ok {
		return
	}
	rows, err := h.reportSvc.BuildAttendanceSummary(c.Request.Context(), actor, q.start, q.end, q.SupervisorCode)
	if err != nil {
		handleReportError(c, err)
		return
	}
	response.OK(c, rows)
}

// WorkstationService 工位台数汇总
// GET /api/v1/reports/service/workstation?from=&to=&workstation=
func (h *ReportHandler) WorkstationService(c *gin.Context) {
	actor, q, ok := bindReport(c)
	if !ok {
		return
	}
	rows, err := h.reportSvc.WorkstationServiceSummary(c.Request.Context(), actor, q.start, q.end, q.Workstation)
	if err != nil {
		handleReportError(c, err)
		return
	}
	response.OK(c, rows)
}

// AdvisorService 顾问台数汇总
// GET /api/v1/reports/service/advisor?from=&to=&workstation=
func (h *ReportHandler) AdvisorService(c *gin.Context) {
	actor, q, ok := bindReport(c)
	if !ok {
		return
	}
	rows, err := h.reportSvc.AdvisorServiceSummary(c.Request.Context(), actor, q.start, q.end, q.Workstation)
	if err != nil {
		handleReportError(c, err)
		return
	}
	response.OK(c, rows)
}

// reportQuery 已解析的报表查询参数
type reportQuery struct {
	dto.ReportRequest
	start time.Time
	end   time.Time
}

// bindReport 报表与导出共用的查询参数解析
func bindReport(c *gin.Context) (service.Actor, reportQuery, bool) {
	var q reportQuery
	actor, ok := MustGetActor(c)
	if !ok {
		return actor, q, false
	}
	if err := c.ShouldBindQuery(&q.ReportRequest); err != nil {
		response.BadRequest(c, 10001, "from/to 必填，格式为 dd-mm-yyyy")
		return actor, q, false
	}
	start, end, err := parseRange(q.From, q.To)
	if err != nil {
		response.BadRequest(c, 10001, "from/to 必填，格式为 dd-mm-yyyy")
		return actor, q, false
	}
	q.start, q.end = start, end
	return actor, q, true
}

func handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		response.Forbidden(c, 10003, "无权限访问")
	case errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 15001, "开始日期不能晚于结束日期")
	default:
		handleFallbackError(c, err)
	}
}
