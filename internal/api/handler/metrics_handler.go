package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"workshop-tracker/backend/internal/dto"
	"workshop-tracker/backend/internal/service"
	"workshop-tracker/backend/pkg/response"
)

// MetricsHandler 服务台数 HTTP 处理器
type MetricsHandler struct {
	metricsSvc service.MetricsService
}

// NewMetricsHandler 创建 MetricsHandler
func NewMetricsHandler(metricsSvc service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metricsSvc: metricsSvc}
}

// SubmitWorkstation 提交工位日报（同日同工位覆盖）
// POST /api/v1/metrics/workstation
func (h *MetricsHandler) SubmitWorkstation(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.SubmitWorkstationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.metricsSvc.SubmitWorkstationMetrics(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleMetricsError(c, err)
		return
	}
	response.OK(c, result)
}

// SubmitAdvisor 提交单个顾问日报
// POST /api/v1/metrics/advisor
func (h *MetricsHandler) SubmitAdvisor(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.SubmitAdvisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.metricsSvc.SubmitAdvisorMetrics(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleMetricsError(c, err)
		return
	}
	response.OK(c, result)
}

// SubmitAdvisors 批量提交顾问日报
// POST /api/v1/metrics/advisors
func (h *MetricsHandler) SubmitAdvisors(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.SubmitAdvisorBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.metricsSvc.SubmitAdvisorBatch(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleMetricsError(c, err)
		return
	}
	response.OK(c, result)
}

// Dashboard 工位看板
// GET /api/v1/metrics/workstation/dashboard
func (h *MetricsHandler) Dashboard(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.metricsSvc.GetWorkstationDashboard(c.Request.Context(), actor)
	if err != nil {
		h.handleMetricsError(c, err)
		return
	}
	response.OK(c, result)
}

// AdvisorEntry 顾问录入表
// GET /api/v1/metrics/advisors/entry?date=
func (h *MetricsHandler) AdvisorEntry(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.AdvisorEntryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "日期格式应为 dd-mm-yyyy")
		return
	}

	result, err := h.metricsSvc.ListAdvisorsForEntry(c.Request.Context(), actor, req.Date)
	if err != nil {
		h.handleMetricsError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *MetricsHandler) handleMetricsError(c *gin.Context, err error) {
	if handleAuthzError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrCountOutOfRange):
		response.ErrorWithDetails(c, http.StatusBadRequest, 14001, "台数超出允许范围", err.Error())
	case errors.Is(err, service.ErrMetricsDateOutOfRange):
		response.BadRequest(c, 14002, "录入日期超出允许范围")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 14003, "日期格式应为 dd-mm-yyyy")
	case errors.Is(err, service.ErrBlankMetricName):
		response.BadRequest(c, 10001, "工位与顾问名称不能为空")
	case errors.Is(err, service.ErrNotWorkstation):
		response.Forbidden(c, 14004, "仅工位账号可使用该功能")
	default:
		handleFallbackError(c, err)
	}
}
