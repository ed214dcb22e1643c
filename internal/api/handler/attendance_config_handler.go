package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"workshop-tracker/backend/internal/dto"
	"workshop-tracker/backend/internal/service"
	"workshop-tracker/backend/pkg/response"
)

// AttendanceConfigHandler 补录考勤配置 HTTP 处理器
type AttendanceConfigHandler struct {
	configSvc service.AttendanceConfigService
}

// NewAttendanceConfigHandler 创建 AttendanceConfigHandler
func NewAttendanceConfigHandler(configSvc service.AttendanceConfigService) *AttendanceConfigHandler {
	return &AttendanceConfigHandler{configSvc: configSvc}
}

// Get 查询补录配置
// GET /api/v1/system/past-attendance
func (h *AttendanceConfigHandler) Get(c *gin.Context) {
	cfg, err := h.configSvc.Get(c.Request.Context())
	if err != nil {
		h.handleConfigError(c, err)
		return
	}
	response.OK(c, cfg)
}

// Update 修改补录配置
// PUT /api/v1/system/past-attendance
func (h *AttendanceConfigHandler) Update(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.UpdatePastAttendanceConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	cfg, err := h.configSvc.Update(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleConfigError(c, err)
		return
	}
	response.OK(c, cfg)
}

func (h *AttendanceConfigHandler) handleConfigError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		response.Forbidden(c, 10003, "无权限访问")
	case errors.Is(err, service.ErrAttendanceConfigNotFound):
		response.NotFound(c, 17001, "补录配置不存在")
	default:
		handleFallbackError(c, err)
	}
}
