package handler

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"workshop-tracker/backend/internal/dto"
	"workshop-tracker/backend/internal/service"
	"workshop-tracker/backend/pkg/response"
	"workshop-tracker/backend/pkg/timeutil"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
	photos    PhotoArchiver
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService, photos PhotoArchiver) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc, photos: photos}
}

// AttendanceSummary 导出考勤汇总
// GET /api/v1/export/attendance-summary?from=&to=&supervisor_code=
func (h *ExportHandler) AttendanceSummary(c *gin.Context) {
	actor, q, ok := bindReport(c)
	if !ok {
		return
	}
	file, err := h.exportSvc.ExportAttendanceSummary(c.Request.Context(), actor, q.start, q.end, q.SupervisorCode)
	h.send(c, file, err)
}

// ServiceSummary 导出台数汇总（工位、顾问两个工作表）
// GET /api/v1/export/service-summary?from=&to=&workstation=
func (h *ExportHandler) ServiceSummary(c *gin.Context) {
	actor, q, ok := bindReport(c)
	if !ok {
		return
	}
	file, err := h.exportSvc.ExportServiceSummary(c.Request.Context(), actor, q.start, q.end, q.Workstation)
	h.send(c, file, err)
}

// People 导出人员表
// GET /api/v1/export/people
func (h *ExportHandler) People(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	file, err := h.exportSvc.ExportPeople(c.Request.Context(), actor)
	h.send(c, file, err)
}

// Attendance 导出考勤原始表
// GET /api/v1/export/attendance
func (h *ExportHandler) Attendance(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	file, err := h.exportSvc.ExportAttendance(c.Request.Context(), actor)
	h.send(c, file, err)
}

// Photos 打包下载打卡照片
// GET /api/v1/export/photos
func (h *ExportHandler) Photos(c *gin.Context) {
	if h.photos == nil {
		response.NotFound(c, 16103, "未配置照片存储")
		return
	}

	// 先写入缓冲区，打包失败时仍能返回 JSON 错误
	var buf bytes.Buffer
	if err := h.photos.Archive(&buf); err != nil {
		handleFallbackError(c, err)
		return
	}
	filename := fmt.Sprintf("Photos_%s.zip", timeutil.FormatDate(timeutil.NowLocal()))
	response.File(c, filename, "application/zip", buf.Bytes())
}

func (h *ExportHandler) send(c *gin.Context, file *dto.FileResponse, err error) {
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Content)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		response.Forbidden(c, 10003, "无权限访问")
	case errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 15001, "开始日期不能晚于结束日期")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		handleFallbackError(c, err)
	}
}
