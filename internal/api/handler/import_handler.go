package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"workshop-tracker/backend/internal/dto"
	"workshop-tracker/backend/internal/service"
	"workshop-tracker/backend/pkg/response"
)

// ImportHandler 批量导入 HTTP 处理器
type ImportHandler struct {
	importSvc service.ImportService
}

// NewImportHandler 创建 ImportHandler
func NewImportHandler(importSvc service.ImportService) *ImportHandler {
	return &ImportHandler{importSvc: importSvc}
}

type importFunc func(ctx context.Context, actor service.Actor, r io.Reader, filename string) (*dto.ImportResult, error)

// People 覆盖导入人员表（multipart 字段 file）
// POST /api/v1/import/people
func (h *ImportHandler) People(c *gin.Context) {
	h.run(c, h.importSvc.ImportPeople)
}

// Attendance 覆盖导入考勤表（multipart 字段 file）
// POST /api/v1/import/attendance
func (h *ImportHandler) Attendance(c *gin.Context) {
	h.run(c, h.importSvc.ImportAttendance)
}

func (h *ImportHandler) run(c *gin.Context, fn importFunc) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	data, filename, err := readFormFile(c, "file")
	if err != nil {
		if isBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return
		}
		response.BadRequest(c, 16001, "文件读取失败")
		return
	}
	if len(data) == 0 {
		response.BadRequest(c, 16001, "请上传 .xlsx 或 .xls 文件")
		return
	}

	result, err := fn(c.Request.Context(), actor, bytes.NewReader(data), filename)
	if err != nil {
		h.handleImportError(c, result, err)
		return
	}
	response.OK(c, result)
}

func (h *ImportHandler) handleImportError(c *gin.Context, result *dto.ImportResult, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		response.Forbidden(c, 10003, "无权限访问")
	case errors.Is(err, service.ErrImportUnreadable):
		response.ErrorWithDetails(c, http.StatusBadRequest, 16002, "无法读取上传的表格文件", err.Error())
	case errors.Is(err, service.ErrImportInvalid):
		response.ErrorWithData(c, http.StatusUnprocessableEntity, 16003, "导入数据校验未通过，未做任何修改", result)
	default:
		handleFallbackError(c, err)
	}
}
