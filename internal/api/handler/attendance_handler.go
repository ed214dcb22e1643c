package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"workshop-tracker/backend/internal/dto"
	"workshop-tracker/backend/internal/service"
	"workshop-tracker/backend/pkg/response"
)

// AttendanceHandler 考勤模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// PunchIn 上班打卡（multipart：code、workstation、photo）
// POST /api/v1/attendance/punch-in
func (h *AttendanceHandler) PunchIn(c *gin.Context) {
	actor, req, photo, ok := h.bindPunch(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.PunchIn(c.Request.Context(), actor, req.Code, req.Workstation, photo)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}
	response.Created(c, result)
}

// PunchOut 下班打卡
// POST /api/v1/attendance/punch-out
func (h *AttendanceHandler) PunchOut(c *gin.Context) {
	actor, req, photo, ok := h.bindPunch(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.PunchOut(c.Request.Context(), actor, req.Code, photo)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}
	response.OK(c, result)
}

// Today 今日打卡状态
// GET /api/v1/attendance/today?code=
func (h *AttendanceHandler) Today(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	status, err := h.attendanceSvc.GetToday(c.Request.Context(), actor, c.Query("code"))
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}
	response.OK(c, status)
}

// List 考勤明细
// GET /api/v1/attendance?from=&to=&supervisor_code=
func (h *AttendanceHandler) List(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.AttendanceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	start, end, err := parseRange(req.From, req.To)
	if err != nil {
		response.BadRequest(c, 10001, "日期格式应为 dd-mm-yyyy")
		return
	}

	rows, err := h.attendanceSvc.List(c.Request.Context(), actor, start, end, req.SupervisorCode)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}
	response.OK(c, rows)
}

// MarkHoliday 标记假日
// PUT /api/v1/attendance/:code/:date/holiday
func (h *AttendanceHandler) MarkHoliday(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	day, ok := parseDateParam(c, "date")
	if !ok {
		return
	}
	var req dto.HolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.attendanceSvc.MarkHoliday(c.Request.Context(), actor, c.Param("code"), day, req.Remarks)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}
	response.OK(c, result)
}

// ClearHoliday 取消假日
// DELETE /api/v1/attendance/:code/:date/holiday
func (h *AttendanceHandler) ClearHoliday(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	day, ok := parseDateParam(c, "date")
	if !ok {
		return
	}

	if err := h.attendanceSvc.ClearHoliday(c.Request.Context(), actor, c.Param("code"), day); err != nil {
		h.handleAttendanceError(c, err)
		return
	}
	response.OK(c, nil)
}

// RecordPast 补录考勤
// PUT /api/v1/attendance/:code/:date/past
func (h *AttendanceHandler) RecordPast(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	day, ok := parseDateParam(c, "date")
	if !ok {
		return
	}
	var req dto.PastAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "时间格式应为 hh.mm.ss AM/PM")
		return
	}

	result, err := h.attendanceSvc.RecordPastAttendance(c.Request.Context(), actor, c.Param("code"), day, req.InTime, req.OutTime)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}
	response.OK(c, result)
}

// bindPunch 解析打卡表单与照片
func (h *AttendanceHandler) bindPunch(c *gin.Context) (service.Actor, dto.PunchRequest, []byte, bool) {
	var req dto.PunchRequest
	actor, ok := MustGetActor(c)
	if !ok {
		return actor, req, nil, false
	}
	if err := c.ShouldBind(&req); err != nil {
		if isBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return actor, req, nil, false
		}
		response.BadRequest(c, 10001, "参数校验失败")
		return actor, req, nil, false
	}
	photo, _, err := readFormFile(c, "photo")
	if err != nil {
		if isBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return actor, req, nil, false
		}
		response.BadRequest(c, 13010, "照片读取失败")
		return actor, req, nil, false
	}
	return actor, req, photo, true
}

func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error) {
	if handleAuthzError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrAlreadyPunchedIn):
		response.Conflict(c, 13001, "今日已上班打卡")
	case errors.Is(err, service.ErrAlreadyPunchedOut):
		response.Conflict(c, 13002, "今日已下班打卡")
	case errors.Is(err, service.ErrNoOpenShift):
		response.Conflict(c, 13003, "没有可结束的上班记录")
	case errors.Is(err, service.ErrInvalidDuration):
		response.BadRequest(c, 13004, "下班时间早于上班时间")
	case errors.Is(err, service.ErrBlankRemarks):
		response.BadRequest(c, 13005, "假日备注不能为空")
	case errors.Is(err, service.ErrAttendanceNotFound):
		response.NotFound(c, 13006, "该日期没有已完成的考勤记录")
	case errors.Is(err, service.ErrPastEditingDisabled):
		response.Forbidden(c, 13007, "补录考勤未开启")
	case errors.Is(err, service.ErrPastDateOutOfRange):
		response.BadRequest(c, 13008, "补录日期超出允许范围")
	case errors.Is(err, service.ErrEmptyPastEntry):
		response.BadRequest(c, 13009, "上班或下班时间至少填写一项")
	case errors.Is(err, service.ErrPhotoRequired):
		response.BadRequest(c, 13010, "本人打卡必须上传照片")
	case errors.Is(err, service.ErrInvalidPhoto):
		response.BadRequest(c, 13011, "照片无法识别")
	case errors.Is(err, service.ErrInvalidClock):
		response.BadRequest(c, 13012, "时间格式应为 hh.mm.ss AM/PM")
	case errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 13013, "开始日期不能晚于结束日期")
	default:
		handleFallbackError(c, err)
	}
}
