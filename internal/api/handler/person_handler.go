package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"workshop-tracker/backend/internal/dto"
	"workshop-tracker/backend/internal/service"
	"workshop-tracker/backend/pkg/response"
)

// PersonHandler 人员目录 HTTP 处理器
type PersonHandler struct {
	personSvc service.PersonService
}

// NewPersonHandler 创建 PersonHandler
func NewPersonHandler(personSvc service.PersonService) *PersonHandler {
	return &PersonHandler{personSvc: personSvc}
}

// ListPeople 人员列表
// GET /api/v1/people?role=&supervisor_code=
func (h *PersonHandler) ListPeople(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.PersonListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.personSvc.ListPeople(c.Request.Context(), actor, &req)
	if err != nil {
		h.handlePersonError(c, err)
		return
	}
	response.OK(c, list)
}

// GetPerson 按编码查询
// GET /api/v1/people/:code
func (h *PersonHandler) GetPerson(c *gin.Context) {
	p, err := h.personSvc.FindPerson(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.handlePersonError(c, err)
		return
	}
	response.OK(c, p)
}

// GetSupervisor 查询上级主管
// GET /api/v1/people/:code/supervisor
func (h *PersonHandler) GetSupervisor(c *gin.Context) {
	sup, err := h.personSvc.FindSupervisorOf(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.handlePersonError(c, err)
		return
	}
	response.OK(c, sup)
}

func (h *PersonHandler) handlePersonError(c *gin.Context, err error) {
	if handleAuthzError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrSupervisorNotFound):
		response.NotFound(c, 12002, "该人员没有上级主管")
	default:
		handleFallbackError(c, err)
	}
}
