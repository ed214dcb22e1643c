package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"workshop-tracker/backend/internal/api/middleware"
	"workshop-tracker/backend/internal/service"
	pkgerrors "workshop-tracker/backend/pkg/errors"
	"workshop-tracker/backend/pkg/response"
	"workshop-tracker/backend/pkg/timeutil"
)

// MustGetActor 从 Gin 上下文还原请求级 Actor。
// 如果 JWT 中间件未正确注入会话信息，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetActor(c *gin.Context) (service.Actor, bool) {
	code := c.GetString(middleware.CtxCode)
	role := c.GetString(middleware.CtxRole)
	if code == "" || role == "" {
		response.Unauthorized(c, 10002, "未认证")
		return service.Actor{}, false
	}
	return service.Actor{
		Code:           code,
		Name:           c.GetString(middleware.CtxName),
		Role:           role,
		SupervisorCode: c.GetString(middleware.CtxSupervisorCode),
	}, true
}

// tokenMeta 当前 Token 的 jti 与过期时间（登出时使用）
func tokenMeta(c *gin.Context) (string, time.Time) {
	jti := c.GetString(middleware.CtxTokenJTI)
	exp, _ := c.Get(middleware.CtxTokenExp)
	t, _ := exp.(time.Time)
	return jti, t
}

// parseDateParam 解析路径中的日期参数
func parseDateParam(c *gin.Context, name string) (time.Time, bool) {
	day, err := timeutil.ParseDate(c.Param(name))
	if err != nil {
		response.BadRequest(c, 10001, "日期格式应为 dd-mm-yyyy")
		return time.Time{}, false
	}
	return day, true
}

// parseRange 解析 from/to 查询参数（已由 daydate 规则校验过格式）
func parseRange(from, to string) (time.Time, time.Time, error) {
	start, err := timeutil.ParseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := timeutil.ParseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// readFormFile 读取 multipart 文件字段；字段缺失或请求不是 multipart 时返回 nil, nil
func readFormFile(c *gin.Context, field string) ([]byte, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, "", nil
		}
		return nil, "", err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return data, fh.Filename, nil
}

// isBodyTooLarge 请求体超过 BodyLimit
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// handleFallbackError 各模块未识别的错误：存储故障 503，其余 500
func handleFallbackError(c *gin.Context, err error) {
	if errors.Is(err, pkgerrors.ErrStorage) {
		response.ServiceUnavailable(c)
		return
	}
	_ = c.Error(err)
	response.InternalError(c)
}

// handleAuthzError 多个模块共享的权限与人员错误；已处理时返回 true
func handleAuthzError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		response.Forbidden(c, 10003, "无权对该人员执行此操作")
	case errors.Is(err, service.ErrPersonNotFound):
		response.NotFound(c, 12001, "人员不存在")
	default:
		return false
	}
	return true
}
