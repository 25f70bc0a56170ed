package handler

import (
	"github.com/gin-gonic/gin"

	"student-wellness/backend/internal/service"
	"student-wellness/backend/pkg/response"
)

// AccessHandler 当前用户权限
type AccessHandler struct {
	accessSvc service.AccessService
}

// NewAccessHandler 创建 AccessHandler
func NewAccessHandler(accessSvc service.AccessService) *AccessHandler {
	return &AccessHandler{accessSvc: accessSvc}
}

// Me 返回本次会话的权限快照（可能来自缓存）
// GET /api/v1/access/me
func (h *AccessHandler) Me(c *gin.Context) {
	ac, ok := MustGetAccess(c)
	if !ok {
		return
	}
	response.OK(c, service.ToAccessResponse(ac))
}

// Refresh 绕过缓存重新解析权限
// POST /api/v1/access/refresh
func (h *AccessHandler) Refresh(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	ac, err := h.accessSvc.Refresh(c.Request.Context(), id)
	if err != nil {
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
		return
	}
	response.OK(c, service.ToAccessResponse(ac))
}
