package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"student-wellness/backend/internal/dto"
	"student-wellness/backend/internal/service"
	"student-wellness/backend/pkg/response"
)

// ModeratorHandler 版主管理（管理员）
type ModeratorHandler struct {
	authoritySvc service.AuthorityService
}

// NewModeratorHandler 创建 ModeratorHandler
func NewModeratorHandler(authoritySvc service.AuthorityService) *ModeratorHandler {
	return &ModeratorHandler{authoritySvc: authoritySvc}
}

// ListModerators 版主列表
// GET /api/v1/admin/moderators
func (h *ModeratorHandler) ListModerators(c *gin.Context) {
	var req dto.ModeratorListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	mods, err := h.authoritySvc.ListModerators(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"list": mods})
}

// GrantModerator 授予版主；已撤销的记录重新启用
// POST /api/v1/admin/moderators
func (h *ModeratorHandler) GrantModerator(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.GrantModeratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	mod, err := h.authoritySvc.GrantModerator(c.Request.Context(), &req, caller.UserID)
	if err != nil {
		h.handleModeratorError(c, err)
		return
	}
	response.OK(c, mod)
}

// RevokeModerator 撤销版主，保留记录
// DELETE /api/v1/admin/moderators/:user_id
func (h *ModeratorHandler) RevokeModerator(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	if err := h.authoritySvc.RevokeModerator(c.Request.Context(), c.Param("user_id"), caller.UserID); err != nil {
		h.handleModeratorError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *ModeratorHandler) handleModeratorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrModeratorNotFound):
		response.NotFound(c, 24001, "版主记录不存在")
	default:
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
	}
}
