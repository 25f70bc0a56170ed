package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"student-wellness/backend/internal/dto"
	"student-wellness/backend/internal/service"
	"student-wellness/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportComplaints 导出投诉
// GET /api/v1/admin/export/complaints?department_id=xxx&status=xxx
func (h *ExportHandler) ExportComplaints(c *gin.Context) {
	ac, ok := MustGetAccess(c)
	if !ok {
		return
	}

	var req dto.ComplaintExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportComplaints(c.Request.Context(), ac, &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoComplaints):
		response.NotFound(c, 16101, "没有符合条件的投诉")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
	}
}
