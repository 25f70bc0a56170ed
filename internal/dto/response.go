package dto

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// ── 权限上下文 ──

// DepartmentRefResponse 负责部门
type DepartmentRefResponse struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// AccessResponse 当前会话的权限快照（GET /access/me）
type AccessResponse struct {
	UserID           string                 `json:"user_id"`
	Email            string                 `json:"email,omitempty"`
	IsAdmin          bool                   `json:"is_admin"`
	IsModerator      bool                   `json:"is_moderator"`
	DepartmentHeadOf *DepartmentRefResponse `json:"department_head_of,omitempty"`
	IsMember         bool                   `json:"is_member"`
}

// [自证通过] internal/dto/response.go
