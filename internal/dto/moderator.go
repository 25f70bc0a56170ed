package dto

// GrantModeratorRequest 授予版主
type GrantModeratorRequest struct {
	UserID string `json:"user_id" binding:"required,max=128"`
	Email  string `json:"email"   binding:"omitempty,email,max=255"`
}

// ModeratorListRequest 版主列表查询参数
type ModeratorListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// ModeratorResponse 版主记录
type ModeratorResponse struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	IsActive  bool   `json:"is_active"`
	GrantedBy string `json:"granted_by,omitempty"`
	RevokedBy string `json:"revoked_by,omitempty"`
	RevokedAt string `json:"revoked_at,omitempty"`
	CreatedAt string `json:"created_at"`
}
