package dto

// ── 帖子模块 DTO ──

// CreatePostRequest 发帖请求
type CreatePostRequest struct {
	Content     string `json:"content"      binding:"required,min=1,max=5000"`
	Type        string `json:"type"         binding:"required,oneof=concern activity"`
	Category    string `json:"category"     binding:"required,max=64"`
	Visibility  string `json:"visibility"   binding:"omitempty,oneof=public moderators"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// PostListRequest 帖子列表查询参数
type PostListRequest struct {
	Type     string `form:"type"     binding:"omitempty,oneof=concern activity"`
	Category string `form:"category" binding:"omitempty,max=64"`
	Mine     bool   `form:"mine"`
	PaginationRequest
}

// PostResponse 帖子响应；匿名帖仅对作者本人返回 author_id
type PostResponse struct {
	ID                   string `json:"id"`
	AuthorID             string `json:"author_id,omitempty"`
	IsAnonymous          bool   `json:"is_anonymous"`
	IsMine               bool   `json:"is_mine"`
	Content              string `json:"content"`
	Type                 string `json:"type"`
	Category             string `json:"category"`
	CategoryDepartmentID string `json:"category_department_id,omitempty"`
	Visibility           string `json:"visibility"`
	Upvotes              int    `json:"upvotes"`
	Downvotes            int    `json:"downvotes"`
	CommentCount         int    `json:"comment_count"`
	MyVote               string `json:"my_vote,omitempty"` // up | down
	CreatedAt            string `json:"created_at"`
}

// ── 投票 ──

// VoteRequest 投票请求；seq 为客户端单调递增序号，同一会话同一 client_id 下较旧的请求会被丢弃
type VoteRequest struct {
	Direction string `json:"direction" binding:"required,oneof=up down clear"`
	Seq       int64  `json:"seq"       binding:"omitempty,min=0"`
	ClientID  string `json:"client_id" binding:"omitempty,max=64"`
}

// VoteResponse 投票结果
type VoteResponse struct {
	PostID     string `json:"post_id"`
	Upvotes    int    `json:"upvotes"`
	Downvotes  int    `json:"downvotes"`
	MyVote     string `json:"my_vote,omitempty"`
	Superseded bool   `json:"superseded,omitempty"`
}

// VotersResponse 投票人明细（版主/管理员）
type VotersResponse struct {
	PostID      string   `json:"post_id"`
	UpvotedBy   []string `json:"upvoted_by"`
	DownvotedBy []string `json:"downvoted_by"`
	VotedUsers  []string `json:"voted_users"`
}

// ── 评论 ──

// CreateCommentRequest 评论请求
type CreateCommentRequest struct {
	Content     string `json:"content"      binding:"required,min=1,max=2000"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// CommentResponse 评论响应
type CommentResponse struct {
	ID          string `json:"id"`
	PostID      string `json:"post_id"`
	AuthorID    string `json:"author_id,omitempty"`
	IsAnonymous bool   `json:"is_anonymous"`
	IsMine      bool   `json:"is_mine"`
	Content     string `json:"content"`
	CreatedAt   string `json:"created_at"`
}
