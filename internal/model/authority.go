package model

import "time"

// Admin 管理员记录 — 对应 admins，记录存在即为管理员
type Admin struct {
	UserID    string    `gorm:"type:varchar(128);primaryKey"       json:"user_id"`
	Email     *string   `gorm:"type:varchar(255)"                  json:"email,omitempty"`
	Note      string    `gorm:"type:text"                          json:"note,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:varchar(128)"                  json:"created_by,omitempty"`
}

// TableName 指定表名
func (Admin) TableName() string { return "admins" }

// Moderator 版主记录 — 对应 moderators
// 撤销时仅置 is_active=false，记录保留用于审计
type Moderator struct {
	UserID    string     `gorm:"type:varchar(128);primaryKey"       json:"user_id"`
	Email     *string    `gorm:"type:varchar(255)"                  json:"email,omitempty"`
	IsActive  bool       `gorm:"not null;default:true"              json:"is_active"`
	GrantedBy *string    `gorm:"type:varchar(128)"                  json:"granted_by,omitempty"`
	RevokedBy *string    `gorm:"type:varchar(128)"                  json:"revoked_by,omitempty"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (Moderator) TableName() string { return "moderators" }
