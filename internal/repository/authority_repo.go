package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"student-wellness/backend/internal/model"
)

// AdminRepository 管理员记录数据访问接口
type AdminRepository interface {
	// Exists 记录不存在返回 (false, nil)，仅存储故障返回 error
	Exists(ctx context.Context, userID string) (bool, error)
	Grant(ctx context.Context, admin *model.Admin) error
	Revoke(ctx context.Context, userID string) error
	List(ctx context.Context) ([]model.Admin, error)
}

// ModeratorRepository 版主记录数据访问接口
type ModeratorRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.Moderator, error)
	// Upsert 授予或重新激活版主
	Upsert(ctx context.Context, m *model.Moderator) error
	// Revoke 置为失效，记录保留；不存在时返回 gorm.ErrRecordNotFound
	Revoke(ctx context.Context, userID, revokedBy string) error
	List(ctx context.Context, includeInactive bool) ([]model.Moderator, error)
}

// ── Admin ──

type adminRepo struct {
	db *gorm.DB
}

// NewAdminRepo 创建 AdminRepository 实例
func NewAdminRepo(db *gorm.DB) AdminRepository {
	return &adminRepo{db: db}
}

func (r *adminRepo) Exists(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Admin{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count > 0, err
}

func (r *adminRepo) Grant(ctx context.Context, admin *model.Admin) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "note"}),
		}).
		Create(admin).Error
}

func (r *adminRepo) Revoke(ctx context.Context, userID string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.Admin{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *adminRepo) List(ctx context.Context) ([]model.Admin, error) {
	var admins []model.Admin
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&admins).Error
	return admins, err
}

// ── Moderator ──

type moderatorRepo struct {
	db *gorm.DB
}

// NewModeratorRepo 创建 ModeratorRepository 实例
func NewModeratorRepo(db *gorm.DB) ModeratorRepository {
	return &moderatorRepo{db: db}
}

func (r *moderatorRepo) GetByUserID(ctx context.Context, userID string) (*model.Moderator, error) {
	var m model.Moderator
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *moderatorRepo) Upsert(ctx context.Context, m *model.Moderator) error {
	m.IsActive = true
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"email":      m.Email,
				"is_active":  true,
				"granted_by": m.GrantedBy,
				"revoked_by": nil,
				"revoked_at": nil,
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).
		Create(m).Error
}

func (r *moderatorRepo) Revoke(ctx context.Context, userID, revokedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Moderator{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"is_active":  false,
			"revoked_by": revokedBy,
			"revoked_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *moderatorRepo) List(ctx context.Context, includeInactive bool) ([]model.Moderator, error) {
	var mods []model.Moderator
	q := r.db.WithContext(ctx)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	err := q.Order("created_at ASC").Find(&mods).Error
	return mods, err
}
