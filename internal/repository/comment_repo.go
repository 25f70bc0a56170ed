package repository

import (
	"context"

	"gorm.io/gorm"

	"student-wellness/backend/internal/model"
)

// CommentRepository 评论数据访问接口
type CommentRepository interface {
	// Create 新增评论并递增帖子评论数
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	ListByPost(ctx context.Context, postID string, page Page) ([]model.Comment, int64, error)
	// Delete 软删除评论并递减帖子评论数
	Delete(ctx context.Context, comment *model.Comment, deletedBy string) error
}

type commentRepo struct {
	db *gorm.DB
}

// NewCommentRepo 创建 CommentRepository 实例
func NewCommentRepo(db *gorm.DB) CommentRepository {
	return &commentRepo{db: db}
}

func (r *commentRepo) Create(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			if isForeignKeyViolation(err) {
				return gorm.ErrRecordNotFound
			}
			return err
		}
		return tx.Model(&model.Post{}).
			Where("post_id = ?", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
}

func (r *commentRepo) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	var c model.Comment
	err := r.db.WithContext(ctx).
		Where("comment_id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, notFoundOnMalformedID(err)
	}
	return &c, nil
}

func (r *commentRepo) ListByPost(ctx context.Context, postID string, page Page) ([]model.Comment, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Comment{}).Where("post_id = ?", postID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []model.Comment
	err := page.apply(q.Order("created_at ASC")).Find(&comments).Error
	return comments, total, err
}

func (r *commentRepo) Delete(ctx context.Context, comment *model.Comment, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Comment{}).
			Where("comment_id = ?", comment.CommentID).
			Updates(map[string]interface{}{
				"deleted_by": deletedBy,
				"deleted_at": gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&model.Post{}).
			Where("post_id = ? AND comment_count > 0", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error
	})
}
