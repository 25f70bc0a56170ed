package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"student-wellness/backend/internal/access"
	"student-wellness/backend/internal/dto"
	"student-wellness/backend/internal/model"
	"student-wellness/backend/internal/repository"
	pkgerrors "student-wellness/backend/pkg/errors"
	"student-wellness/backend/pkg/identity"
	"student-wellness/backend/pkg/logger"
	"student-wellness/backend/pkg/metrics"
)

// ── 权限解析模块业务错误 ──

var (
	ErrMissingIdentity = errors.New("缺少身份信息")
)

// AccessService 权限解析接口
//
// Resolve 优先使用会话缓存；Refresh 总是绕过缓存重新解析并整体替换缓存项，
// 所有特权操作都应调用 Refresh。
type AccessService interface {
	Resolve(ctx context.Context, id *identity.Identity) (access.Context, error)
	Refresh(ctx context.Context, id *identity.Identity) (access.Context, error)
	Invalidate(ctx context.Context, id *identity.Identity) error
}

type accessService struct {
	repo   *repository.Repository
	cache  AccessCache
	logger *zap.Logger
	audit  *zap.Logger
}

// NewAccessService 创建 AccessService 实例
func NewAccessService(repo *repository.Repository, cache AccessCache, log *zap.Logger) AccessService {
	return &accessService{
		repo:   repo,
		cache:  cache,
		logger: log,
		audit:  logger.Audit(log),
	}
}

// ────────────────────── Resolve ──────────────────────

func (s *accessService) Resolve(ctx context.Context, id *identity.Identity) (access.Context, error) {
	if id == nil || id.UserID == "" {
		return access.Context{}, ErrMissingIdentity
	}

	cached, ok, err := s.cache.Get(ctx, sessionKey(id))
	if err != nil {
		// 缓存不可用时直接回源，不影响请求
		s.logger.Warn("读取权限缓存失败", zap.String("user_id", id.UserID), zap.Error(err))
	}
	if ok && cached.UserID() == id.UserID {
		metrics.AccessResolutions.WithLabelValues("cache", "ok").Inc()
		return cached, nil
	}

	ac, err := s.resolve(ctx, id)
	if err != nil {
		return access.Context{}, err
	}
	s.store(ctx, id, ac)
	return ac, nil
}

// ────────────────────── Refresh ──────────────────────

func (s *accessService) Refresh(ctx context.Context, id *identity.Identity) (access.Context, error) {
	if id == nil || id.UserID == "" {
		return access.Context{}, ErrMissingIdentity
	}

	ac, err := s.resolve(ctx, id)
	if err != nil {
		return access.Context{}, err
	}

	previous, ok, err := s.cache.Get(ctx, sessionKey(id))
	if err == nil && ok {
		if lost := previous.Downgraded(ac); len(lost) > 0 {
			metrics.AccessDowngrades.Inc()
			s.audit.Warn("access downgraded",
				zap.String("user_id", id.UserID),
				zap.String("session_id", id.SessionID),
				zap.Strings("lost", lost),
			)
		}
	}

	s.store(ctx, id, ac)
	return ac, nil
}

// ────────────────────── Invalidate ──────────────────────

func (s *accessService) Invalidate(ctx context.Context, id *identity.Identity) error {
	if id == nil || id.UserID == "" {
		return nil
	}
	if err := s.cache.Delete(ctx, sessionKey(id)); err != nil {
		s.logger.Error("清除权限缓存失败", zap.String("user_id", id.UserID), zap.Error(err))
		return err
	}
	return nil
}

// ═══════════════════════════════════════════════════════════
// resolve 并发查询三类权限记录
// ═══════════════════════════════════════════════════════════
//
// 三个查询互不依赖，全部完成后合并；任一查询遇到存储故障则整体返回 ErrResolution。
// "记录不存在" 是否定结果，不是错误。

func (s *accessService) resolve(ctx context.Context, id *identity.Identity) (access.Context, error) {
	var (
		isAdmin     bool
		isModerator bool
		heads       []model.Department
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ok, err := s.repo.Admin.Exists(gctx, id.UserID)
		if err != nil {
			return fmt.Errorf("查询管理员记录: %w", err)
		}
		isAdmin = ok
		return nil
	})

	g.Go(func() error {
		mod, err := s.repo.Moderator.GetByUserID(gctx, id.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("查询版主记录: %w", err)
		}
		isModerator = mod.IsActive
		return nil
	})

	g.Go(func() error {
		// 未验证邮箱的身份不参与部门负责人匹配
		if id.Email == "" {
			return nil
		}
		depts, err := s.repo.Department.FindByHeadEmail(gctx, id.Email)
		if err != nil {
			return fmt.Errorf("查询部门负责人: %w", err)
		}
		heads = depts
		return nil
	})

	if err := g.Wait(); err != nil {
		metrics.AccessResolutions.WithLabelValues("store", "error").Inc()
		s.logger.Error("解析权限失败", zap.String("user_id", id.UserID), zap.Error(err))
		return access.Context{}, fmt.Errorf("%w: %w", pkgerrors.ErrResolution, err)
	}

	var headOf *access.DepartmentRef
	if len(heads) > 0 {
		// FindByHeadEmail 按 code 升序，取第一个
		headOf = &access.DepartmentRef{
			ID:   heads[0].DepartmentID,
			Code: heads[0].Code,
			Name: heads[0].Name,
		}
		if len(heads) > 1 {
			codes := make([]string, 0, len(heads))
			for _, d := range heads {
				codes = append(codes, d.Code)
			}
			s.logger.Warn("同一邮箱是多个部门的负责人，取 code 最小者",
				zap.String("user_id", id.UserID),
				zap.Strings("departments", codes),
				zap.String("selected", heads[0].Code),
			)
		}
	}

	metrics.AccessResolutions.WithLabelValues("store", "ok").Inc()
	return access.New(id.UserID, id.Email, isAdmin, isModerator, headOf), nil
}

func (s *accessService) store(ctx context.Context, id *identity.Identity, ac access.Context) {
	if err := s.cache.Set(ctx, sessionKey(id), ac); err != nil {
		s.logger.Warn("写入权限缓存失败", zap.String("user_id", id.UserID), zap.Error(err))
	}
}

// sessionKey 会话缓存键；身份提供方未给出会话 ID 时退化为用户 ID
func sessionKey(id *identity.Identity) string {
	if id.SessionID != "" {
		return id.SessionID
	}
	return id.UserID
}

// ToAccessResponse 权限快照转响应 DTO
func ToAccessResponse(ac access.Context) *dto.AccessResponse {
	resp := &dto.AccessResponse{
		UserID:      ac.UserID(),
		Email:       ac.Email(),
		IsAdmin:     ac.IsAdmin(),
		IsModerator: ac.IsModerator(),
		IsMember:    ac.IsMember(),
	}
	if head := ac.DepartmentHeadOf(); head != nil {
		resp.DepartmentHeadOf = &dto.DepartmentRefResponse{ID: head.ID, Code: head.Code, Name: head.Name}
	}
	return resp
}

// [自证通过] internal/service/access_service.go
