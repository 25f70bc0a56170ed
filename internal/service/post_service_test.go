package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"student-wellness/backend/internal/access"
	"student-wellness/backend/internal/dto"
	"student-wellness/backend/internal/model"
	pkgerrors "student-wellness/backend/pkg/errors"
)

// ── 测试辅助 ──

func setupTestPostService() (PostService, *testEnv) {
	env := newTestEnv()
	accessSvc := NewAccessService(env.repo, NewMemoryAccessCache(128, time.Minute), zap.NewNop())
	return NewPostService(env.repo, accessSvc, zap.NewNop()), env
}

func strPtr(s string) *string { return &s }

// ── Create 测试 ──

func TestPostService_Create_LinksDepartmentCategory(t *testing.T) {
	svc, env := setupTestPostService()
	deptID := env.depts.add("CS", "计算机学院", "")

	resp, err := svc.Create(context.Background(), member("u1"), &dto.CreatePostRequest{
		Content:  "周五晚上有编程马拉松",
		Type:     model.PostTypeActivity,
		Category: "CS",
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.CategoryDepartmentID != deptID {
		t.Errorf("期望分类关联部门 %s，实际=%s", deptID, resp.CategoryDepartmentID)
	}
	if resp.Visibility != model.VisibilityPublic {
		t.Errorf("默认可见性应为 public，实际=%s", resp.Visibility)
	}
}

func TestPostService_Create_PlainCategory(t *testing.T) {
	svc, _ := setupTestPostService()

	resp, err := svc.Create(context.Background(), member("u1"), &dto.CreatePostRequest{
		Content:  "最近压力很大",
		Type:     model.PostTypeConcern,
		Category: "stress",
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.CategoryDepartmentID != "" {
		t.Errorf("普通分类不应关联部门，实际=%s", resp.CategoryDepartmentID)
	}
}

func TestPostService_Create_ModeratorsOnlyRequiresModerator(t *testing.T) {
	svc, _ := setupTestPostService()
	req := &dto.CreatePostRequest{
		Content:    "版主内部讨论",
		Type:       model.PostTypeConcern,
		Category:   "internal",
		Visibility: model.VisibilityModerators,
	}

	if _, err := svc.Create(context.Background(), member("u1"), req); !errors.Is(err, pkgerrors.ErrAuthorization) {
		t.Errorf("普通成员发布仅版主可见帖子应返回 ErrAuthorization，实际: %v", err)
	}
	mod := access.New("mod", "", false, true, nil)
	if _, err := svc.Create(context.Background(), mod, req); err != nil {
		t.Errorf("版主应可发布: %v", err)
	}
}

func TestPostService_Create_BlankContent(t *testing.T) {
	svc, _ := setupTestPostService()

	_, err := svc.Create(context.Background(), member("u1"), &dto.CreatePostRequest{
		Content:  "   ",
		Type:     model.PostTypeConcern,
		Category: "stress",
	})
	if !errors.Is(err, pkgerrors.ErrValidation) {
		t.Errorf("期望 ErrValidation，实际: %v", err)
	}
}

// ── List / Get 测试 ──

func TestPostService_List_AppliesVisibility(t *testing.T) {
	svc, env := setupTestPostService()
	csID := env.depts.add("CS", "计算机学院", "")
	mathID := env.depts.add("MATH", "数学学院", "")

	env.store.addPost(model.Post{PostID: "p1", AuthorID: "a", Type: model.PostTypeConcern})
	env.store.addPost(model.Post{PostID: "p2", AuthorID: "a", Type: model.PostTypeConcern, Visibility: model.VisibilityModerators})
	env.store.addPost(model.Post{PostID: "p3", AuthorID: "a", Type: model.PostTypeActivity, CategoryDepartmentID: &csID})
	env.store.addPost(model.Post{PostID: "p4", AuthorID: "a", Type: model.PostTypeActivity, CategoryDepartmentID: &mathID})

	tests := []struct {
		name string
		ac   access.Context
		want []string
	}{
		{"普通成员", member("u1"), []string{"p1", "p3", "p4"}},
		{"版主", access.New("m", "", false, true, nil), []string{"p1", "p2", "p3", "p4"}},
		{"CS 负责人", access.New("h", "h@campus.edu", false, false, &access.DepartmentRef{ID: csID, Code: "CS"}), []string{"p1", "p3"}},
		{"兼任管理员的 CS 负责人", access.New("h", "h@campus.edu", true, false, &access.DepartmentRef{ID: csID, Code: "CS"}), []string{"p1", "p2", "p3", "p4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, _, err := svc.List(context.Background(), tt.ac, &dto.PostListRequest{})
			if err != nil {
				t.Fatalf("List 应成功: %v", err)
			}
			got := make([]string, 0, len(list))
			for _, p := range list {
				got = append(got, p.ID)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("期望 %v，实际 %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("期望 %v，实际 %v", tt.want, got)
					break
				}
			}
		})
	}
}

func TestPostService_List_HidesAnonymousAuthor(t *testing.T) {
	svc, env := setupTestPostService()
	env.store.addPost(model.Post{PostID: "p1", AuthorID: "author", IsAnonymous: true, Type: model.PostTypeConcern})

	others, _, _ := svc.List(context.Background(), member("u1"), &dto.PostListRequest{})
	if len(others) != 1 || others[0].AuthorID != "" {
		t.Errorf("匿名帖不应向他人暴露作者: %+v", others)
	}

	mine, _, _ := svc.List(context.Background(), member("author"), &dto.PostListRequest{})
	if len(mine) != 1 || mine[0].AuthorID != "author" || !mine[0].IsMine {
		t.Errorf("作者本人应看到自己的 ID: %+v", mine)
	}
}

func TestPostService_Get_InvisibleIsNotFound(t *testing.T) {
	svc, env := setupTestPostService()
	postID := env.store.addPost(model.Post{AuthorID: "a", Type: model.PostTypeConcern, Visibility: model.VisibilityModerators})

	if _, err := svc.Get(context.Background(), member("u1"), postID); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("期望 ErrPostNotFound，实际: %v", err)
	}
}

// ── Delete 测试 ──

func TestPostService_Delete_ByAuthor(t *testing.T) {
	svc, env := setupTestPostService()
	postID := env.store.addPost(model.Post{AuthorID: "u1", Type: model.PostTypeConcern})

	if err := svc.Delete(context.Background(), testIdentity("u1", ""), member("u1"), postID); err != nil {
		t.Fatalf("作者删除应成功: %v", err)
	}
	if _, err := svc.Get(context.Background(), member("u1"), postID); !errors.Is(err, ErrPostNotFound) {
		t.Error("删除后应不可见")
	}
}

func TestPostService_Delete_ByOtherMember(t *testing.T) {
	svc, env := setupTestPostService()
	postID := env.store.addPost(model.Post{AuthorID: "u1", Type: model.PostTypeConcern})

	err := svc.Delete(context.Background(), testIdentity("u2", ""), member("u2"), postID)
	if !errors.Is(err, pkgerrors.ErrAuthorization) {
		t.Errorf("期望 ErrAuthorization，实际: %v", err)
	}
}

func TestPostService_Delete_RevokedModeratorDenied(t *testing.T) {
	svc, env := setupTestPostService()
	postID := env.store.addPost(model.Post{AuthorID: "u1", Type: model.PostTypeConcern})
	env.moderators.mods["mod"] = &model.Moderator{UserID: "mod", IsActive: false}

	// 会话快照仍显示为版主，但存储中已撤销
	stale := access.New("mod", "", false, true, nil)
	err := svc.Delete(context.Background(), testIdentity("mod", ""), stale, postID)
	if !errors.Is(err, pkgerrors.ErrAuthorization) {
		t.Errorf("特权操作应以重新解析的权限为准，实际: %v", err)
	}
}

func TestPostService_Delete_ByModerator(t *testing.T) {
	svc, env := setupTestPostService()
	postID := env.store.addPost(model.Post{AuthorID: "u1", Type: model.PostTypeConcern})
	env.moderators.mods["mod"] = &model.Moderator{UserID: "mod", IsActive: true}

	if err := svc.Delete(context.Background(), testIdentity("mod", ""), member("mod"), postID); err != nil {
		t.Errorf("新授予的版主经重新解析后应可删除: %v", err)
	}
}

// ── 评论测试 ──

func TestPostService_Comments(t *testing.T) {
	svc, env := setupTestPostService()
	postID := env.store.addPost(model.Post{AuthorID: "u1", Type: model.PostTypeConcern})
	ctx := context.Background()

	c, err := svc.AddComment(ctx, member("u2"), postID, &dto.CreateCommentRequest{Content: "抱抱你", IsAnonymous: true})
	if err != nil {
		t.Fatalf("AddComment 应成功: %v", err)
	}
	if env.store.posts[postID].CommentCount != 1 {
		t.Errorf("期望 comment_count=1，实际=%d", env.store.posts[postID].CommentCount)
	}

	list, total, err := svc.ListComments(ctx, member("u1"), postID, &dto.PaginationRequest{})
	if err != nil || total != 1 {
		t.Fatalf("ListComments 应返回 1 条，实际 total=%d err=%v", total, err)
	}
	if list[0].AuthorID != "" {
		t.Error("匿名评论不应向他人暴露作者")
	}

	if err := svc.DeleteComment(ctx, testIdentity("u1", ""), member("u1"), c.ID); !errors.Is(err, pkgerrors.ErrAuthorization) {
		t.Errorf("帖子作者不能删除他人评论，实际: %v", err)
	}
	if err := svc.DeleteComment(ctx, testIdentity("u2", ""), member("u2"), c.ID); err != nil {
		t.Errorf("评论作者删除应成功: %v", err)
	}
	if env.store.posts[postID].CommentCount != 0 {
		t.Errorf("删除后期望 comment_count=0，实际=%d", env.store.posts[postID].CommentCount)
	}
}

func TestPostService_AddComment_InvisiblePost(t *testing.T) {
	svc, env := setupTestPostService()
	postID := env.store.addPost(model.Post{AuthorID: "a", Type: model.PostTypeConcern, Visibility: model.VisibilityModerators})

	_, err := svc.AddComment(context.Background(), member("u1"), postID, &dto.CreateCommentRequest{Content: "hi"})
	if !errors.Is(err, ErrPostNotFound) {
		t.Errorf("期望 ErrPostNotFound，实际: %v", err)
	}
}

func TestToPostResponse_FormatsInUTC(t *testing.T) {
	p := &model.Post{PostID: "p1", AuthorID: "u1"}
	p.CreatedAt = time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("CST", 8*3600))

	resp := toPostResponse(p, member("u2"), "")
	if resp.CreatedAt != "2026-03-01T01:30:00Z" {
		t.Errorf("期望转换为 UTC，实际 %s", resp.CreatedAt)
	}
}
