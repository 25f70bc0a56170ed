package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"student-wellness/backend/internal/access"
	"student-wellness/backend/internal/model"
	pkgerrors "student-wellness/backend/pkg/errors"
	"student-wellness/backend/pkg/identity"
)

// ── 测试辅助 ──

func setupTestAccessService() (AccessService, *testEnv) {
	env := newTestEnv()
	svc := NewAccessService(env.repo, NewMemoryAccessCache(128, time.Minute), zap.NewNop())
	return svc, env
}

func testIdentity(userID, email string) *identity.Identity {
	return &identity.Identity{UserID: userID, Email: email, SessionID: "sess-" + userID}
}

// ── Resolve 测试 ──

func TestAccessService_Resolve_Member(t *testing.T) {
	svc, _ := setupTestAccessService()

	ac, err := svc.Resolve(context.Background(), testIdentity("u1", "u1@campus.edu"))
	if err != nil {
		t.Fatalf("Resolve 应成功: %v", err)
	}
	if !ac.IsMember() {
		t.Error("无任何权限记录时应为普通成员")
	}
	if ac.UserID() != "u1" {
		t.Errorf("期望 UserID=u1，实际=%s", ac.UserID())
	}
}

func TestAccessService_Resolve_IndependentFlags(t *testing.T) {
	svc, env := setupTestAccessService()
	env.admins.admins["u1"] = &model.Admin{UserID: "u1"}
	env.moderators.mods["u1"] = &model.Moderator{UserID: "u1", IsActive: true}
	deptID := env.depts.add("CS", "计算机学院", "Head@Campus.edu")

	ac, err := svc.Resolve(context.Background(), testIdentity("u1", "head@campus.edu"))
	if err != nil {
		t.Fatalf("Resolve 应成功: %v", err)
	}
	if !ac.IsAdmin() || !ac.IsModerator() {
		t.Errorf("期望同时为管理员和版主，实际 admin=%v moderator=%v", ac.IsAdmin(), ac.IsModerator())
	}
	if !ac.IsHeadOf(deptID) {
		t.Error("邮箱不区分大小写匹配时应为部门负责人")
	}
}

func TestAccessService_Resolve_InactiveModerator(t *testing.T) {
	svc, env := setupTestAccessService()
	env.moderators.mods["u1"] = &model.Moderator{UserID: "u1", IsActive: false}

	ac, err := svc.Resolve(context.Background(), testIdentity("u1", ""))
	if err != nil {
		t.Fatalf("Resolve 应成功: %v", err)
	}
	if ac.IsModerator() {
		t.Error("已撤销的版主不应具有版主权限")
	}
}

func TestAccessService_Resolve_MultipleDepartmentsLowestCode(t *testing.T) {
	svc, env := setupTestAccessService()
	env.depts.add("MATH", "数学学院", "head@campus.edu")
	bioID := env.depts.add("BIO", "生命科学学院", "head@campus.edu")

	ac, err := svc.Resolve(context.Background(), testIdentity("u1", "head@campus.edu"))
	if err != nil {
		t.Fatalf("Resolve 应成功: %v", err)
	}
	head := ac.DepartmentHeadOf()
	if head == nil || head.ID != bioID {
		t.Errorf("期望负责部门为 code 最小的 BIO，实际: %+v", head)
	}
}

func TestAccessService_Resolve_UnverifiedEmailIsNotHead(t *testing.T) {
	svc, env := setupTestAccessService()
	env.depts.add("CS", "计算机学院", "head@campus.edu")

	// 身份提供方未给出已验证邮箱
	ac, err := svc.Resolve(context.Background(), testIdentity("u1", ""))
	if err != nil {
		t.Fatalf("Resolve 应成功: %v", err)
	}
	if ac.DepartmentHeadOf() != nil {
		t.Error("无已验证邮箱时不应匹配部门负责人")
	}
}

func TestAccessService_Resolve_StoreFailure(t *testing.T) {
	svc, env := setupTestAccessService()
	cause := errors.New("connection refused")
	env.depts.err = cause

	_, err := svc.Resolve(context.Background(), testIdentity("u1", "u1@campus.edu"))
	if !errors.Is(err, pkgerrors.ErrResolution) {
		t.Fatalf("期望 ErrResolution，实际: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("ErrResolution 应包装原始错误")
	}
}

func TestAccessService_Resolve_MissingIdentity(t *testing.T) {
	svc, _ := setupTestAccessService()

	if _, err := svc.Resolve(context.Background(), nil); !errors.Is(err, ErrMissingIdentity) {
		t.Errorf("期望 ErrMissingIdentity，实际: %v", err)
	}
}

// ── 会话缓存 ──

func TestAccessService_Resolve_UsesSessionCache(t *testing.T) {
	svc, env := setupTestAccessService()
	env.admins.admins["u1"] = &model.Admin{UserID: "u1"}
	id := testIdentity("u1", "")

	if _, err := svc.Resolve(context.Background(), id); err != nil {
		t.Fatalf("首次 Resolve 应成功: %v", err)
	}

	// 存储故障时缓存命中仍可用
	env.admins.err = errors.New("down")
	ac, err := svc.Resolve(context.Background(), id)
	if err != nil {
		t.Fatalf("缓存命中时不应访问存储: %v", err)
	}
	if !ac.IsAdmin() {
		t.Error("缓存中的快照应保留管理员权限")
	}

	// Refresh 绕过缓存
	if _, err := svc.Refresh(context.Background(), id); !errors.Is(err, pkgerrors.ErrResolution) {
		t.Errorf("Refresh 应绕过缓存并返回 ErrResolution，实际: %v", err)
	}
}

func TestAccessService_Refresh_ReplacesCachedContext(t *testing.T) {
	svc, env := setupTestAccessService()
	deptID := env.depts.add("CS", "计算机学院", "head@campus.edu")
	id := testIdentity("u1", "head@campus.edu")

	ac, _ := svc.Resolve(context.Background(), id)
	if !ac.IsHeadOf(deptID) {
		t.Fatal("初始应为部门负责人")
	}

	// 负责人变更
	other := "other@campus.edu"
	env.depts.depts[deptID].HeadEmail = &other

	stale, _ := svc.Resolve(context.Background(), id)
	if !stale.IsHeadOf(deptID) {
		t.Error("TTL 内 Resolve 应返回缓存的快照")
	}

	fresh, err := svc.Refresh(context.Background(), id)
	if err != nil {
		t.Fatalf("Refresh 应成功: %v", err)
	}
	if fresh.DepartmentHeadOf() != nil {
		t.Error("Refresh 后应失去部门负责人权限")
	}

	after, _ := svc.Resolve(context.Background(), id)
	if after.DepartmentHeadOf() != nil {
		t.Error("Refresh 应整体覆盖缓存项")
	}
}

func TestAccessService_Invalidate(t *testing.T) {
	svc, env := setupTestAccessService()
	id := testIdentity("u1", "")

	_, _ = svc.Resolve(context.Background(), id)
	env.admins.admins["u1"] = &model.Admin{UserID: "u1"}

	if err := svc.Invalidate(context.Background(), id); err != nil {
		t.Fatalf("Invalidate 应成功: %v", err)
	}
	ac, _ := svc.Resolve(context.Background(), id)
	if !ac.IsAdmin() {
		t.Error("清除缓存后应重新解析")
	}
}

func TestMemoryAccessCache_Expiry(t *testing.T) {
	cache := NewMemoryAccessCache(16, 50*time.Millisecond)
	ctx := context.Background()
	_ = cache.Set(ctx, "s1", access.New("u1", "", true, false, nil))

	if _, ok, _ := cache.Get(ctx, "s1"); !ok {
		t.Fatal("TTL 内应命中")
	}

	time.Sleep(120 * time.Millisecond)
	if _, ok, _ := cache.Get(ctx, "s1"); ok {
		t.Error("过期后不应命中")
	}
}

func TestMemoryAccessCache_BoundedSize(t *testing.T) {
	cache := NewMemoryAccessCache(2, time.Minute)
	ctx := context.Background()

	for _, sid := range []string{"s1", "s2", "s3"} {
		_ = cache.Set(ctx, sid, access.New("u-"+sid, "", false, false, nil))
	}

	if _, ok, _ := cache.Get(ctx, "s1"); ok {
		t.Error("超出容量时最久未用的会话应被淘汰")
	}
	for _, sid := range []string{"s2", "s3"} {
		if ac, ok, _ := cache.Get(ctx, sid); !ok || ac.UserID() != "u-"+sid {
			t.Errorf("%s 应仍在缓存中", sid)
		}
	}

	_ = cache.Delete(ctx, "s2")
	if _, ok, _ := cache.Get(ctx, "s2"); ok {
		t.Error("删除后不应命中")
	}
}
