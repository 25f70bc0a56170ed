package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	jwtv5 "github.com/golang-jwt/jwt/v5"

	"student-wellness/backend/config"
)

func newTestLocalProvider(ttl time.Duration) *LocalProvider {
	return NewLocalProvider(&config.AuthConfig{
		Provider:    "local",
		LocalSecret: "test-secret-key-for-unit-testing-2026",
		LocalTTL:    ttl,
	})
}

func TestLocalProvider_IssueAndVerify(t *testing.T) {
	p := newTestLocalProvider(time.Hour)

	token, err := p.Issue("user-1", "head@cs.edu", "张三")
	if err != nil {
		t.Fatalf("Issue 失败: %v", err)
	}

	id, err := p.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify 失败: %v", err)
	}
	if id.UserID != "user-1" {
		t.Errorf("期望 UserID=user-1，实际=%s", id.UserID)
	}
	if id.Email != "head@cs.edu" {
		t.Errorf("期望 Email=head@cs.edu，实际=%s", id.Email)
	}
	if id.SessionID == "" {
		t.Error("SessionID 不应为空")
	}

	// 每次签发都是新会话
	token2, _ := p.Issue("user-1", "head@cs.edu", "张三")
	id2, _ := p.Verify(context.Background(), token2)
	if id2.SessionID == id.SessionID {
		t.Error("不同令牌应对应不同会话")
	}
}

func TestLocalProvider_Expired(t *testing.T) {
	p := newTestLocalProvider(time.Hour)

	claims := LocalClaims{
		UserID: "user-1",
		RegisteredClaims: jwtv5.RegisteredClaims{
			ExpiresAt: jwtv5.NewNumericDate(time.Now().Add(-time.Minute)),
			Issuer:    localIssuer,
		},
	}
	token, _ := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(p.secret)

	_, err := p.Verify(context.Background(), token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("期望 ErrTokenExpired，实际: %v", err)
	}
}

func TestLocalProvider_WrongSecret(t *testing.T) {
	p := newTestLocalProvider(time.Hour)
	other := NewLocalProvider(&config.AuthConfig{LocalSecret: "another-secret-key-2026-xxxx"})

	token, _ := other.Issue("user-1", "a@x.edu", "")
	if _, err := p.Verify(context.Background(), token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}
	if _, err := p.Verify(context.Background(), "not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}
}

func TestIdentityFromClaims(t *testing.T) {
	claims := &casdoorsdk.Claims{User: casdoorsdk.User{
		Id:            "cd-1",
		Email:         " head@cs.edu ",
		EmailVerified: true,
		DisplayName:   "李四",
	}}
	claims.ID = "jti-1"

	id, err := identityFromClaims(claims)
	if err != nil {
		t.Fatalf("identityFromClaims 失败: %v", err)
	}
	if id.UserID != "cd-1" || id.Email != "head@cs.edu" || id.SessionID != "jti-1" {
		t.Errorf("映射结果不符: %+v", id)
	}

	claims.User.EmailVerified = false
	id, _ = identityFromClaims(claims)
	if id.Email != "" {
		t.Error("未验证邮箱不应带出")
	}

	if _, err := identityFromClaims(&casdoorsdk.Claims{}); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("缺少用户 ID 应返回 ErrTokenInvalid，实际: %v", err)
	}
}

func TestNewProvider(t *testing.T) {
	cfg := &config.Config{Auth: config.AuthConfig{Provider: "local", LocalSecret: "test-secret-key-for-unit-testing"}}
	p, err := NewProvider(cfg)
	if err != nil {
		t.Fatalf("NewProvider 失败: %v", err)
	}
	if _, ok := p.(*LocalProvider); !ok {
		t.Errorf("期望 *LocalProvider，实际 %T", p)
	}

	cfg.Auth.Provider = "ldap"
	if _, err := NewProvider(cfg); err == nil {
		t.Error("未知提供方应返回错误")
	}
}
