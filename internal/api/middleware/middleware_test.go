package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"student-wellness/backend/config"
	"student-wellness/backend/internal/access"
	"student-wellness/backend/internal/api/handler"
	pkgerrors "student-wellness/backend/pkg/errors"
	"student-wellness/backend/pkg/identity"
	"student-wellness/backend/pkg/redis"
	"student-wellness/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAccessService struct {
	resolved  access.Context
	refreshed access.Context
	err       error
	refreshes int
}

func (s *stubAccessService) Resolve(_ context.Context, _ *identity.Identity) (access.Context, error) {
	return s.resolved, s.err
}
func (s *stubAccessService) Refresh(_ context.Context, _ *identity.Identity) (access.Context, error) {
	s.refreshes++
	return s.refreshed, s.err
}
func (s *stubAccessService) Invalidate(_ context.Context, _ *identity.Identity) error { return nil }

func newProvider() *identity.LocalProvider {
	return identity.NewLocalProvider(&config.AuthConfig{
		Provider:    "local",
		LocalSecret: "middleware-test-secret-2026",
		LocalTTL:    time.Hour,
	})
}

// newAuthEngine 认证 + 权限解析后回显当前用户
func newAuthEngine(p identity.Provider, svc *stubAccessService, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	chain := []gin.HandlerFunc{Authenticate(p), ResolveAccess(svc, zap.NewNop())}
	chain = append(chain, extra...)
	chain = append(chain, func(c *gin.Context) {
		ac, ok := handler.MustGetAccess(c)
		if !ok {
			return
		}
		response.OK(c, gin.H{"user_id": ac.UserID(), "is_admin": ac.IsAdmin()})
	})
	r.GET("/whoami", chain...)
	return r
}

func doGet(r *gin.Engine, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	r.ServeHTTP(w, req)
	return w
}

func codeOf(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Code
}

// ── Authenticate ──

func TestAuthenticate_RejectsMissingOrMalformed(t *testing.T) {
	r := newAuthEngine(newProvider(), &stubAccessService{})

	for _, header := range []string{"", "Token abc", "Bearer not-a-jwt"} {
		w := doGet(r, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
		assert.Equal(t, 10002, codeOf(t, w), "header %q", header)
	}
}

func TestAuthenticate_ValidToken(t *testing.T) {
	p := newProvider()
	token, err := p.Issue("u1", "u1@campus.edu", "学生")
	require.NoError(t, err)

	svc := &stubAccessService{resolved: access.New("u1", "u1@campus.edu", false, false, nil)}
	w := doGet(newAuthEngine(p, svc), "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"u1"`)
}

// ── ResolveAccess ──

func TestResolveAccess_ResolutionFailureIsNotDowngrade(t *testing.T) {
	p := newProvider()
	token, _ := p.Issue("u1", "", "")

	svc := &stubAccessService{err: fmt.Errorf("%w: 数据库超时", pkgerrors.ErrResolution)}
	w := doGet(newAuthEngine(p, svc), "Bearer "+token)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 10006, codeOf(t, w))
}

// ── RequireAdmin ──

func TestRequireAdmin(t *testing.T) {
	p := newProvider()
	token, _ := p.Issue("u1", "", "")

	tests := []struct {
		name      string
		refreshed access.Context
		wantHTTP  int
	}{
		{"缓存为管理员但已被撤销", access.New("u1", "", false, false, nil), http.StatusForbidden},
		{"管理员", access.New("u1", "", true, false, nil), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubAccessService{
				resolved:  access.New("u1", "", true, false, nil),
				refreshed: tt.refreshed,
			}
			r := newAuthEngine(p, svc, RequireAdmin(svc, zap.NewNop()))

			w := doGet(r, "Bearer "+token)

			assert.Equal(t, tt.wantHTTP, w.Code)
			assert.Equal(t, 1, svc.refreshes, "管理员路由必须绕过缓存")
		})
	}
}

// ── RateLimit ──

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.POST("/submit", RateLimit(redis.Wrap(rdb, zap.NewNop()), 2, time.Minute), func(c *gin.Context) {
		response.Created(c, nil)
	})

	var codes []int
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/submit", strings.NewReader("{}")))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)
}

func TestRateLimit_NilClientAllows(t *testing.T) {
	r := gin.New()
	r.POST("/submit", RateLimit(nil, 1, time.Minute), func(c *gin.Context) {
		response.Created(c, nil)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/submit", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
	}
}

// ── RequestID / Logger ──

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"沿用合法 ID", "req-2026_abc", true},
		{"缺失时生成", "", false},
		{"含换行时重新生成", "abc\nforged", false},
		{"过长时重新生成", strings.Repeat("a", 65), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/ping", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-ID", tt.header)
			}
			r.ServeHTTP(w, req)

			rid := w.Header().Get("X-Request-ID")
			assert.Equal(t, rid, w.Body.String())
			if tt.keep {
				assert.Equal(t, tt.header, rid)
			} else {
				assert.NotEqual(t, tt.header, rid)
				assert.Len(t, rid, 36)
			}
		})
	}
}

func TestLogger_CarriesRequestAndUser(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), Logger(zap.New(core)))
	r.GET("/api/v1/me", func(c *gin.Context) {
		c.Set(handler.ContextKeyIdentity, &identity.Identity{UserID: "u1"})
		response.OK(c, nil)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/me?x=1", nil)
	req.Header.Set("X-Request-ID", "rid-1")
	r.ServeHTTP(w, req)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "rid-1", fields["request_id"])
	assert.Equal(t, "u1", fields["user_id"])
	assert.Equal(t, "/api/v1/me", fields["route"])
	assert.Contains(t, fields, "ip")
}

func TestLogger_AnonymousChannelOmitsClientIP(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), Logger(zap.New(core)))
	r.POST("/api/v1/complaints/anonymous", func(c *gin.Context) { response.Created(c, nil) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/v1/complaints/anonymous", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, 1, logs.Len(), "健康检查不写访问日志")
	fields := logs.All()[0].ContextMap()
	assert.NotContains(t, fields, "ip")
	assert.NotContains(t, fields, "user_id")
	assert.NotEmpty(t, fields["request_id"])
}

// ── CORS / SecurityHeaders ──

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://wellness.campus.edu/"}))
	r.GET("/api", func(c *gin.Context) { c.Status(http.StatusOK) })

	preflight := func(origin string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("OPTIONS", "/api", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", "GET")
		r.ServeHTTP(w, req)
		return w
	}

	w := preflight("https://wellness.campus.edu")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://wellness.campus.edu", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Request-ID")

	w = preflight("https://evil.example")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/api", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api", nil))

	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "非 TLS 请求不设置 HSTS")
}
