package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"flowmaster/internal/common"
	"flowmaster/internal/config"
	"flowmaster/internal/middleware"
	"flowmaster/internal/tenant"

	"github.com/gin-gonic/gin"
)

type fakeTenantStore struct {
	byCode map[string]int64
	err    error
}

func (s *fakeTenantStore) GetIDByCode(_ context.Context, code string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	if id, ok := s.byCode[code]; ok {
		return id, nil
	}
	return 0, tenant.ErrTenantNotFound
}

func defaultProps() *tenant.Properties {
	return tenant.NewProperties(&config.TenantConfig{DefaultTenantID: 0})
}

func newTenantRouter(store middleware.TenantStore, props *tenant.Properties, observed *[]int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.TenantMiddleware(store, props))
	r.GET("/ping", func(c *gin.Context) {
		if id := tenant.TenantID(c.Request.Context()); id != nil {
			*observed = append(*observed, *id)
		}
		c.Status(http.StatusOK)
	})
	return r
}

func TestTenantMiddlewareResolvesHeaderCode(t *testing.T) {
	var observed []int64
	store := &fakeTenantStore{byCode: map[string]int64{"acme": 7}}
	r := newTenantRouter(store, defaultProps(), &observed)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Tenant-Code", "acme")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if len(observed) != 1 || observed[0] != 7 {
		t.Fatalf("expected tenant 7 in handler, got %v", observed)
	}
}

func TestTenantMiddlewareUnknownCode(t *testing.T) {
	var observed []int64
	store := &fakeTenantStore{byCode: map[string]int64{}}
	r := newTenantRouter(store, defaultProps(), &observed)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Tenant-Code", "ghost")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	// 业务错误走 HTTP 200 + 响应体错误码的约定
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body common.APIResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if body.Success || body.Code != common.CodeTenantNotFound {
		t.Fatalf("expected tenant-not-found business error, got %+v", body)
	}
	if !strings.Contains(body.Message, "编码为 [ghost] 的租户不存在") {
		t.Fatalf("message must name the offending code, got %q", body.Message)
	}
	if len(observed) != 0 {
		t.Fatalf("handler must not run on unknown tenant")
	}
}

func TestTenantMiddlewareStoreFailure(t *testing.T) {
	var observed []int64
	store := &fakeTenantStore{err: errors.New("db down")}
	r := newTenantRouter(store, defaultProps(), &observed)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Tenant-Code", "acme")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestTenantMiddlewarePreservesTokenTenant(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var observed []int64

	r := gin.New()
	// 模拟 JWT 中间件：安装持有者并写入令牌断言的租户
	r.Use(func(c *gin.Context) {
		ctx, holder := tenant.WithContext(c.Request.Context())
		holder.SetTenantID(5)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	r.Use(middleware.TenantMiddleware(&fakeTenantStore{byCode: map[string]int64{"acme": 7}}, defaultProps()))
	r.GET("/ping", func(c *gin.Context) {
		if id := tenant.TenantID(c.Request.Context()); id != nil {
			observed = append(observed, *id)
		}
		c.Status(http.StatusOK)
	})

	// 无请求头：沿用令牌租户
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	if len(observed) != 1 || observed[0] != 5 {
		t.Fatalf("expected token tenant 5, got %v", observed)
	}

	// 显式请求头优先于令牌租户
	observed = nil
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Tenant-Code", "acme")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if len(observed) != 1 || observed[0] != 7 {
		t.Fatalf("expected header tenant 7 to win, got %v", observed)
	}
}

func TestTenantMiddlewareReplacesSentinelTokenTenant(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var observed []int64

	props := tenant.NewProperties(&config.TenantConfig{DefaultTenantID: 9})
	r := gin.New()
	// 令牌断言的租户是哨兵值 0，应被替换为配置的默认租户
	r.Use(func(c *gin.Context) {
		ctx, holder := tenant.WithContext(c.Request.Context())
		holder.SetTenantID(0)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	r.Use(middleware.TenantMiddleware(&fakeTenantStore{}, props))
	r.GET("/ping", func(c *gin.Context) {
		if id := tenant.TenantID(c.Request.Context()); id != nil {
			observed = append(observed, *id)
		}
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
	if len(observed) != 1 || observed[0] != 9 {
		t.Fatalf("expected configured default tenant 9, got %v", observed)
	}
}

func TestTenantMiddlewareDefaultFallback(t *testing.T) {
	var observed []int64
	props := tenant.NewProperties(&config.TenantConfig{DefaultTenantID: 0})
	r := newTenantRouter(&fakeTenantStore{}, props, &observed)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if len(observed) != 1 || observed[0] != 0 {
		t.Fatalf("expected default tenant 0, got %v", observed)
	}
}

func TestTenantMiddlewareClearsHolderAfterRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var holder *tenant.Context

	r := gin.New()
	r.Use(func(c *gin.Context) {
		ctx, h := tenant.WithContext(c.Request.Context())
		holder = h
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	r.Use(middleware.TenantMiddleware(&fakeTenantStore{byCode: map[string]int64{"acme": 7}}, defaultProps()))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Tenant-Code", "acme")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if holder.IsSet() {
		t.Fatalf("holder must be cleared after a successful request")
	}

	// panic 也要清理（Recovery 在外层，defer 仍然执行）
	r2 := gin.New()
	r2.Use(gin.Recovery())
	r2.Use(func(c *gin.Context) {
		ctx, h := tenant.WithContext(c.Request.Context())
		holder = h
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	r2.Use(middleware.TenantMiddleware(&fakeTenantStore{byCode: map[string]int64{"acme": 7}}, defaultProps()))
	r2.GET("/boom", func(c *gin.Context) { panic("boom") })

	req = httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Tenant-Code", "acme")
	r2.ServeHTTP(httptest.NewRecorder(), req)
	if holder.IsSet() {
		t.Fatalf("holder must be cleared after panic")
	}
}

func TestTenantMiddlewareDisabledFeature(t *testing.T) {
	var observed []int64
	disabled := false
	props := tenant.NewProperties(&config.TenantConfig{DefaultTenantID: 0, Enabled: &disabled})
	r := newTenantRouter(&fakeTenantStore{byCode: map[string]int64{"acme": 7}}, props, &observed)

	// 功能关闭时请求头被忽略，一律默认租户
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Tenant-Code", "acme")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if len(observed) != 1 || observed[0] != 0 {
		t.Fatalf("expected default tenant with feature disabled, got %v", observed)
	}
}
