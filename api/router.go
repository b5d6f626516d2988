package api

import (
	"net/http"

	"flowmaster/internal/auth"
	"flowmaster/internal/config"
	"flowmaster/internal/middleware"
	"flowmaster/internal/rbac"
	"flowmaster/internal/tenant"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 登录入口本身免认证
var authExcludePaths = []string{"/auth/login", "/auth/refresh"}

// SetupRouter 组装路由与中间件。
// 中间件按执行顺序注册：请求ID → 恢复 → JWT 认证 → 租户 → CORS。
func SetupRouter(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL(), cfg.JWT.RefreshTokenTTL())
	resolver := rbac.NewResolver(db)
	users := rbac.NewUserStore(db)
	clients := rbac.NewClientStore(db)
	var online *auth.OnlineStore
	if redisClient != nil {
		online = auth.NewOnlineStore(redisClient)
	}
	authenticator := auth.NewAuthenticator(tokens, users, clients, resolver, online, cfg.Auth.PasswordExpirationDays)
	accountLogin := auth.NewAccountLoginHandler(authenticator, users, clients)
	props := tenant.NewProperties(&cfg.Tenant)
	tenants := tenant.NewStore(db)
	handler := NewAuthHandler(accountLogin, authenticator, resolver)

	excludePaths := append(append([]string{}, authExcludePaths...), cfg.Auth.ExcludePathList()...)

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.Use(gin.Recovery())
	r.Use(middleware.JWTAuthMiddleware(middleware.JWTAuthOptions{
		Tokens:       tokens,
		Online:       online,
		Resolver:     resolver,
		ExcludePaths: excludePaths,
		FailOpen:     cfg.Auth.IsFailOpen(),
	}))
	r.Use(middleware.TenantMiddleware(tenants, props))
	r.Use(middleware.CORS(nil))

	r.GET("/health", healthHandler(db, redisClient))

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", handler.Login)
		authGroup.POST("/logout", handler.Logout)
		authGroup.POST("/refresh", handler.Refresh)
		authGroup.GET("/user/info", handler.UserInfo)
		authGroup.GET("/user/route", handler.UserRoute)
	}

	return r
}

// healthHandler 健康检查：上报数据库与 Redis 连通性
func healthHandler(db *gorm.DB, redisClient redis.UniversalClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{"status": "ok"}

		if db != nil {
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				status["database"] = "down"
				status["status"] = "degraded"
			} else {
				status["database"] = "up"
			}
		}
		if redisClient != nil {
			if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
				status["redis"] = "down"
				status["status"] = "degraded"
			} else {
				status["redis"] = "up"
			}
		}

		c.JSON(http.StatusOK, status)
	}
}
