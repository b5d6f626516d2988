package middleware

import (
	"context"
	"errors"

	"flowmaster/internal/auth"
	"flowmaster/internal/common"
	"flowmaster/internal/logger"
	"flowmaster/internal/tenant"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWTAuthOptions JWT 认证中间件依赖
type JWTAuthOptions struct {
	Tokens       *auth.TokenService
	Online       *auth.OnlineStore // 为 nil 时跳过黑名单与在线校验
	Resolver     auth.PermissionResolver
	ExcludePaths []string
	// FailOpen 权限实时查询失败时是否降级使用令牌内快照
	FailOpen bool
}

// JWTAuthMiddleware JWT 认证中间件。
// 每个请求先安装用户与租户持有者（公开路径也安装，保证下游取值语义一致），
// 随后校验令牌、检查黑名单与在线状态，并实时查询权限角色填充用户上下文。
// 请求结束时清理用户持有者，panic 也不例外。
func JWTAuthMiddleware(opts JWTAuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := auth.WithUserHolder(c.Request.Context())
		ctx, _ = tenant.WithContext(ctx)
		c.Request = c.Request.WithContext(ctx)
		defer auth.ClearUser(ctx)

		if IsPublicPath(c.Request.URL.Path, opts.ExcludePaths) {
			c.Next()
			return
		}

		token := extractToken(c)
		if token == "" {
			common.ResponseUnauthorized(c, "")
			c.Abort()
			return
		}

		claims, err := opts.Tokens.Parse(token, auth.TokenKindAccess)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				common.ResponseUnauthorized(c, "令牌已过期，请重新登录")
			default:
				common.ResponseUnauthorized(c, "无效的令牌")
			}
			c.Abort()
			return
		}

		// 签名合法但缺少身份字段的令牌一律拒绝
		if claims.UserID == 0 || claims.Username == "" {
			common.ResponseUnauthorized(c, "令牌格式错误")
			c.Abort()
			return
		}

		if opts.Online != nil {
			// Redis 故障时放行，避免缓存不可用拖垮全部请求
			if blacklisted, err := opts.Online.IsBlacklisted(ctx, token); err != nil {
				logger.Warn("查询令牌黑名单失败", zap.Error(err))
			} else if blacklisted {
				common.ResponseUnauthorized(c, "令牌已失效，请重新登录")
				c.Abort()
				return
			}

			if exists, err := opts.Online.Exists(ctx, token); err != nil {
				logger.Warn("查询在线用户记录失败", zap.Error(err))
			} else if !exists {
				common.ResponseUnauthorized(c, "您已被强制下线，请重新登录")
				c.Abort()
				return
			}
		}

		// 令牌断言的租户先行生效，租户中间件随后按请求头覆盖
		tenant.SetTenantID(ctx, claims.TenantID)

		uc := auth.UserContextFromClaims(claims)
		if err := resolveLive(ctx, opts.Resolver, uc); err != nil {
			if !opts.FailOpen {
				logger.Error("实时权限查询失败",
					zap.Int64("user_id", claims.UserID),
					zap.Error(err),
				)
				common.ResponseServerError(c, "")
				c.Abort()
				return
			}
			// 降级：沿用令牌内的权限快照
			logger.Warn("实时权限查询失败，降级使用令牌快照",
				zap.Int64("user_id", claims.UserID),
				zap.Error(err),
			)
		}

		auth.SetUser(ctx, uc)
		auth.SetExtra(ctx, auth.NewExtraContext(c.Request))
		c.Set("user_id", uc.ID)

		c.Next()
	}
}

// resolveLive 以数据库当前状态刷新权限与角色，成功时整体替换快照
func resolveLive(ctx context.Context, resolver auth.PermissionResolver, uc *auth.UserContext) error {
	if resolver == nil {
		return nil
	}
	permissions, err := resolver.ListPermissionsByUserID(ctx, uc.ID)
	if err != nil {
		return err
	}
	roles, err := resolver.ListByUserID(ctx, uc.ID)
	if err != nil {
		return err
	}
	uc.Permissions = permissions
	uc.SetRoles(roles)
	return nil
}

// extractToken 取令牌：Authorization Bearer 优先，其次 token 查询参数
func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		return auth.ExtractTokenFromBearer(header)
	}
	return c.Query("token")
}
