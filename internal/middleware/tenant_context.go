package middleware

import (
	"context"
	"errors"
	"fmt"

	"flowmaster/internal/common"
	"flowmaster/internal/logger"
	"flowmaster/internal/tenant"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TenantStore 租户编码解析
type TenantStore interface {
	GetIDByCode(ctx context.Context, code string) (int64, error)
}

// TenantMiddleware 租户上下文中间件。
// 生效优先级：请求头显式指定的租户编码 > 令牌断言的租户 > 默认租户。
// 无论请求以何种方式结束，出口处清空租户持有者。
func TenantMiddleware(store TenantStore, props *tenant.Properties) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		holder := tenant.FromContext(ctx)
		if holder == nil {
			// 上游未安装持有者时兜底安装（独立使用本中间件的场景）
			ctx, holder = tenant.WithContext(ctx)
			c.Request = c.Request.WithContext(ctx)
		}
		defer holder.Clear()

		if !props.Enabled() {
			holder.SetTenantID(props.DefaultTenantID)
			c.Next()
			return
		}

		code := c.GetHeader(props.CodeHeader)
		switch {
		case code != "":
			id, err := store.GetIDByCode(ctx, code)
			if err != nil {
				if errors.Is(err, tenant.ErrTenantNotFound) {
					common.ResponseBusinessError(c, common.NewBusinessError(
						common.CodeTenantNotFound,
						fmt.Sprintf("编码为 [%s] 的租户不存在", code),
					))
					c.Abort()
					return
				}
				logger.Error("解析租户编码失败",
					zap.String("tenant_code", code),
					zap.Error(err),
				)
				common.ResponseServerError(c, "")
				c.Abort()
				return
			}
			holder.SetTenantID(id)
			holder.SetTenantCode(code)

		case holder.IsSet() && *holder.TenantID() != 0:
			// 沿用令牌断言的租户；0 是默认租户哨兵值，视同未指定

		default:
			holder.SetTenantID(props.DefaultTenantID)
		}

		c.Next()
	}
}
