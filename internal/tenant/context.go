package tenant

import "context"

// Context carries the tenant identity through a single request lifecycle.
// A fresh instance is installed at the HTTP boundary by middleware and
// mutated in place as the tenant is resolved (token first, then header),
// so everything downstream observes the same holder.
type Context struct {
	tenantID   *int64
	tenantCode string
}

// SetTenantID 设置当前租户ID
func (c *Context) SetTenantID(id int64) {
	c.tenantID = &id
}

// TenantID 返回当前租户ID，未设置时返回 nil
func (c *Context) TenantID() *int64 {
	return c.tenantID
}

// SetTenantCode 设置当前租户编码
func (c *Context) SetTenantCode(code string) {
	c.tenantCode = code
}

// TenantCode 返回当前租户编码
func (c *Context) TenantCode() string {
	return c.tenantCode
}

// IsSet 租户ID是否已设置
func (c *Context) IsSet() bool {
	return c.tenantID != nil
}

// Clear 清空租户上下文（请求结束时由中间件调用）
func (c *Context) Clear() {
	c.tenantID = nil
	c.tenantCode = ""
}

type holderKey struct{}

// WithContext installs a fresh tenant holder into ctx and returns both the
// derived context and the holder. Middleware calls this once per request.
func WithContext(ctx context.Context) (context.Context, *Context) {
	holder := &Context{}
	return context.WithValue(ctx, holderKey{}, holder), holder
}

// FromContext retrieves the tenant holder, or nil when none was installed.
func FromContext(ctx context.Context) *Context {
	holder, _ := ctx.Value(holderKey{}).(*Context)
	return holder
}

// TenantID 便捷方法：从上下文取租户ID，未设置时返回 nil
func TenantID(ctx context.Context) *int64 {
	if holder := FromContext(ctx); holder != nil {
		return holder.TenantID()
	}
	return nil
}

// TenantCode 便捷方法：从上下文取租户编码
func TenantCode(ctx context.Context) string {
	if holder := FromContext(ctx); holder != nil {
		return holder.TenantCode()
	}
	return ""
}

// SetTenantID 便捷方法：向上下文中的持有者写入租户ID（无持有者时忽略）
func SetTenantID(ctx context.Context, id int64) {
	if holder := FromContext(ctx); holder != nil {
		holder.SetTenantID(id)
	}
}

// IsSet 便捷方法：租户ID是否已设置
func IsSet(ctx context.Context) bool {
	if holder := FromContext(ctx); holder != nil {
		return holder.IsSet()
	}
	return false
}

// Clear 便捷方法：清空上下文中的租户持有者
func Clear(ctx context.Context) {
	if holder := FromContext(ctx); holder != nil {
		holder.Clear()
	}
}
