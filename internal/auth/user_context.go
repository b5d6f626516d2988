package auth

import (
	"context"
	"errors"
	"time"
)

// ErrNotAuthenticated 当前上下文中没有已登录用户
var ErrNotAuthenticated = errors.New("用户未登录")

// UserContext 登录用户上下文。
// 每个请求一个实例，由 JWT 中间件在入口处填充、出口处清理。
type UserContext struct {
	ID       int64  // 用户ID
	Username string // 用户名
	Nickname string // 昵称
	Email    string // 邮箱
	Phone    string // 手机号
	Avatar   string // 头像
	DeptID   *int64 // 部门ID

	// 密码过期策略
	PwdResetTime           *time.Time // 最近一次修改密码时间
	PasswordExpirationDays int        // 密码有效期（天），<=0 表示永不过期

	Permissions map[string]struct{}      // 权限码集合
	RoleCodes   map[string]struct{}      // 角色编码集合（由 SetRoles 推导）
	Roles       map[RoleContext]struct{} // 角色集合

	TenantID   int64  // 所属租户ID
	ClientType string // 客户端类型
	ClientID   string // 客户端ID
}

// SetRoles 设置角色集合，并同步重算角色编码集合。
// RoleCodes 只能通过这里更新，保证两者永不脱节；编码为空的角色不进入
// 编码集合；结果集可能为空但绝不为 nil。
func (u *UserContext) SetRoles(roles map[RoleContext]struct{}) {
	if roles == nil {
		roles = map[RoleContext]struct{}{}
	}
	u.Roles = roles
	codes := make(map[string]struct{}, len(roles))
	for role := range roles {
		if role.Code != "" {
			codes[role.Code] = struct{}{}
		}
	}
	u.RoleCodes = codes
}

// IsSuperAdmin 是否超级管理员
func (u *UserContext) IsSuperAdmin() bool {
	_, ok := u.RoleCodes[RoleCodeSuperAdmin]
	return ok
}

// IsTenantAdmin 是否租户管理员：持有 admin 角色且当前不处于默认租户。
// 默认租户下的 admin 是系统管理员，不具有租户管理员身份；
// defaultTenant 由调用方结合租户上下文判断后传入。
func (u *UserContext) IsTenantAdmin(defaultTenant bool) bool {
	_, ok := u.RoleCodes[RoleCodeTenantAdmin]
	return ok && !defaultTenant
}

// IsPasswordExpired 密码是否已过期。
// 未设置修改时间或有效期 <=0 时永不过期；过期判定为严格早于 now，
// 恰好等于过期时刻时尚未过期。
func (u *UserContext) IsPasswordExpired(now time.Time) bool {
	if u.PwdResetTime == nil || u.PasswordExpirationDays <= 0 {
		return false
	}
	expiration := u.PwdResetTime.AddDate(0, 0, u.PasswordExpirationDays)
	return expiration.Before(now)
}

// userHolder 请求级用户上下文持有者
type userHolder struct {
	user  *UserContext
	extra *ExtraContext
}

type userHolderKey struct{}

// WithUserHolder installs a fresh user holder into ctx. The holder starts
// empty; middleware populates it after token validation and clears it when
// the request finishes.
func WithUserHolder(ctx context.Context) context.Context {
	return context.WithValue(ctx, userHolderKey{}, &userHolder{})
}

// SetUser 将当前登录用户写入上下文持有者（无持有者时忽略）
func SetUser(ctx context.Context, user *UserContext) {
	if holder, ok := ctx.Value(userHolderKey{}).(*userHolder); ok {
		holder.user = user
	}
}

// CurrentUser 获取当前登录用户，未登录时返回 nil
func CurrentUser(ctx context.Context) *UserContext {
	if holder, ok := ctx.Value(userHolderKey{}).(*userHolder); ok {
		return holder.user
	}
	return nil
}

// SetExtra 将登录附加信息写入上下文持有者（无持有者时忽略）
func SetExtra(ctx context.Context, extra *ExtraContext) {
	if holder, ok := ctx.Value(userHolderKey{}).(*userHolder); ok {
		holder.extra = extra
	}
}

// CurrentExtra 获取当前请求的登录附加信息，未设置时返回 nil
func CurrentExtra(ctx context.Context) *ExtraContext {
	if holder, ok := ctx.Value(userHolderKey{}).(*userHolder); ok {
		return holder.extra
	}
	return nil
}

// ClearUser 清空当前登录用户及附加信息（请求结束时由中间件调用）
func ClearUser(ctx context.Context) {
	if holder, ok := ctx.Value(userHolderKey{}).(*userHolder); ok {
		holder.user = nil
		holder.extra = nil
	}
}

// UserID 便捷方法：当前用户ID，未登录返回 0
func UserID(ctx context.Context) int64 {
	if user := CurrentUser(ctx); user != nil {
		return user.ID
	}
	return 0
}

// Username 便捷方法：当前用户名，未登录返回空串
func Username(ctx context.Context) string {
	if user := CurrentUser(ctx); user != nil {
		return user.Username
	}
	return ""
}

// UserTenantID 便捷方法：当前用户所属租户ID，未登录返回 0
func UserTenantID(ctx context.Context) int64 {
	if user := CurrentUser(ctx); user != nil {
		return user.TenantID
	}
	return 0
}

// IsSuperAdminUser 当前用户是否超级管理员，未登录返回 ErrNotAuthenticated
func IsSuperAdminUser(ctx context.Context) (bool, error) {
	user := CurrentUser(ctx)
	if user == nil {
		return false, ErrNotAuthenticated
	}
	return user.IsSuperAdmin(), nil
}

// IsTenantAdminUser 当前用户是否租户管理员，未登录返回 ErrNotAuthenticated
func IsTenantAdminUser(ctx context.Context, defaultTenant bool) (bool, error) {
	user := CurrentUser(ctx)
	if user == nil {
		return false, ErrNotAuthenticated
	}
	return user.IsTenantAdmin(defaultTenant), nil
}
