package auth

// 系统内置角色编码
const (
	// RoleCodeSuperAdmin 超级管理员
	RoleCodeSuperAdmin = "super_admin"
	// RoleCodeTenantAdmin 租户（系统）管理员
	RoleCodeTenantAdmin = "admin"
)

// RoleContext 角色上下文。
// 纯值类型，字段相同即视为同一角色，可直接作为 map 键实现集合语义。
type RoleContext struct {
	ID        int64  // 角色ID
	Code      string // 角色编码
	Name      string // 角色名称
	DataScope int    // 数据权限范围
}
