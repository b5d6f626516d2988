package rbac

import (
	"context"
	"fmt"

	"flowmaster/internal/auth"
	"flowmaster/internal/tenant"

	"gorm.io/gorm"
)

// Resolver 权限与角色查询。
// 所有查询遵循当前租户上下文：租户已设置时在 sys_user_role / sys_role
// 上按 tenant_id 过滤，保证跨租户数据互不可见。
type Resolver struct {
	db *gorm.DB
}

// NewResolver 创建权限查询器
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// roleIDsByUserID 当前租户下用户持有的角色ID
func (r *Resolver) roleIDsByUserID(ctx context.Context, userID int64) ([]int64, error) {
	query := r.db.WithContext(ctx).
		Model(&UserRole{}).
		Where("user_id = ?", userID)
	if tenantID := tenant.TenantID(ctx); tenantID != nil {
		query = query.Where("tenant_id = ?", *tenantID)
	}

	var roleIDs []int64
	if err := query.Pluck("role_id", &roleIDs).Error; err != nil {
		return nil, fmt.Errorf("查询用户角色关联失败: %w", err)
	}
	return roleIDs, nil
}

// ListByUserID 查询用户在当前租户下的角色集合
func (r *Resolver) ListByUserID(ctx context.Context, userID int64) (map[auth.RoleContext]struct{}, error) {
	query := r.db.WithContext(ctx).
		Model(&Role{}).
		Joins("JOIN sys_user_role ON sys_user_role.role_id = sys_role.id").
		Where("sys_user_role.user_id = ?", userID)
	if tenantID := tenant.TenantID(ctx); tenantID != nil {
		query = query.Where("sys_role.tenant_id = ? AND sys_user_role.tenant_id = ?", *tenantID, *tenantID)
	}

	var rows []Role
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询用户角色失败: %w", err)
	}

	roles := make(map[auth.RoleContext]struct{}, len(rows))
	for _, row := range rows {
		roles[auth.RoleContext{
			ID:        row.ID,
			Code:      row.Code,
			Name:      row.Name,
			DataScope: row.DataScope,
		}] = struct{}{}
	}
	return roles, nil
}

// RoleCodesByUserID 查询用户在当前租户下的角色编码集合
func (r *Resolver) RoleCodesByUserID(ctx context.Context, userID int64) (map[string]struct{}, error) {
	roles, err := r.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	codes := make(map[string]struct{}, len(roles))
	for role := range roles {
		if role.Code != "" {
			codes[role.Code] = struct{}{}
		}
	}
	return codes, nil
}

// ListPermissionsByUserID 查询用户权限码集合。
// 超级管理员直接返回全系统所有启用菜单的权限码；普通用户沿
// 用户→角色→角色菜单→菜单 的关联链取启用菜单的非空权限码，去重返回。
func (r *Resolver) ListPermissionsByUserID(ctx context.Context, userID int64) (map[string]struct{}, error) {
	codes, err := r.RoleCodesByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, ok := codes[auth.RoleCodeSuperAdmin]; ok {
		return r.allPermissions(ctx)
	}

	roleIDs, err := r.roleIDsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(roleIDs) == 0 {
		return map[string]struct{}{}, nil
	}

	var permissions []string
	err = r.db.WithContext(ctx).
		Model(&Menu{}).
		Distinct("sys_menu.permission").
		Joins("JOIN sys_role_menu ON sys_role_menu.menu_id = sys_menu.id").
		Where("sys_role_menu.role_id IN ?", roleIDs).
		Where("sys_menu.status = ? AND sys_menu.permission <> ''", StatusEnabled).
		Pluck("sys_menu.permission", &permissions).Error
	if err != nil {
		return nil, fmt.Errorf("查询用户权限失败: %w", err)
	}
	return toSet(permissions), nil
}

// allPermissions 全系统所有启用菜单的权限码（超级管理员）
func (r *Resolver) allPermissions(ctx context.Context) (map[string]struct{}, error) {
	var permissions []string
	err := r.db.WithContext(ctx).
		Model(&Menu{}).
		Distinct("permission").
		Where("status = ? AND permission <> ''", StatusEnabled).
		Pluck("permission", &permissions).Error
	if err != nil {
		return nil, fmt.Errorf("查询全量权限失败: %w", err)
	}
	return toSet(permissions), nil
}

// ListMenuIDsByUserID 查询用户可见的启用菜单ID（用于前端路由构建）。
// 超级管理员返回全部启用菜单。
func (r *Resolver) ListMenuIDsByUserID(ctx context.Context, userID int64) ([]int64, error) {
	codes, err := r.RoleCodesByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var menuIDs []int64
	if _, ok := codes[auth.RoleCodeSuperAdmin]; ok {
		err = r.db.WithContext(ctx).
			Model(&Menu{}).
			Where("status = ?", StatusEnabled).
			Pluck("id", &menuIDs).Error
		if err != nil {
			return nil, fmt.Errorf("查询全量菜单失败: %w", err)
		}
		return menuIDs, nil
	}

	roleIDs, err := r.roleIDsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(roleIDs) == 0 {
		return []int64{}, nil
	}

	err = r.db.WithContext(ctx).
		Model(&Menu{}).
		Distinct("sys_menu.id").
		Joins("JOIN sys_role_menu ON sys_role_menu.menu_id = sys_menu.id").
		Where("sys_role_menu.role_id IN ?", roleIDs).
		Where("sys_menu.status = ?", StatusEnabled).
		Pluck("sys_menu.id", &menuIDs).Error
	if err != nil {
		return nil, fmt.Errorf("查询用户菜单失败: %w", err)
	}
	return menuIDs, nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
