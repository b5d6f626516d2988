package rbac_test

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"flowmaster/internal/auth"
	"flowmaster/internal/rbac"
	"flowmaster/internal/tenant"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// 数据集：
//
//	租户1: 用户100 持有角色10(editor)、角色11(auditor)；角色10/11 共享菜单1
//	租户2: 用户100 持有角色20(editor)
//	用户200 持有角色30(super_admin)（租户1）
//	菜单: 1=system:user:list(启用) 2=system:user:add(启用) 3=system:secret(禁用)
//	      4=权限码为空(启用) 5=other:report(启用，仅角色20)
func setupResolverTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:rbac_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("init sqlite failed: %v", err)
	}

	stmts := []string{
		`CREATE TABLE sys_role (id INTEGER PRIMARY KEY, name TEXT, code TEXT, data_scope INTEGER, description TEXT, sort INTEGER, tenant_id INTEGER, create_time TIMESTAMP)`,
		`CREATE TABLE sys_menu (id INTEGER PRIMARY KEY, title TEXT, parent_id INTEGER, type INTEGER, path TEXT, name TEXT, component TEXT, permission TEXT, icon TEXT, is_hidden BOOLEAN, sort INTEGER, status INTEGER)`,
		`CREATE TABLE sys_user_role (id INTEGER PRIMARY KEY, user_id INTEGER, role_id INTEGER, tenant_id INTEGER)`,
		`CREATE TABLE sys_role_menu (role_id INTEGER, menu_id INTEGER, PRIMARY KEY (role_id, menu_id))`,

		`INSERT INTO sys_role (id, name, code, data_scope, tenant_id) VALUES
			(10, '编辑', 'editor', 1, 1),
			(11, '审计', 'auditor', 1, 1),
			(20, '编辑', 'editor', 1, 2),
			(30, '超管', 'super_admin', 1, 1)`,

		`INSERT INTO sys_menu (id, title, type, permission, status) VALUES
			(1, '用户列表', 3, 'system:user:list', 1),
			(2, '用户新增', 3, 'system:user:add', 1),
			(3, '敏感功能', 3, 'system:secret', 2),
			(4, '目录', 1, '', 1),
			(5, '报表', 3, 'other:report', 1)`,

		`INSERT INTO sys_user_role (user_id, role_id, tenant_id) VALUES
			(100, 10, 1),
			(100, 11, 1),
			(100, 20, 2),
			(200, 30, 1)`,

		`INSERT INTO sys_role_menu (role_id, menu_id) VALUES
			(10, 1), (10, 2), (10, 3), (10, 4),
			(11, 1),
			(20, 2), (20, 5)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("setup failed: %v", err)
		}
	}
	return db
}

func tenantCtx(id int64) context.Context {
	ctx, holder := tenant.WithContext(context.Background())
	holder.SetTenantID(id)
	return ctx
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestListPermissionsFiltersByTenant(t *testing.T) {
	resolver := rbac.NewResolver(setupResolverTestDB(t))

	perms, err := resolver.ListPermissionsByUserID(tenantCtx(1), 100)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	want := []string{"system:user:add", "system:user:list"}
	got := sortedKeys(perms)
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("tenant 1 permissions: expected %v, got %v", want, got)
	}

	perms, err = resolver.ListPermissionsByUserID(tenantCtx(2), 100)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	want = []string{"other:report", "system:user:add"}
	got = sortedKeys(perms)
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("tenant 2 permissions: expected %v, got %v", want, got)
	}
}

func TestListPermissionsDeduplicatesSharedMenus(t *testing.T) {
	resolver := rbac.NewResolver(setupResolverTestDB(t))

	// 角色10与角色11都指向菜单1，权限码只出现一次
	perms, err := resolver.ListPermissionsByUserID(tenantCtx(1), 100)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(perms) != 2 {
		t.Fatalf("expected 2 distinct permissions, got %v", sortedKeys(perms))
	}
}

func TestListPermissionsSkipsDisabledAndBlank(t *testing.T) {
	resolver := rbac.NewResolver(setupResolverTestDB(t))

	perms, err := resolver.ListPermissionsByUserID(tenantCtx(1), 100)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if _, ok := perms["system:secret"]; ok {
		t.Fatalf("disabled menu permission must be filtered")
	}
	if _, ok := perms[""]; ok {
		t.Fatalf("blank permission must be filtered")
	}
}

func TestListPermissionsSuperAdminBypass(t *testing.T) {
	resolver := rbac.NewResolver(setupResolverTestDB(t))

	// 超管未关联任何业务菜单，仍返回全系统启用菜单的全部权限码
	perms, err := resolver.ListPermissionsByUserID(tenantCtx(1), 200)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	want := []string{"other:report", "system:user:add", "system:user:list"}
	got := sortedKeys(perms)
	if len(got) != len(want) {
		t.Fatalf("expected all enabled permissions %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestListPermissionsNoRoles(t *testing.T) {
	resolver := rbac.NewResolver(setupResolverTestDB(t))

	perms, err := resolver.ListPermissionsByUserID(tenantCtx(1), 999)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if perms == nil || len(perms) != 0 {
		t.Fatalf("expected empty non-nil set, got %v", perms)
	}
}

func TestListByUserIDFiltersByTenant(t *testing.T) {
	resolver := rbac.NewResolver(setupResolverTestDB(t))

	roles, err := resolver.ListByUserID(tenantCtx(1), 100)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("expected 2 roles in tenant 1, got %d", len(roles))
	}
	if _, ok := roles[auth.RoleContext{ID: 10, Code: "editor", Name: "编辑", DataScope: 1}]; !ok {
		t.Fatalf("expected editor role context, got %v", roles)
	}

	roles, err = resolver.ListByUserID(tenantCtx(2), 100)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(roles) != 1 {
		t.Fatalf("expected 1 role in tenant 2, got %d", len(roles))
	}
}

func TestRoleCodesByUserID(t *testing.T) {
	resolver := rbac.NewResolver(setupResolverTestDB(t))

	codes, err := resolver.RoleCodesByUserID(tenantCtx(1), 100)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	want := []string{"auditor", "editor"}
	got := sortedKeys(codes)
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRoleCodesSkipBlankCodes(t *testing.T) {
	db := setupResolverTestDB(t)
	stmts := []string{
		`INSERT INTO sys_role (id, name, code, data_scope, tenant_id) VALUES (12, '未命名', '', 1, 1)`,
		`INSERT INTO sys_user_role (user_id, role_id, tenant_id) VALUES (100, 12, 1)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("setup failed: %v", err)
		}
	}
	resolver := rbac.NewResolver(db)

	codes, err := resolver.RoleCodesByUserID(tenantCtx(1), 100)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if _, ok := codes[""]; ok {
		t.Fatalf("blank role code must be filtered, got %v", sortedKeys(codes))
	}
	if len(codes) != 2 {
		t.Fatalf("expected auditor and editor only, got %v", sortedKeys(codes))
	}
}

func TestListMenuIDsByUserID(t *testing.T) {
	resolver := rbac.NewResolver(setupResolverTestDB(t))

	ids, err := resolver.ListMenuIDsByUserID(tenantCtx(1), 100)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	// 菜单3被禁用，不在结果中；目录菜单4保留（路由树需要）
	want := map[int64]bool{1: true, 2: true, 4: true}
	if len(ids) != len(want) {
		t.Fatalf("expected %d menus, got %v", len(want), ids)
	}
	for _, id := range ids {
		if !want[id] {
			t.Fatalf("unexpected menu id %d", id)
		}
	}
}

func TestListMenuIDsSuperAdmin(t *testing.T) {
	resolver := rbac.NewResolver(setupResolverTestDB(t))

	ids, err := resolver.ListMenuIDsByUserID(tenantCtx(1), 200)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(ids) != 4 { // 全部启用菜单: 1,2,4,5
		t.Fatalf("expected 4 enabled menus, got %v", ids)
	}
}
