package rbac

import "time"

// 通用状态
const (
	StatusEnabled  = 1
	StatusDisabled = 2
)

// 菜单类型
const (
	MenuTypeDir    = 1 // 目录
	MenuTypeMenu   = 2 // 菜单
	MenuTypeButton = 3 // 按钮
)

// User 用户表
type User struct {
	ID           int64      `gorm:"column:id;primaryKey"`
	Username     string     `gorm:"column:username"`
	Nickname     string     `gorm:"column:nickname"`
	Password     string     `gorm:"column:password"`
	Email        string     `gorm:"column:email"`
	Phone        string     `gorm:"column:phone"`
	Avatar       string     `gorm:"column:avatar"`
	DeptID       *int64     `gorm:"column:dept_id"`
	Status       int        `gorm:"column:status"`
	IsSystemData bool       `gorm:"column:is_system_data"`
	PwdResetTime *time.Time `gorm:"column:pwd_reset_time"`
	TenantID     int64      `gorm:"column:tenant_id"`
	CreateTime   time.Time  `gorm:"column:create_time;autoCreateTime"`
	UpdateTime   time.Time  `gorm:"column:update_time;autoUpdateTime"`
}

// TableName 指定表名
func (User) TableName() string { return "sys_user" }

// Role 角色表
type Role struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	Name        string    `gorm:"column:name"`
	Code        string    `gorm:"column:code"`
	DataScope   int       `gorm:"column:data_scope"`
	Description string    `gorm:"column:description"`
	Sort        int       `gorm:"column:sort"`
	TenantID    int64     `gorm:"column:tenant_id"`
	CreateTime  time.Time `gorm:"column:create_time;autoCreateTime"`
}

// TableName 指定表名
func (Role) TableName() string { return "sys_role" }

// Menu 菜单表（permission 字段即权限码，如 system:user:list）
type Menu struct {
	ID         int64  `gorm:"column:id;primaryKey"`
	Title      string `gorm:"column:title"`
	ParentID   int64  `gorm:"column:parent_id"`
	Type       int    `gorm:"column:type"`
	Path       string `gorm:"column:path"`
	Name       string `gorm:"column:name"`
	Component  string `gorm:"column:component"`
	Permission string `gorm:"column:permission"`
	Icon       string `gorm:"column:icon"`
	IsHidden   bool   `gorm:"column:is_hidden"`
	Sort       int    `gorm:"column:sort"`
	Status     int    `gorm:"column:status"`
}

// TableName 指定表名
func (Menu) TableName() string { return "sys_menu" }

// UserRole 用户角色关联表（携带租户维度）
type UserRole struct {
	ID       int64 `gorm:"column:id;primaryKey"`
	UserID   int64 `gorm:"column:user_id"`
	RoleID   int64 `gorm:"column:role_id"`
	TenantID int64 `gorm:"column:tenant_id"`
}

// TableName 指定表名
func (UserRole) TableName() string { return "sys_user_role" }

// RoleMenu 角色菜单关联表
type RoleMenu struct {
	RoleID int64 `gorm:"column:role_id;primaryKey"`
	MenuID int64 `gorm:"column:menu_id;primaryKey"`
}

// TableName 指定表名
func (RoleMenu) TableName() string { return "sys_role_menu" }

// Tenant 租户表
type Tenant struct {
	ID         int64      `gorm:"column:id;primaryKey"`
	Name       string     `gorm:"column:name"`
	TenantCode string     `gorm:"column:tenant_code"`
	Domain     string     `gorm:"column:domain"`
	ExpireTime *time.Time `gorm:"column:expire_time"`
	Status     int        `gorm:"column:status"`
	IsDeleted  bool       `gorm:"column:is_deleted"`
	CreateTime time.Time  `gorm:"column:create_time;autoCreateTime"`
}

// TableName 指定表名
func (Tenant) TableName() string { return "sys_tenant" }

// Client 客户端表（登录端：PC、小程序等）
type Client struct {
	ID            int64  `gorm:"column:id;primaryKey"`
	ClientID      string `gorm:"column:client_id"`
	ClientKey     string `gorm:"column:client_key"`
	ClientType    string `gorm:"column:client_type"`
	AuthType      string `gorm:"column:auth_type"`
	ActiveTimeout int64  `gorm:"column:active_timeout"`
	Timeout       int64  `gorm:"column:timeout"`
	Status        int    `gorm:"column:status"`
}

// TableName 指定表名
func (Client) TableName() string { return "sys_client" }
