package auth

import (
	"context"
	"errors"
	"time"
)

// 存储层未命中错误，由具体实现返回
var (
	ErrUserNotFound   = errors.New("用户不存在")
	ErrClientNotFound = errors.New("客户端不存在")
)

// 账号状态
const (
	UserStatusEnabled  = 1
	UserStatusDisabled = 2
)

// UserRecord 持久层用户快照，登录与令牌刷新使用
type UserRecord struct {
	ID           int64
	Username     string
	Nickname     string
	Password     string // 密文，支持 {bcrypt} 前缀
	Email        string
	Phone        string
	Avatar       string
	DeptID       *int64
	Status       int
	TenantID     int64
	PwdResetTime *time.Time
}

// ClientRecord 客户端快照（登录端校验）
type ClientRecord struct {
	ClientID   string
	ClientType string
	AuthType   string
	Timeout    int64
	Status     int
}

// UserStore 用户查询
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*UserRecord, error)
	GetByUsername(ctx context.Context, username string) (*UserRecord, error)
}

// ClientStore 客户端查询
type ClientStore interface {
	GetByClientID(ctx context.Context, clientID string) (*ClientRecord, error)
}

// PermissionResolver 权限与角色解析
type PermissionResolver interface {
	ListPermissionsByUserID(ctx context.Context, userID int64) (map[string]struct{}, error)
	ListByUserID(ctx context.Context, userID int64) (map[RoleContext]struct{}, error)
}
