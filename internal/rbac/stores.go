package rbac

import (
	"context"
	"errors"
	"fmt"

	"flowmaster/internal/auth"

	"gorm.io/gorm"
)

// UserStore 用户查询（GORM 实现 auth.UserStore）
type UserStore struct {
	db *gorm.DB
}

// NewUserStore 创建用户查询器
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// GetByID 按ID查询用户
func (s *UserStore) GetByID(ctx context.Context, id int64) (*auth.UserRecord, error) {
	var user User
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return toUserRecord(&user), nil
}

// GetByUsername 按用户名查询用户
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*auth.UserRecord, error) {
	var user User
	err := s.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return toUserRecord(&user), nil
}

func toUserRecord(user *User) *auth.UserRecord {
	return &auth.UserRecord{
		ID:           user.ID,
		Username:     user.Username,
		Nickname:     user.Nickname,
		Password:     user.Password,
		Email:        user.Email,
		Phone:        user.Phone,
		Avatar:       user.Avatar,
		DeptID:       user.DeptID,
		Status:       user.Status,
		TenantID:     user.TenantID,
		PwdResetTime: user.PwdResetTime,
	}
}

// ClientStore 客户端查询（GORM 实现 auth.ClientStore）
type ClientStore struct {
	db *gorm.DB
}

// NewClientStore 创建客户端查询器
func NewClientStore(db *gorm.DB) *ClientStore {
	return &ClientStore{db: db}
}

// GetByClientID 按客户端ID查询
func (s *ClientStore) GetByClientID(ctx context.Context, clientID string) (*auth.ClientRecord, error) {
	var client Client
	err := s.db.WithContext(ctx).Where("client_id = ?", clientID).Take(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询客户端失败: %w", err)
	}
	return &auth.ClientRecord{
		ClientID:   client.ClientID,
		ClientType: client.ClientType,
		AuthType:   client.AuthType,
		Timeout:    client.Timeout,
		Status:     client.Status,
	}, nil
}
