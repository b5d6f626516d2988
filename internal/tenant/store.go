package tenant

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrTenantNotFound 租户不存在（编码无效或已禁用/删除）
var ErrTenantNotFound = errors.New("租户不存在")

const statusEnabled = 1

// tenantRow sys_tenant 表的查询投影
type tenantRow struct {
	ID int64 `gorm:"column:id"`
}

// Store 租户查询（编码 → ID）
type Store struct {
	db *gorm.DB
}

// NewStore 创建租户查询器
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetIDByCode 根据租户编码查询租户ID。
// 仅匹配启用且未删除的租户，未命中返回 ErrTenantNotFound。
func (s *Store) GetIDByCode(ctx context.Context, code string) (int64, error) {
	var row tenantRow
	err := s.db.WithContext(ctx).
		Table("sys_tenant").
		Select("id").
		Where("tenant_code = ? AND status = ? AND is_deleted = ?", code, statusEnabled, false).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrTenantNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("查询租户失败: %w", err)
	}
	return row.ID, nil
}
