package tenant

import (
	"context"

	"flowmaster/internal/config"
)

// Properties 多租户扩展配置
type Properties struct {
	// 请求头中携带租户编码的键名
	CodeHeader string
	// 默认租户ID
	DefaultTenantID int64
	// 租户功能开关
	enabled bool
}

// NewProperties 从应用配置构建租户属性
func NewProperties(cfg *config.TenantConfig) *Properties {
	return &Properties{
		CodeHeader:      cfg.HeaderName(),
		DefaultTenantID: cfg.DefaultTenantID,
		enabled:         cfg.IsEnabled(),
	}
}

// Enabled 租户功能是否启用
func (p *Properties) Enabled() bool {
	return p.enabled
}

// IsDefaultTenant 当前上下文是否属于默认租户
func (p *Properties) IsDefaultTenant(ctx context.Context) bool {
	id := TenantID(ctx)
	return id == nil || *id == p.DefaultTenantID
}
