package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Tenant   TenantConfig   `mapstructure:"tenant"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Mode         string `mapstructure:"mode"` // debug, release, test
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 秒
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
	LogLevel        string `mapstructure:"log_level"`         // silent, error, warn, info
	SlowThresholdMs int    `mapstructure:"slow_threshold_ms"` // 慢查询阈值，默认 200
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 连接模式: standalone(单节点), sentinel(哨兵), cluster(集群)
	Mode string `mapstructure:"mode"`

	// 单节点模式配置
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// 哨兵模式配置
	MasterName       string   `mapstructure:"master_name"`
	SentinelAddrs    []string `mapstructure:"sentinel_addrs"`
	SentinelPassword string   `mapstructure:"sentinel_password"`

	// 集群模式配置
	ClusterAddrs []string `mapstructure:"cluster_addrs"`

	// 通用配置
	PoolSize     int `mapstructure:"pool_size"`
	MinIdleConns int `mapstructure:"min_idle_conns"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, /path/to/log
}

// JWTConfig JWT 令牌配置
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	Issuer        string `mapstructure:"issuer"`
	AccessExpiry  int    `mapstructure:"access_expiry"`  // 分钟，默认 1440（24小时）
	RefreshExpiry int    `mapstructure:"refresh_expiry"` // 分钟，默认 10080（7天）
}

// AccessTokenTTL 访问令牌有效期
func (c *JWTConfig) AccessTokenTTL() time.Duration {
	minutes := c.AccessExpiry
	if minutes <= 0 {
		minutes = 24 * 60
	}
	return time.Duration(minutes) * time.Minute
}

// RefreshTokenTTL 刷新令牌有效期
func (c *JWTConfig) RefreshTokenTTL() time.Duration {
	minutes := c.RefreshExpiry
	if minutes <= 0 {
		minutes = 7 * 24 * 60
	}
	return time.Duration(minutes) * time.Minute
}

// TenantConfig 多租户配置
type TenantConfig struct {
	// 请求头中租户编码键名，默认 X-Tenant-Code
	CodeHeader string `mapstructure:"code_header"`
	// 默认租户ID（0 表示默认租户）
	DefaultTenantID int64 `mapstructure:"default_tenant_id"`
	// 租户功能开关，默认启用
	Enabled *bool `mapstructure:"enabled"`
}

// HeaderName 返回租户编码请求头键名
func (c *TenantConfig) HeaderName() string {
	if c.CodeHeader == "" {
		return "X-Tenant-Code"
	}
	return c.CodeHeader
}

// IsEnabled 租户功能是否启用
func (c *TenantConfig) IsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// AuthConfig 认证配置
type AuthConfig struct {
	// 排除路径（逗号分隔，支持 /* 与 /** 通配）
	ExcludePaths string `mapstructure:"exclude_paths"`
	// 权限查询失败时的降级策略：true=降级使用令牌内权限快照，false=直接失败
	FailOpen *bool `mapstructure:"fail_open"`
	// 密码过期天数，<=0 表示永不过期
	PasswordExpirationDays int `mapstructure:"password_expiration_days"`
}

// ExcludePathList 解析排除路径列表
func (c *AuthConfig) ExcludePathList() []string {
	var paths []string
	for _, p := range strings.Split(c.ExcludePaths, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// IsFailOpen 权限查询失败时是否降级放行
func (c *AuthConfig) IsFailOpen() bool {
	if c.FailOpen == nil {
		return true
	}
	return *c.FailOpen
}

var globalConfig *Config

// Load 加载配置
// env: 环境名称（dev, prod, test）
// configPath: 配置文件路径（可选）
func Load(env string, configPath string) (*Config, error) {
	v := viper.New()

	if configPath == "" {
		v.SetConfigName(env) // dev.yaml, prod.yaml
		v.AddConfigPath("./config")
		v.AddConfigPath("../config")
		v.AddConfigPath("../../config")
	} else {
		v.SetConfigFile(configPath)
	}

	v.SetConfigType("yaml")

	// 读取环境变量（优先级高于配置文件）
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 支持嵌套配置：APP_DATABASE_HOST

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("配置未初始化，请先调用 Load()")
	}
	return globalConfig
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
