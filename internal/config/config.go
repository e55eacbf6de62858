package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/pharmadesk/internal/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Queue     QueueConfig     `mapstructure:"queue"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Security  SecurityConfig  `mapstructure:"security"`
	Inventory InventoryConfig `mapstructure:"inventory"`
	Billing   BillingConfig   `mapstructure:"billing"`
	POS       POSConfig       `mapstructure:"pos"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	Level      string `mapstructure:"level"`
}

// ToLoggerOptions 转换为指定进程组件的 logger 配置
func (c LogConfig) ToLoggerOptions(component string) logger.Options {
	return logger.Options{
		Level:      c.Level,
		Component:  component,
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// Addr Redis 地址，缺省 127.0.0.1:6379
func (c RedisConfig) Addr() string {
	return redisAddr(c.Host, c.Port)
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
	// AlertDedupSeconds 同一药品库存预警任务的去重窗口
	AlertDedupSeconds int `mapstructure:"alert_dedup_seconds"`
}

// Addr 队列 Redis 地址，缺省 127.0.0.1:6379
func (c QueueConfig) Addr() string {
	return redisAddr(c.Host, c.Port)
}

func redisAddr(host string, port int) string {
	host = strings.TrimSpace(host)
	if host == "" {
		host = "127.0.0.1"
	}
	if port <= 0 {
		port = 6379
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig 接口限流配置
type RateLimitConfig struct {
	Search  RateLimitRuleConfig `mapstructure:"search"`
	Billing RateLimitRuleConfig `mapstructure:"billing"`
}

// RateLimitRuleConfig 单条限流规则
type RateLimitRuleConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// InventoryConfig 库存规则配置
type InventoryConfig struct {
	LowStockThreshold         int `mapstructure:"low_stock_threshold"`
	ExpiringWindowDays        int `mapstructure:"expiring_window_days"`
	ExpiryScanIntervalMinutes int `mapstructure:"expiry_scan_interval_minutes"`
	SearchCacheSeconds        int `mapstructure:"search_cache_seconds"`
}

// ExpiringWindow 临期判定窗口
func (c InventoryConfig) ExpiringWindow() time.Duration {
	days := c.ExpiringWindowDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

// BillingConfig 收银配置
type BillingConfig struct {
	TaxRate string `mapstructure:"tax_rate"`
}

// TaxRateDecimal 解析税率，非法值回退为 5%
func (c BillingConfig) TaxRateDecimal() decimal.Decimal {
	fallback := decimal.RequireFromString("0.05")
	raw := strings.TrimSpace(c.TaxRate)
	if raw == "" {
		return fallback
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil || rate.IsNegative() {
		return fallback
	}
	return rate
}

// POSConfig 收银终端配置
type POSConfig struct {
	BaseURL               string `mapstructure:"base_url"`
	SearchDebounceMS      int    `mapstructure:"search_debounce_ms"`
	MinQueryLength        int    `mapstructure:"min_query_length"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
}

// SearchDebounce 搜索防抖间隔
func (c POSConfig) SearchDebounce() time.Duration {
	if c.SearchDebounceMS <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(c.SearchDebounceMS) * time.Millisecond
}

// RequestTimeout 单次请求超时
func (c POSConfig) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "pharmadesk.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("log.level", "")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/pharmadesk.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "pd")
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 5)
	v.SetDefault("queue.alert_dedup_seconds", 300)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.rate_limit.search.window_seconds", 10)
	v.SetDefault("security.rate_limit.search.max_requests", 50)
	v.SetDefault("security.rate_limit.billing.window_seconds", 60)
	v.SetDefault("security.rate_limit.billing.max_requests", 30)
	v.SetDefault("inventory.low_stock_threshold", 20)
	v.SetDefault("inventory.expiring_window_days", 30)
	v.SetDefault("inventory.expiry_scan_interval_minutes", 60)
	v.SetDefault("inventory.search_cache_seconds", 30)
	v.SetDefault("billing.tax_rate", "0.05")
	v.SetDefault("pos.base_url", "http://127.0.0.1:5000")
	v.SetDefault("pos.search_debounce_ms", 300)
	v.SetDefault("pos.min_query_length", 2)
	v.SetDefault("pos.request_timeout_seconds", 10)
}

// Load 从 config.yml 加载配置
func Load() *Config {
	cfg, err := LoadWith(viper.GetViper(), "")
	if err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	return cfg
}

// LoadWith 使用指定 viper 实例加载配置，file 为空时按默认路径查找
func LoadWith(v *viper.Viper, file string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	if strings.TrimSpace(file) != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")     // 从当前目录查找
		v.AddConfigPath("../")   // 如果从 cmd/server 运行
		v.AddConfigPath("./etc") // etc 文件夹
	}

	setDefaults(v)

	// 环境变量支持（server.port -> SERVER_PORT）
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
