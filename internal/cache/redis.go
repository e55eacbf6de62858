package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pharmadesk/internal/config"
	"github.com/pharmadesk/internal/logger"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "pd"
	scanBatchSize    = 200
)

// 缓存健康状态
const (
	StatusDisabled = "disabled"
	StatusUp       = "up"
	StatusDown     = "down"
)

// 未启用 Redis 时所有操作为空操作，读取一律未命中
var store struct {
	sync.RWMutex
	client *redis.Client
	prefix string
}

// InitRedis 按配置初始化 Redis 客户端
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		UseClient(nil, "")
		return nil
	}
	UseClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}), cfg.Prefix)
	return nil
}

// UseClient 直接注入 Redis 客户端（测试与嵌入场景），client 为 nil 时关闭缓存
func UseClient(client *redis.Client, prefix string) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	store.Lock()
	store.client = client
	store.prefix = prefix
	store.Unlock()
}

// Close 关闭 Redis 客户端
func Close() error {
	store.Lock()
	client := store.client
	store.client = nil
	store.Unlock()
	if client == nil {
		return nil
	}
	return client.Close()
}

// Enabled 判断缓存是否启用
func Enabled() bool {
	return Client() != nil
}

// Client 获取 Redis 客户端，未启用时返回 nil
func Client() *redis.Client {
	store.RLock()
	defer store.RUnlock()
	return store.client
}

// Status 探测缓存连通性，供健康检查使用
func Status(ctx context.Context) string {
	client := Client()
	if client == nil {
		return StatusDisabled
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warnw("cache_ping_failed", "error", err)
		return StatusDown
	}
	return StatusUp
}

// GetJSON 读取 JSON 缓存；内容无法解析时删除该 key 并按未命中处理
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	client := Client()
	if client == nil {
		return false, nil
	}
	fullKey := BuildKey(key)
	val, err := client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		logger.Warnw("cache_entry_corrupt", "key", fullKey, "error", err)
		_ = client.Del(ctx, fullKey).Err()
		return false, nil
	}
	return true, nil
}

// SetJSON 写入 JSON 缓存
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	client := Client()
	if client == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return client.Set(ctx, BuildKey(key), payload, ttl).Err()
}

// DelPrefix 按前缀批量删除缓存
func DelPrefix(ctx context.Context, prefix string) error {
	client := Client()
	if client == nil {
		return nil
	}
	iter := client.Scan(ctx, 0, BuildKey(prefix)+"*", scanBatchSize).Iterator()
	batch := make([]string, 0, scanBatchSize)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatchSize {
			if err := client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}
	return client.Del(ctx, batch...).Err()
}

// BuildKey 生成带前缀的完整 key
func BuildKey(key string) string {
	store.RLock()
	prefix := store.prefix
	store.RUnlock()
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if trimmed := strings.TrimSpace(key); trimmed != "" {
		return fmt.Sprintf("%s:%s", prefix, trimmed)
	}
	return prefix
}
