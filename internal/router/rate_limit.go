package router

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pharmadesk/internal/http/response"
	"github.com/pharmadesk/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	Message       string // 含一个 %d 占位（等待秒数）
}

const rateLimitedMessage = "Too many requests. Please retry in %d seconds."

// 返回 {当前计数, 剩余 TTL}
var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// RateLimitMiddleware Redis 固定窗口限流。
// Redis 不可用时放行并记录告警，不阻断柜台收银。
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	if client == nil || rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	format := rateLimitFormat(rule.Message)
	limit := strconv.Itoa(rule.MaxRequests)

	return func(c *gin.Context) {
		key := rateLimitKey(c, rule.Prefix, keyFunc)
		values, err := rateLimitScript.Run(c.Request.Context(), client, []string{key}, rule.WindowSeconds).Int64Slice()
		if err != nil || len(values) < 2 {
			logger.Warnw("rate_limit_unavailable", "key", key, "error", err)
			c.Next()
			return
		}
		count, ttl := values[0], values[1]

		remaining := int64(rule.MaxRequests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if count <= int64(rule.MaxRequests) {
			c.Next()
			return
		}

		wait := retryAfterSeconds(ttl, rule.WindowSeconds)
		c.Header("Retry-After", strconv.Itoa(wait))
		response.AbortWithError(c, response.CodeTooManyRequests, formatRateLimitMessage(format, wait))
	}
}

// rateLimitFormat 配置文案只允许一个 %d 占位；含其他格式符时回退默认文案
func rateLimitFormat(message string) string {
	message = strings.TrimSpace(message)
	if message == "" {
		return rateLimitedMessage
	}
	rest := strings.ReplaceAll(strings.Replace(message, "%d", "", 1), "%%", "")
	if strings.Contains(rest, "%") {
		return rateLimitedMessage
	}
	return message
}

func formatRateLimitMessage(format string, wait int) string {
	if !strings.Contains(format, "%d") {
		return strings.ReplaceAll(format, "%%", "%")
	}
	return fmt.Sprintf(format, wait)
}

func rateLimitKey(c *gin.Context, prefix string, keyFunc RateLimitKeyFunc) string {
	key := ""
	if keyFunc != nil {
		key = strings.TrimSpace(keyFunc(c))
	}
	if key == "" {
		key = c.ClientIP()
	}
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}

// retryAfterSeconds key 无 TTL（-1/-2）时按整个窗口计
func retryAfterSeconds(ttl int64, window int) int {
	if ttl >= 1 {
		return int(ttl)
	}
	if window >= 1 {
		return window
	}
	return 1
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}
