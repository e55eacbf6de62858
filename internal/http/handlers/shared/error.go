package shared

import (
	"net/http"

	"github.com/pharmadesk/internal/http/response"
	"github.com/pharmadesk/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回错误响应；有原始错误时记录日志，4xx 记 warn，5xx 记 error。
func RespondError(c *gin.Context, code int, msg string, err error) {
	if err != nil {
		log := RequestLog(c)
		kv := []interface{}{"code", code, "message", msg, "path", c.FullPath(), "error", err}
		if code >= http.StatusInternalServerError {
			log.Errorw("handler_error", kv...)
		} else {
			log.Warnw("handler_error", kv...)
		}
	}
	response.Error(c, code, msg)
}
