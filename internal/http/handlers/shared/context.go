package shared

import (
	"strconv"
	"strings"

	"github.com/pharmadesk/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ParseUintParam 读取路径中的正整数参数并统一处理错误响应。
func ParseUintParam(c *gin.Context, name, invalidMsg string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		RespondError(c, response.CodeBadRequest, invalidMsg, nil)
		return 0, false
	}
	return uint(value), true
}
