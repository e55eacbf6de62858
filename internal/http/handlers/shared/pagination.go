package shared

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// NormalizePagination 归一化分页参数。
func NormalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// ParsePagination 读取 page / page_size 查询参数；未传 page_size 时不分页。
func ParsePagination(c *gin.Context) (page, pageSize int, paged bool) {
	rawSize := strings.TrimSpace(c.Query("page_size"))
	if rawSize == "" {
		return 0, 0, false
	}
	page, _ = strconv.Atoi(strings.TrimSpace(c.DefaultQuery("page", "1")))
	pageSize, _ = strconv.Atoi(rawSize)
	page, pageSize = NormalizePagination(page, pageSize)
	return page, pageSize, true
}
