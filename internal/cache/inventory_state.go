package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/pharmadesk/internal/constants"
)

// InventorySearchKey 库存搜索缓存 key（查询词忽略大小写与首尾空白）
func InventorySearchKey(query string) string {
	return fmt.Sprintf("%s:%s", constants.CacheKeyInventorySearchPrefix, strings.ToLower(strings.TrimSpace(query)))
}

// SalesKPIKey 销售 KPI 缓存 key
func SalesKPIKey(scope, date string) string {
	return fmt.Sprintf("%s:%s:%s", constants.CacheKeySalesKPIPrefix, scope, date)
}

// InvalidateInventory 清除全部库存搜索缓存
func InvalidateInventory(ctx context.Context) error {
	return DelPrefix(ctx, constants.CacheKeyInventorySearchPrefix+":")
}

// InvalidateSalesKPI 清除全部销售 KPI 缓存
func InvalidateSalesKPI(ctx context.Context) error {
	return DelPrefix(ctx, constants.CacheKeySalesKPIPrefix+":")
}
