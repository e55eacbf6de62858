package constants

// 药品库存状态文案（与前端展示一致）
const (
	MedicineStatusInStock      = "In Stock"
	MedicineStatusLowStock     = "Low Stock"
	MedicineStatusOutOfStock   = "Out of Stock"
	MedicineStatusExpiringSoon = "Expiring Soon"
	MedicineStatusUnknown      = "Unknown"
)

// 药品库存状态样式类名
const (
	MedicineStatusClassInStock      = "status-in-stock"
	MedicineStatusClassLowStock     = "status-low-stock"
	MedicineStatusClassOutOfStock   = "status-out-of-stock"
	MedicineStatusClassExpiringSoon = "status-expiring-soon"
)

// 库存预警类型
const (
	StockAlertLowStock     = "low_stock"
	StockAlertOutOfStock   = "out_of_stock"
	StockAlertExpiringSoon = "expiring_soon"
)

// 日期格式
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// 销售统计范围
const (
	SalesScopeToday    = "today"
	SalesScopePrevious = "previous"
)

// 异步队列
const (
	QueueDefault  = "default"
	QueueCritical = "critical"

	TaskStockAlert = "stock:alert"
)

// 缓存 key
const (
	CacheKeyInventorySearchPrefix = "inventory:search"
	CacheKeySalesKPIPrefix        = "sales:kpi"
)

// 默认库存规则
const (
	DefaultLowStockThreshold  = 20
	DefaultExpiringWindowDays = 30
	DefaultSearchMinLength    = 2
)
