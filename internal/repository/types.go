package repository

// MedicineListFilter 查询药品列表的过滤条件
type MedicineListFilter struct {
	Page              int
	PageSize          int
	LowStockThreshold int // >0 时仅返回低库存药品
	InStockOnly       bool
}

// SaleListFilter 查询销售明细的过滤条件
type SaleListFilter struct {
	Page        int
	PageSize    int
	Date        string // 等于该日期
	ExcludeDate string // 排除该日期
}

// StockAlertListFilter 查询库存预警的过滤条件
type StockAlertListFilter struct {
	Page     int
	PageSize int
	Kind     string
}
