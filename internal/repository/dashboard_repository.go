package repository

import (
	"github.com/pharmadesk/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository 仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetSalesKPI(filter SaleListFilter) (DashboardSalesKPIRow, error)
	GetRevenue(filter SaleListFilter) (float64, error)
}

// DashboardSalesKPIRow 销售 KPI 原始统计结果
type DashboardSalesKPIRow struct {
	TotalRevenue      float64
	TotalTransactions int64
	TotalItemsSold    int64
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// GetSalesKPI 统计营业额、交易笔数（去重账单）与售出件数
func (r *GormDashboardRepository) GetSalesKPI(filter SaleListFilter) (DashboardSalesKPIRow, error) {
	result := DashboardSalesKPIRow{}

	base := func() *gorm.DB {
		return applySaleDateFilter(r.db.Model(&models.SaleRecord{}), filter)
	}

	if err := base().
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&result.TotalRevenue).Error; err != nil {
		return result, err
	}
	if err := base().
		Distinct("bill_id").
		Count(&result.TotalTransactions).Error; err != nil {
		return result, err
	}
	if err := base().
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&result.TotalItemsSold).Error; err != nil {
		return result, err
	}
	return result, nil
}

// GetRevenue 统计营业额
func (r *GormDashboardRepository) GetRevenue(filter SaleListFilter) (float64, error) {
	var revenue float64
	if err := applySaleDateFilter(r.db.Model(&models.SaleRecord{}), filter).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&revenue).Error; err != nil {
		return 0, err
	}
	return revenue, nil
}
