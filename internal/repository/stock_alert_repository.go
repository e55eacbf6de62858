package repository

import (
	"time"

	"github.com/pharmadesk/internal/models"

	"gorm.io/gorm"
)

// StockAlertRepository 库存预警数据访问接口
type StockAlertRepository interface {
	Create(alert *models.StockAlert) error
	ExistsSince(medicineID uint, kind string, since time.Time) (bool, error)
	List(filter StockAlertListFilter) ([]models.StockAlert, int64, error)
}

// GormStockAlertRepository GORM 实现
type GormStockAlertRepository struct {
	db *gorm.DB
}

// NewStockAlertRepository 创建库存预警仓库
func NewStockAlertRepository(db *gorm.DB) *GormStockAlertRepository {
	return &GormStockAlertRepository{db: db}
}

// Create 写入预警
func (r *GormStockAlertRepository) Create(alert *models.StockAlert) error {
	return r.db.Create(alert).Error
}

// ExistsSince 判断某时间后是否已有同类预警，用于去重
func (r *GormStockAlertRepository) ExistsSince(medicineID uint, kind string, since time.Time) (bool, error) {
	var count int64
	if err := r.db.Model(&models.StockAlert{}).
		Where("medicine_id = ? AND kind = ? AND created_at >= ?", medicineID, kind, since).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List 预警列表，最新在前
func (r *GormStockAlertRepository) List(filter StockAlertListFilter) ([]models.StockAlert, int64, error) {
	query := r.db.Model(&models.StockAlert{})
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var alerts []models.StockAlert
	if err := query.Order("created_at DESC, id DESC").Find(&alerts).Error; err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}
