package repository

import (
	"errors"

	"github.com/pharmadesk/internal/models"

	"gorm.io/gorm"
)

// SaleRepository 账单与销售明细数据访问接口
type SaleRepository interface {
	CreateBill(bill *models.Bill) error
	GetBill(id uint) (*models.Bill, error)
	ListRecords(filter SaleListFilter) ([]models.SaleRecord, int64, error)
	WithTx(tx *gorm.DB) SaleRepository
}

// GormSaleRepository GORM 实现
type GormSaleRepository struct {
	db *gorm.DB
}

// NewSaleRepository 创建销售仓库
func NewSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSaleRepository) WithTx(tx *gorm.DB) SaleRepository {
	if tx == nil {
		return r
	}
	return &GormSaleRepository{db: tx}
}

// CreateBill 创建账单及其销售明细
func (r *GormSaleRepository) CreateBill(bill *models.Bill) error {
	if bill == nil {
		return errors.New("bill is nil")
	}
	return r.db.Create(bill).Error
}

// GetBill 获取账单（含明细），不存在时返回 nil
func (r *GormSaleRepository) GetBill(id uint) (*models.Bill, error) {
	var bill models.Bill
	if err := r.db.Preload("Records", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).First(&bill, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bill, nil
}

// ListRecords 销售明细列表，按账单号倒序
func (r *GormSaleRepository) ListRecords(filter SaleListFilter) ([]models.SaleRecord, int64, error) {
	query := applySaleDateFilter(r.db.Model(&models.SaleRecord{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var records []models.SaleRecord
	if err := query.Order("bill_id DESC, id ASC").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func applySaleDateFilter(query *gorm.DB, filter SaleListFilter) *gorm.DB {
	if query == nil {
		return query
	}
	if filter.Date != "" {
		query = query.Where("sale_date = ?", filter.Date)
	}
	if filter.ExcludeDate != "" {
		query = query.Where("sale_date <> ?", filter.ExcludeDate)
	}
	return query
}
