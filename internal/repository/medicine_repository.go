package repository

import (
	"errors"
	"strings"

	"github.com/pharmadesk/internal/models"

	"gorm.io/gorm"
)

// MedicineRepository 药品库存数据访问接口
type MedicineRepository interface {
	Search(keyword string) ([]models.Medicine, error)
	List(filter MedicineListFilter) ([]models.Medicine, int64, error)
	GetByID(id uint) (*models.Medicine, error)
	ListByIDs(ids []uint) ([]models.Medicine, error)
	FindByNameAndManufacturer(name, manufacturer string) (*models.Medicine, error)
	ListExpiringBetween(from, to string) ([]models.Medicine, error)
	Create(medicine *models.Medicine) error
	Restock(id uint, quantity int, price *models.Money) (int64, error)
	DecrementStock(id uint, quantity int) (int64, error)
	SumQuantity() (int64, error)
	CountLowStock(threshold int) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) MedicineRepository
}

// GormMedicineRepository GORM 实现
type GormMedicineRepository struct {
	db *gorm.DB
}

// NewMedicineRepository 创建药品仓库
func NewMedicineRepository(db *gorm.DB) *GormMedicineRepository {
	return &GormMedicineRepository{db: db}
}

// WithTx 绑定事务
func (r *GormMedicineRepository) WithTx(tx *gorm.DB) MedicineRepository {
	if tx == nil {
		return r
	}
	return &GormMedicineRepository{db: tx}
}

// Transaction 执行事务
func (r *GormMedicineRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Search 按名称或厂家模糊搜索（忽略大小写）
func (r *GormMedicineRepository) Search(keyword string) ([]models.Medicine, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []models.Medicine{}, nil
	}
	if !likeFoldsCase(dbDialectName(r.db), keyword) {
		return r.searchFolded(keyword)
	}
	condition, argCount := buildLikeCondition(r.db, []string{"name", "manufacturer"})
	var medicines []models.Medicine
	if err := r.db.Where(condition, repeatLikeArgs(containsPattern(keyword), argCount)...).
		Order("id ASC").
		Find(&medicines).Error; err != nil {
		return nil, err
	}
	return medicines, nil
}

// searchFolded 在 Go 侧做 Unicode 大小写折叠匹配（sqlite 的 LOWER 只处理 ASCII）
func (r *GormMedicineRepository) searchFolded(keyword string) ([]models.Medicine, error) {
	var all []models.Medicine
	if err := r.db.Order("id ASC").Find(&all).Error; err != nil {
		return nil, err
	}
	needle := strings.ToLower(keyword)
	medicines := make([]models.Medicine, 0)
	for _, medicine := range all {
		if strings.Contains(strings.ToLower(medicine.Name), needle) ||
			strings.Contains(strings.ToLower(medicine.Manufacturer), needle) {
			medicines = append(medicines, medicine)
		}
	}
	return medicines, nil
}

// List 药品列表
func (r *GormMedicineRepository) List(filter MedicineListFilter) ([]models.Medicine, int64, error) {
	query := r.db.Model(&models.Medicine{})
	if filter.LowStockThreshold > 0 {
		query = query.Where("quantity > 0 AND quantity <= ?", filter.LowStockThreshold)
	}
	if filter.InStockOnly {
		query = query.Where("quantity > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var medicines []models.Medicine
	if err := query.Order("id ASC").Find(&medicines).Error; err != nil {
		return nil, 0, err
	}
	return medicines, total, nil
}

// GetByID 根据 ID 获取药品，不存在时返回 nil
func (r *GormMedicineRepository) GetByID(id uint) (*models.Medicine, error) {
	var medicine models.Medicine
	if err := r.db.First(&medicine, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &medicine, nil
}

// ListByIDs 批量获取药品
func (r *GormMedicineRepository) ListByIDs(ids []uint) ([]models.Medicine, error) {
	if len(ids) == 0 {
		return []models.Medicine{}, nil
	}
	var medicines []models.Medicine
	if err := r.db.Where("id IN ?", ids).Find(&medicines).Error; err != nil {
		return nil, err
	}
	return medicines, nil
}

// FindByNameAndManufacturer 按名称 + 厂家精确匹配（忽略大小写与首尾空白）
func (r *GormMedicineRepository) FindByNameAndManufacturer(name, manufacturer string) (*models.Medicine, error) {
	var medicine models.Medicine
	err := r.db.
		Where("LOWER(TRIM(name)) = ? AND LOWER(TRIM(COALESCE(manufacturer, ''))) = ?",
			strings.ToLower(strings.TrimSpace(name)),
			strings.ToLower(strings.TrimSpace(manufacturer))).
		Order("id ASC").
		First(&medicine).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &medicine, nil
}

// ListExpiringBetween 有效期落在 [from, to] 的药品（日期均为 YYYY-MM-DD）
func (r *GormMedicineRepository) ListExpiringBetween(from, to string) ([]models.Medicine, error) {
	var medicines []models.Medicine
	if err := r.db.Where("expiry_date >= ? AND expiry_date <= ?", from, to).
		Order("expiry_date ASC, id ASC").
		Find(&medicines).Error; err != nil {
		return nil, err
	}
	return medicines, nil
}

// Create 创建药品
func (r *GormMedicineRepository) Create(medicine *models.Medicine) error {
	return r.db.Create(medicine).Error
}

// Restock 原子累加库存，price 非空时同时更新单价；不读旧值，避免覆盖并发的开单扣减
func (r *GormMedicineRepository) Restock(id uint, quantity int, price *models.Money) (int64, error) {
	if id == 0 || quantity < 0 {
		return 0, errors.New("invalid restock params")
	}
	updates := map[string]interface{}{
		"quantity": gorm.Expr("quantity + ?", quantity),
	}
	if price != nil {
		updates["price"] = *price
	}
	result := r.db.Model(&models.Medicine{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DecrementStock 扣减库存，库存不足时不更新并返回 0 行
func (r *GormMedicineRepository) DecrementStock(id uint, quantity int) (int64, error) {
	if id == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock decrement params")
	}
	result := r.db.Model(&models.Medicine{}).
		Where("id = ? AND quantity >= ?", id, quantity).
		Update("quantity", gorm.Expr("quantity - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// SumQuantity 库存总量
func (r *GormMedicineRepository) SumQuantity() (int64, error) {
	var total int64
	if err := r.db.Model(&models.Medicine{}).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// CountLowStock 低库存（0 < quantity <= threshold）药品数
func (r *GormMedicineRepository) CountLowStock(threshold int) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Medicine{}).
		Where("quantity > 0 AND quantity <= ?", threshold).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
