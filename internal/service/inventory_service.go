package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pharmadesk/internal/cache"
	"github.com/pharmadesk/internal/constants"
	"github.com/pharmadesk/internal/logger"
	"github.com/pharmadesk/internal/models"
	"github.com/pharmadesk/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const defaultSearchCacheTTL = 30 * time.Second

// 新增 / 合并药品的返回文案
const (
	MessageMedicineAdded   = "New medicine added."
	MessageMedicineUpdated = "Medicine quantity updated."
)

// MedicineView 带状态的药品视图
type MedicineView struct {
	models.Medicine
	Status MedicineStatus `json:"status"`
}

// AddMedicineInput 新增药品输入
type AddMedicineInput struct {
	Name         string
	Manufacturer string
	ExpiryDate   string
	Quantity     int
	Price        *models.Money // 为空时合并不覆盖原价
}

// AddMedicineResult 新增药品结果
type AddMedicineResult struct {
	Medicine *models.Medicine
	Created  bool
	Message  string
}

// InventoryService 库存服务
type InventoryService struct {
	repo      repository.MedicineRepository
	alertRepo repository.StockAlertRepository
	rules     StockRules
	searchTTL time.Duration
	group     singleflight.Group
	now       func() time.Time
}

// NewInventoryService 创建库存服务
func NewInventoryService(repo repository.MedicineRepository, alertRepo repository.StockAlertRepository, rules StockRules, searchTTL time.Duration) *InventoryService {
	if searchTTL <= 0 {
		searchTTL = defaultSearchCacheTTL
	}
	return &InventoryService{
		repo:      repo,
		alertRepo: alertRepo,
		rules:     rules.normalized(),
		searchTTL: searchTTL,
		now:       time.Now,
	}
}

// Rules 当前库存规则
func (s *InventoryService) Rules() StockRules {
	return s.rules
}

// Search 按名称或厂家搜索药品
func (s *InventoryService) Search(ctx context.Context, query string) ([]MedicineView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []MedicineView{}, nil
	}
	key := cache.InventorySearchKey(query)

	var cached []MedicineView
	hit, err := cache.GetJSON(ctx, key, &cached)
	if err != nil {
		logger.Warnw("inventory_search_cache_get_failed", "query", query, "error", err)
	}
	if err == nil && hit {
		return cached, nil
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		medicines, err := s.repo.Search(query)
		if err != nil {
			return nil, err
		}
		views := s.buildViews(medicines)
		if err := cache.SetJSON(ctx, key, views, s.searchTTL); err != nil {
			logger.Warnw("inventory_search_cache_set_failed", "query", query, "error", err)
		}
		return views, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInventoryQueryFailed, err)
	}
	return result.([]MedicineView), nil
}

// AddMedicine 新增药品；同名同厂家时合并库存
func (s *InventoryService) AddMedicine(ctx context.Context, input AddMedicineInput) (*AddMedicineResult, error) {
	name := strings.TrimSpace(input.Name)
	manufacturer := strings.TrimSpace(input.Manufacturer)
	if name == "" || input.Quantity < 0 {
		return nil, ErrInvalidMedicineInput
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, ErrInvalidMedicineInput
	}

	existing, err := s.repo.FindByNameAndManufacturer(name, manufacturer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInventoryQueryFailed, err)
	}

	var result *AddMedicineResult
	if existing != nil {
		var price *models.Money
		if input.Price != nil && !input.Price.IsZero() {
			merged := models.NewMoneyFromDecimal(input.Price.Decimal)
			price = &merged
		}
		rows, err := s.repo.Restock(existing.ID, input.Quantity, price)
		if err != nil {
			return nil, err
		}
		if rows == 0 {
			return nil, ErrNotFound
		}
		// 重新读取，返回包含并发扣减后的库存
		stored, err := s.repo.GetByID(existing.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInventoryQueryFailed, err)
		}
		if stored == nil {
			return nil, ErrNotFound
		}
		result = &AddMedicineResult{Medicine: stored, Message: MessageMedicineUpdated}
	} else {
		expiry := strings.TrimSpace(input.ExpiryDate)
		if _, err := parseExpiryDate(expiry); err != nil {
			return nil, ErrInvalidExpiryDate
		}
		price := models.ZeroMoney()
		if input.Price != nil {
			price = models.NewMoneyFromDecimal(input.Price.Decimal)
		}
		medicine := &models.Medicine{
			Name:         name,
			Manufacturer: manufacturer,
			ExpiryDate:   expiry,
			Quantity:     input.Quantity,
			Price:        price,
		}
		if err := s.repo.Create(medicine); err != nil {
			return nil, err
		}
		result = &AddMedicineResult{Medicine: medicine, Created: true, Message: MessageMedicineAdded}
	}

	if err := cache.InvalidateInventory(ctx); err != nil {
		logger.Warnw("inventory_cache_invalidate_failed", "error", err)
	}
	return result, nil
}

// ListAll 全部药品（带状态）
func (s *InventoryService) ListAll(page, pageSize int) ([]MedicineView, int64, error) {
	medicines, total, err := s.repo.List(repository.MedicineListFilter{Page: page, PageSize: pageSize})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInventoryQueryFailed, err)
	}
	return s.buildViews(medicines), total, nil
}

// LowStockItems 低库存药品（0 < quantity <= 阈值）
func (s *InventoryService) LowStockItems() ([]MedicineView, error) {
	medicines, _, err := s.repo.List(repository.MedicineListFilter{LowStockThreshold: s.rules.LowStockThreshold})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInventoryQueryFailed, err)
	}
	return s.buildViews(medicines), nil
}

// ExpiringSoon 临期药品
func (s *InventoryService) ExpiringSoon() ([]MedicineView, error) {
	from, to := s.rules.ExpiringRange(s.now())
	medicines, err := s.repo.ListExpiringBetween(from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInventoryQueryFailed, err)
	}
	return s.buildViews(medicines), nil
}

// TotalQuantity 库存总量
func (s *InventoryService) TotalQuantity() (int64, error) {
	total, err := s.repo.SumQuantity()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInventoryQueryFailed, err)
	}
	return total, nil
}

// LowStockCount 低库存药品数
func (s *InventoryService) LowStockCount() (int64, error) {
	count, err := s.repo.CountLowStock(s.rules.LowStockThreshold)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInventoryQueryFailed, err)
	}
	return count, nil
}

// StatusDistribution 各状态占比（整数百分比）；库存为空时返回空 map
func (s *InventoryService) StatusDistribution() (map[string]int, error) {
	medicines, _, err := s.repo.List(repository.MedicineListFilter{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInventoryQueryFailed, err)
	}
	result := map[string]int{}
	if len(medicines) == 0 {
		return result, nil
	}

	counts := map[string]int{}
	now := s.now()
	for _, medicine := range medicines {
		counts[ClassifyMedicine(medicine, s.rules, now).Text]++
	}
	total := float64(len(medicines))
	percent := func(text string) int {
		return int(math.RoundToEven(float64(counts[text]) / total * 100))
	}
	result["in_stock_percent"] = percent(constants.MedicineStatusInStock)
	result["low_stock_percent"] = percent(constants.MedicineStatusLowStock)
	result["out_of_stock_percent"] = percent(constants.MedicineStatusOutOfStock)
	result["expiring_soon_percent"] = percent(constants.MedicineStatusExpiringSoon)
	return result, nil
}

// ListAlerts 库存预警列表
func (s *InventoryService) ListAlerts(kind string, page, pageSize int) ([]models.StockAlert, int64, error) {
	if s.alertRepo == nil {
		return []models.StockAlert{}, 0, nil
	}
	alerts, total, err := s.alertRepo.List(repository.StockAlertListFilter{
		Page:     page,
		PageSize: pageSize,
		Kind:     strings.TrimSpace(kind),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInventoryQueryFailed, err)
	}
	return alerts, total, nil
}

// CheckStockAlert 根据当前库存记录低库存 / 缺货预警，同类预警一天内只记一次
func (s *InventoryService) CheckStockAlert(medicineID uint) (*models.StockAlert, error) {
	if s.alertRepo == nil {
		return nil, nil
	}
	medicine, err := s.repo.GetByID(medicineID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStockAlertCheckFailed, err)
	}
	if medicine == nil {
		return nil, ErrNotFound
	}

	var kind string
	switch {
	case medicine.Quantity <= 0:
		kind = constants.StockAlertOutOfStock
	case medicine.Quantity <= s.rules.LowStockThreshold:
		kind = constants.StockAlertLowStock
	default:
		return nil, nil
	}
	return s.recordAlert(medicine, kind)
}

// ScanExpiring 扫描临期药品并记录预警，返回新增的预警数
func (s *InventoryService) ScanExpiring(now time.Time) (int, error) {
	if s.alertRepo == nil {
		return 0, nil
	}
	from, to := s.rules.ExpiringRange(now)
	medicines, err := s.repo.ListExpiringBetween(from, to)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStockAlertCheckFailed, err)
	}
	created := 0
	for idx := range medicines {
		if medicines[idx].Quantity <= 0 {
			continue
		}
		alert, err := s.recordAlert(&medicines[idx], constants.StockAlertExpiringSoon)
		if err != nil {
			return created, err
		}
		if alert != nil {
			created++
		}
	}
	return created, nil
}

func (s *InventoryService) recordAlert(medicine *models.Medicine, kind string) (*models.StockAlert, error) {
	since := startOfDay(s.now())
	exists, err := s.alertRepo.ExistsSince(medicine.ID, kind, since)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStockAlertCheckFailed, err)
	}
	if exists {
		return nil, nil
	}
	alert := &models.StockAlert{
		MedicineID:   medicine.ID,
		MedicineName: medicine.Name,
		Kind:         kind,
		Quantity:     medicine.Quantity,
		ExpiryDate:   medicine.ExpiryDate,
	}
	if err := s.alertRepo.Create(alert); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStockAlertCheckFailed, err)
	}
	return alert, nil
}

func (s *InventoryService) buildViews(medicines []models.Medicine) []MedicineView {
	now := s.now()
	views := make([]MedicineView, 0, len(medicines))
	for _, medicine := range medicines {
		views = append(views, MedicineView{
			Medicine: medicine,
			Status:   ClassifyMedicine(medicine, s.rules, now),
		})
	}
	return views
}

// ParsePrice 解析价格文本，空串返回 nil
func ParsePrice(raw string) (*models.Money, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, errors.Join(ErrInvalidMedicineInput, err)
	}
	if amount.IsNegative() {
		return nil, ErrInvalidMedicineInput
	}
	price := models.NewMoneyFromDecimal(amount)
	return &price, nil
}
