package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pharmadesk/internal/cache"
	"github.com/pharmadesk/internal/constants"
	"github.com/pharmadesk/internal/models"
	"github.com/pharmadesk/internal/repository"

	"github.com/shopspring/decimal"
)

const salesKPICacheTTL = 45 * time.Second

// SalesKPI 销售核心指标
type SalesKPI struct {
	TotalRevenue      float64 `json:"total_revenue"`
	TotalTransactions int64   `json:"total_transactions"`
	TotalItemsSold    int64   `json:"total_items_sold"`
}

// SalesService 销售查询服务
type SalesService struct {
	saleRepo      repository.SaleRepository
	dashboardRepo repository.DashboardRepository
	now           func() time.Time
}

// NewSalesService 创建销售服务
func NewSalesService(saleRepo repository.SaleRepository, dashboardRepo repository.DashboardRepository) *SalesService {
	return &SalesService{saleRepo: saleRepo, dashboardRepo: dashboardRepo, now: time.Now}
}

// TodayRevenue 今日营业额
func (s *SalesService) TodayRevenue() (float64, error) {
	revenue, err := s.dashboardRepo.GetRevenue(repository.SaleListFilter{Date: s.today()})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSalesQueryFailed, err)
	}
	return roundAmount(revenue), nil
}

// Today 今日销售明细
func (s *SalesService) Today(page, pageSize int) ([]models.SaleRecord, int64, error) {
	return s.listRecords(repository.SaleListFilter{Page: page, PageSize: pageSize, Date: s.today()})
}

// Previous 今日之前的销售明细
func (s *SalesService) Previous(page, pageSize int) ([]models.SaleRecord, int64, error) {
	return s.listRecords(repository.SaleListFilter{Page: page, PageSize: pageSize, ExcludeDate: s.today()})
}

// GetBill 获取账单详情
func (s *SalesService) GetBill(id uint) (*models.Bill, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	bill, err := s.saleRepo.GetBill(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSalesQueryFailed, err)
	}
	if bill == nil {
		return nil, ErrNotFound
	}
	return bill, nil
}

// KPI 按范围（today / previous）统计销售指标
func (s *SalesService) KPI(ctx context.Context, scope string, forceRefresh bool) (*SalesKPI, error) {
	scope = strings.ToLower(strings.TrimSpace(scope))
	today := s.today()
	var filter repository.SaleListFilter
	switch scope {
	case constants.SalesScopeToday:
		filter.Date = today
	case constants.SalesScopePrevious:
		filter.ExcludeDate = today
	default:
		return nil, ErrInvalidSalesScope
	}

	cacheKey := cache.SalesKPIKey(scope, today)
	if !forceRefresh {
		var cached SalesKPI
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	row, err := s.dashboardRepo.GetSalesKPI(filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSalesQueryFailed, err)
	}
	kpi := &SalesKPI{
		TotalRevenue:      roundAmount(row.TotalRevenue),
		TotalTransactions: row.TotalTransactions,
		TotalItemsSold:    row.TotalItemsSold,
	}
	_ = cache.SetJSON(ctx, cacheKey, kpi, salesKPICacheTTL)
	return kpi, nil
}

func (s *SalesService) listRecords(filter repository.SaleListFilter) ([]models.SaleRecord, int64, error) {
	records, total, err := s.saleRepo.ListRecords(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrSalesQueryFailed, err)
	}
	return records, total, nil
}

func (s *SalesService) today() string {
	return s.now().Format(constants.DateLayout)
}

func roundAmount(value float64) float64 {
	rounded, _ := decimal.NewFromFloat(value).Round(2).Float64()
	return rounded
}
