package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pharmadesk/internal/cache"
	"github.com/pharmadesk/internal/constants"
	"github.com/pharmadesk/internal/logger"
	"github.com/pharmadesk/internal/models"
	"github.com/pharmadesk/internal/queue"
	"github.com/pharmadesk/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MessageSaleProcessed 开单成功文案
const MessageSaleProcessed = "Sale processed successfully."

// BillItemInput 开单明细输入
type BillItemInput struct {
	ID       uint         `json:"id"`
	Name     string       `json:"name"`
	Price    models.Money `json:"price"`
	Quantity int          `json:"quantity"`
	MaxStock int          `json:"maxStock,omitempty"`
}

// CreateBillResult 开单结果
type CreateBillResult struct {
	BillID  uint
	Message string
	Bill    *models.Bill
}

// StockAlertChecker 队列不可用时直接执行库存预警检查
type StockAlertChecker interface {
	CheckStockAlert(medicineID uint) (*models.StockAlert, error)
}

// BillingService 收银开单服务
type BillingService struct {
	medicineRepo repository.MedicineRepository
	saleRepo     repository.SaleRepository
	queueClient  *queue.Client
	alertChecker StockAlertChecker
	taxRate      decimal.Decimal
	rules        StockRules
	now          func() time.Time
}

// NewBillingService 创建开单服务
func NewBillingService(
	medicineRepo repository.MedicineRepository,
	saleRepo repository.SaleRepository,
	queueClient *queue.Client,
	alertChecker StockAlertChecker,
	taxRate decimal.Decimal,
	rules StockRules,
) *BillingService {
	return &BillingService{
		medicineRepo: medicineRepo,
		saleRepo:     saleRepo,
		queueClient:  queueClient,
		alertChecker: alertChecker,
		taxRate:      taxRate,
		rules:        rules.normalized(),
		now:          time.Now,
	}
}

// TaxRate 当前税率
func (s *BillingService) TaxRate() decimal.Decimal {
	return s.taxRate
}

// CreateBill 校验库存、扣减库存并写入账单与销售明细（同一事务）
func (s *BillingService) CreateBill(ctx context.Context, items []BillItemInput) (*CreateBillResult, error) {
	if len(items) == 0 {
		return nil, ErrEmptyBill
	}
	requested := make(map[uint]int, len(items))
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		if item.ID == 0 || item.Quantity <= 0 || item.Price.IsNegative() {
			return nil, ErrInvalidBillItem
		}
		if _, ok := requested[item.ID]; !ok {
			ids = append(ids, item.ID)
		}
		requested[item.ID] += item.Quantity
	}

	now := s.now()
	bill := &models.Bill{
		ItemCount: len(items),
		CreatedAt: now,
	}
	remaining := make(map[uint]int, len(ids))

	err := s.medicineRepo.Transaction(func(tx *gorm.DB) error {
		medicineRepo := s.medicineRepo.WithTx(tx)
		saleRepo := s.saleRepo.WithTx(tx)

		medicines, err := medicineRepo.ListByIDs(ids)
		if err != nil {
			return err
		}
		byID := make(map[uint]models.Medicine, len(medicines))
		for _, medicine := range medicines {
			byID[medicine.ID] = medicine
		}

		// 全部校验通过后才扣减
		for _, item := range items {
			medicine, ok := byID[item.ID]
			if !ok || medicine.Quantity < requested[item.ID] {
				return &StockShortageError{
					MedicineID: item.ID,
					Name:       billItemName(item, medicine),
					Requested:  requested[item.ID],
					Available:  medicine.Quantity,
				}
			}
		}

		subtotal := decimal.Zero
		records := make([]models.SaleRecord, 0, len(items))
		for _, item := range items {
			medicine := byID[item.ID]
			rows, err := medicineRepo.DecrementStock(item.ID, item.Quantity)
			if err != nil {
				return err
			}
			if rows == 0 {
				return &StockShortageError{MedicineID: item.ID, Name: billItemName(item, medicine), Requested: item.Quantity}
			}
			lineTotal := item.Price.MulQuantity(item.Quantity)
			subtotal = subtotal.Add(lineTotal.Decimal)
			records = append(records, models.SaleRecord{
				SaleDate:    now.Format(constants.DateLayout),
				SaleTime:    now.Format(constants.TimeLayout),
				ProductID:   item.ID,
				ProductName: billItemName(item, medicine),
				Quantity:    item.Quantity,
				UnitPrice:   models.NewMoneyFromDecimal(item.Price.Decimal),
				TotalAmount: lineTotal,
			})
		}
		for _, id := range ids {
			remaining[id] = byID[id].Quantity - requested[id]
		}

		bill.Subtotal, bill.Tax, bill.GrandTotal = models.BillTotals(subtotal, s.taxRate)
		bill.Records = records
		return saleRepo.CreateBill(bill)
	})
	if err != nil {
		var shortage *StockShortageError
		if errors.As(err, &shortage) {
			return nil, err
		}
		logger.Errorw("billing_create_failed", "items", len(items), "error", err)
		return nil, fmt.Errorf("%w: %v", ErrBillCreateFailed, err)
	}

	s.afterBillCreated(ctx, bill, ids, remaining)
	return &CreateBillResult{
		BillID:  bill.ID,
		Message: MessageSaleProcessed,
		Bill:    bill,
	}, nil
}

func (s *BillingService) afterBillCreated(ctx context.Context, bill *models.Bill, ids []uint, remaining map[uint]int) {
	if err := cache.InvalidateInventory(ctx); err != nil {
		logger.Warnw("billing_inventory_cache_invalidate_failed", "bill_id", bill.ID, "error", err)
	}
	if err := cache.InvalidateSalesKPI(ctx); err != nil {
		logger.Warnw("billing_kpi_cache_invalidate_failed", "bill_id", bill.ID, "error", err)
	}

	for _, id := range ids {
		if remaining[id] > s.rules.LowStockThreshold {
			continue
		}
		if s.queueClient.Enabled() {
			if err := s.queueClient.EnqueueStockAlert(queue.StockAlertPayload{MedicineID: id, BillID: bill.ID}); err != nil {
				logger.Warnw("billing_enqueue_stock_alert_failed", "bill_id", bill.ID, "medicine_id", id, "error", err)
			}
			continue
		}
		if s.alertChecker == nil {
			continue
		}
		if _, err := s.alertChecker.CheckStockAlert(id); err != nil {
			logger.Warnw("billing_stock_alert_check_failed", "bill_id", bill.ID, "medicine_id", id, "error", err)
		}
	}
}

func billItemName(item BillItemInput, medicine models.Medicine) string {
	if name := strings.TrimSpace(item.Name); name != "" {
		return name
	}
	if medicine.Name != "" {
		return medicine.Name
	}
	return fmt.Sprintf("#%d", item.ID)
}
