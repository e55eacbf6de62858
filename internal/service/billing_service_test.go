package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pharmadesk/internal/constants"
	"github.com/pharmadesk/internal/models"
	"github.com/pharmadesk/internal/repository"

	"github.com/shopspring/decimal"
)

type recordingAlertChecker struct {
	ids []uint
}

func (c *recordingAlertChecker) CheckStockAlert(medicineID uint) (*models.StockAlert, error) {
	c.ids = append(c.ids, medicineID)
	return nil, nil
}

func newTestBillingService(env *serviceTestEnv, checker StockAlertChecker, now time.Time) *BillingService {
	svc := NewBillingService(env.medicines, env.sales, nil, checker, decimal.RequireFromString("0.05"), DefaultStockRules())
	svc.now = fixedClock(now)
	return svc
}

func TestCreateBillDecrementsStockAndWritesRecords(t *testing.T) {
	env := setupServiceTest(t)
	now := time.Date(2026, 10, 17, 14, 30, 5, 0, time.Local)
	checker := &recordingAlertChecker{}
	svc := newTestBillingService(env, checker, now)
	para := env.addMedicine(t, "Paracetamol", "Acme", "2030-01-01", 50, "10.00")
	ibu := env.addMedicine(t, "Ibuprofen", "Zen", "2030-01-01", 21, "20.00")

	result, err := svc.CreateBill(context.Background(), []BillItemInput{
		{ID: para.ID, Name: "Paracetamol", Price: testMoney("10.00"), Quantity: 2},
		{ID: ibu.ID, Name: "Ibuprofen", Price: testMoney("20.00"), Quantity: 1},
	})
	if err != nil {
		t.Fatalf("create bill failed: %v", err)
	}
	if result.BillID == 0 || result.Message != MessageSaleProcessed {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Bill.Subtotal.String() != "40.00" || result.Bill.Tax.String() != "2.00" || result.Bill.GrandTotal.String() != "42.00" {
		t.Fatalf("bill totals mismatch: %s %s %s", result.Bill.Subtotal, result.Bill.Tax, result.Bill.GrandTotal)
	}

	if got := env.reload(t, para.ID).Quantity; got != 48 {
		t.Fatalf("paracetamol stock want 48 got %d", got)
	}
	if got := env.reload(t, ibu.ID).Quantity; got != 20 {
		t.Fatalf("ibuprofen stock want 20 got %d", got)
	}

	records, total, err := env.sales.ListRecords(repository.SaleListFilter{})
	if err != nil {
		t.Fatalf("list records failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("records want 2 got %d", total)
	}
	for _, record := range records {
		if record.BillID != result.BillID {
			t.Fatalf("record bill id mismatch: %d vs %d", record.BillID, result.BillID)
		}
		if record.SaleDate != "2026-10-17" || record.SaleTime != "14:30:05" {
			t.Fatalf("record timestamp mismatch: %s %s", record.SaleDate, record.SaleTime)
		}
	}
	if records[0].TotalAmount.String() != "20.00" {
		t.Fatalf("first line total want 20.00 got %s", records[0].TotalAmount)
	}

	if len(checker.ids) != 1 || checker.ids[0] != ibu.ID {
		t.Fatalf("only ibuprofen should trigger a stock check, got %v", checker.ids)
	}
}

func TestCreateBillInsufficientStockChangesNothing(t *testing.T) {
	env := setupServiceTest(t)
	svc := newTestBillingService(env, nil, time.Now())
	para := env.addMedicine(t, "Paracetamol", "Acme", "2030-01-01", 50, "10.00")
	scarce := env.addMedicine(t, "Scarce", "Zen", "2030-01-01", 1, "5.00")

	_, err := svc.CreateBill(context.Background(), []BillItemInput{
		{ID: para.ID, Name: "Paracetamol", Price: testMoney("10.00"), Quantity: 2},
		{ID: scarce.ID, Name: "Scarce", Price: testMoney("5.00"), Quantity: 2},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock got %v", err)
	}
	var shortage *StockShortageError
	if !errors.As(err, &shortage) || shortage.Name != "Scarce" {
		t.Fatalf("shortage should name Scarce, got %v", err)
	}
	if got := env.reload(t, para.ID).Quantity; got != 50 {
		t.Fatalf("paracetamol stock should be untouched, got %d", got)
	}
	_, total, err := env.sales.ListRecords(repository.SaleListFilter{})
	if err != nil || total != 0 {
		t.Fatalf("no records should be written, got %d %v", total, err)
	}
}

func TestCreateBillAggregatesDuplicateLines(t *testing.T) {
	env := setupServiceTest(t)
	svc := newTestBillingService(env, nil, time.Now())
	para := env.addMedicine(t, "Paracetamol", "Acme", "2030-01-01", 3, "10.00")

	_, err := svc.CreateBill(context.Background(), []BillItemInput{
		{ID: para.ID, Name: "Paracetamol", Price: testMoney("10.00"), Quantity: 2},
		{ID: para.ID, Name: "Paracetamol", Price: testMoney("10.00"), Quantity: 2},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("duplicated lines exceeding stock want ErrInsufficientStock got %v", err)
	}
	if got := env.reload(t, para.ID).Quantity; got != 3 {
		t.Fatalf("stock should be untouched, got %d", got)
	}
}

func TestCreateBillValidation(t *testing.T) {
	env := setupServiceTest(t)
	svc := newTestBillingService(env, nil, time.Now())
	ctx := context.Background()

	if _, err := svc.CreateBill(ctx, nil); !errors.Is(err, ErrEmptyBill) {
		t.Fatalf("empty bill want ErrEmptyBill got %v", err)
	}
	if _, err := svc.CreateBill(ctx, []BillItemInput{{ID: 1, Quantity: 0}}); !errors.Is(err, ErrInvalidBillItem) {
		t.Fatalf("zero quantity want ErrInvalidBillItem got %v", err)
	}
	if _, err := svc.CreateBill(ctx, []BillItemInput{{ID: 0, Quantity: 1}}); !errors.Is(err, ErrInvalidBillItem) {
		t.Fatalf("missing id want ErrInvalidBillItem got %v", err)
	}
	_, err := svc.CreateBill(ctx, []BillItemInput{{ID: 42, Name: "Ghost", Price: testMoney("1"), Quantity: 1}})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("unknown medicine want ErrInsufficientStock got %v", err)
	}
}

func TestCreateBillRecordsOutOfStockAlert(t *testing.T) {
	env := setupServiceTest(t)
	inventory := newTestInventoryService(env, time.Now())
	svc := newTestBillingService(env, inventory, time.Now())
	last := env.addMedicine(t, "Last Box", "Acme", "2030-01-01", 1, "9.99")

	if _, err := svc.CreateBill(context.Background(), []BillItemInput{
		{ID: last.ID, Name: "Last Box", Price: testMoney("9.99"), Quantity: 1},
	}); err != nil {
		t.Fatalf("create bill failed: %v", err)
	}
	alerts, total, err := inventory.ListAlerts("", 0, 0)
	if err != nil || total != 1 {
		t.Fatalf("alerts want 1 got %d %v", total, err)
	}
	if alerts[0].Kind != constants.StockAlertOutOfStock || alerts[0].Quantity != 0 {
		t.Fatalf("alert mismatch: %+v", alerts[0])
	}
}
