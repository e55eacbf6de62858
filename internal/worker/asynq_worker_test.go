package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pharmadesk/internal/cache"
	"github.com/pharmadesk/internal/config"
	"github.com/pharmadesk/internal/constants"
	"github.com/pharmadesk/internal/models"
	"github.com/pharmadesk/internal/provider"
	"github.com/pharmadesk/internal/queue"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupConsumer(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	cache.UseClient(nil, "")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate models failed: %v", err)
	}
	return NewConsumer(provider.NewContainerWithDB(&config.Config{}, db, nil)), db
}

func stockAlertTask(t *testing.T, medicineID uint) *asynq.Task {
	t.Helper()
	task, err := queue.NewStockAlertTask(queue.StockAlertPayload{MedicineID: medicineID, BillID: 7})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	return task
}

func TestHandleStockAlertRecordsLowStock(t *testing.T) {
	consumer, db := setupConsumer(t)
	medicine := &models.Medicine{
		Name:       "Aspirin",
		ExpiryDate: "2099-12-31",
		Quantity:   3,
		Price:      models.NewMoneyFromDecimal(decimal.RequireFromString("10")),
	}
	if err := db.Create(medicine).Error; err != nil {
		t.Fatalf("create medicine failed: %v", err)
	}

	if err := consumer.handleStockAlert(context.Background(), stockAlertTask(t, medicine.ID)); err != nil {
		t.Fatalf("handle stock alert failed: %v", err)
	}
	// 同一天重复任务不重复记录
	if err := consumer.handleStockAlert(context.Background(), stockAlertTask(t, medicine.ID)); err != nil {
		t.Fatalf("handle duplicate stock alert failed: %v", err)
	}

	var alerts []models.StockAlert
	if err := db.Find(&alerts).Error; err != nil {
		t.Fatalf("list alerts failed: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Kind != constants.StockAlertLowStock || alerts[0].Quantity != 3 {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}
}

func TestHandleStockAlertMissingMedicine(t *testing.T) {
	consumer, _ := setupConsumer(t)

	if err := consumer.handleStockAlert(context.Background(), stockAlertTask(t, 404)); err != nil {
		t.Fatalf("missing medicine should be skipped, got %v", err)
	}
}

func TestHandleStockAlertInvalidPayloadSkipsRetry(t *testing.T) {
	consumer, _ := setupConsumer(t)

	err := consumer.handleStockAlert(context.Background(), asynq.NewTask(queue.TaskStockAlert, []byte(`{"medicine_id":0}`)))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("invalid payload should skip retry, got %v", err)
	}
}

type countingScanner struct {
	calls atomic.Int32
	err   error
}

func (s *countingScanner) ScanExpiring(time.Time) (int, error) {
	s.calls.Add(1)
	return 2, s.err
}

func TestExpiryScanServiceRunsUntilCancelled(t *testing.T) {
	scanner := &countingScanner{}
	svc := NewExpiryScanService(scanner, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Start(ctx)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for scanner.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expiry scan service did not stop after cancel")
	}
	if scanner.calls.Load() < 2 {
		t.Fatalf("expected at least two scans, got %d", scanner.calls.Load())
	}
}

func TestExpiryScanServiceRunOnceLogsFailure(t *testing.T) {
	scanner := &countingScanner{err: errors.New("db down")}
	svc := NewExpiryScanService(scanner, 0)

	if got := svc.RunOnce(); got != 2 {
		t.Fatalf("run once should report partial count, got %d", got)
	}
	if svc.interval != defaultExpiryScanInterval {
		t.Fatalf("default interval want %s got %s", defaultExpiryScanInterval, svc.interval)
	}
}

func TestNewServiceRequiresQueue(t *testing.T) {
	if _, err := NewService(&config.QueueConfig{Enabled: false}, &Consumer{}); err == nil {
		t.Fatalf("disabled queue should fail")
	}
}
