package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/pharmadesk/internal/logger"
	"github.com/pharmadesk/internal/provider"
	"github.com/pharmadesk/internal/queue"
	"github.com/pharmadesk/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskStockAlert, c.handleStockAlert)
}

func (c *Consumer) handleStockAlert(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_stock_alert_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseStockAlertPayload(task)
	if err != nil {
		logger.Warnw("worker_stock_alert_payload_invalid", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if c.InventoryService == nil {
		logger.Warnw("worker_stock_alert_skip_service_nil", "medicine_id", payload.MedicineID)
		return nil
	}
	alert, err := c.InventoryService.CheckStockAlert(payload.MedicineID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			logger.Debugw("worker_stock_alert_skip_medicine_not_found", "medicine_id", payload.MedicineID)
			return nil
		}
		logger.Warnw("worker_stock_alert_check_failed", "medicine_id", payload.MedicineID, "bill_id", payload.BillID, "error", err)
		return err
	}
	if alert == nil {
		logger.Debugw("worker_stock_alert_no_change", "medicine_id", payload.MedicineID, "bill_id", payload.BillID)
		return nil
	}
	logger.Warnw("worker_stock_alert_recorded",
		"medicine_id", alert.MedicineID,
		"medicine_name", alert.MedicineName,
		"kind", alert.Kind,
		"quantity", alert.Quantity,
		"bill_id", payload.BillID,
	)
	return nil
}
