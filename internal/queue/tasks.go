package queue

import (
	"encoding/json"
	"fmt"

	"github.com/pharmadesk/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskStockAlert 库存预警任务
	TaskStockAlert = constants.TaskStockAlert
)

// StockAlertPayload 库存预警任务载荷
type StockAlertPayload struct {
	MedicineID uint `json:"medicine_id"`
	BillID     uint `json:"bill_id,omitempty"`
}

// NewStockAlertTask 创建库存预警任务
func NewStockAlertTask(payload StockAlertPayload) (*asynq.Task, error) {
	if payload.MedicineID == 0 {
		return nil, fmt.Errorf("stock alert payload missing medicine id")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockAlert, body), nil
}

// ParseStockAlertPayload 解析库存预警任务载荷
func ParseStockAlertPayload(task *asynq.Task) (StockAlertPayload, error) {
	var payload StockAlertPayload
	if task == nil {
		return payload, fmt.Errorf("stock alert task is nil")
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	if payload.MedicineID == 0 {
		return payload, fmt.Errorf("stock alert payload missing medicine id")
	}
	return payload, nil
}
