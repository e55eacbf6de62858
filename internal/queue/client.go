package queue

import (
	"errors"
	"fmt"
	"time"

	"github.com/pharmadesk/internal/config"
	"github.com/pharmadesk/internal/constants"
	"github.com/pharmadesk/internal/logger"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault

	defaultAlertDedupWindow = 5 * time.Minute
	stockAlertMaxRetry      = 3
)

// Client 库存预警任务投递；未启用时所有投递为空操作
type Client struct {
	client      *asynq.Client
	dedupWindow time.Duration
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	window := time.Duration(cfg.AlertDedupSeconds) * time.Second
	if window <= 0 {
		window = defaultAlertDedupWindow
	}
	return &Client{
		client:      asynq.NewClient(buildRedisOpt(cfg)),
		dedupWindow: window,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueueStockAlert 推送库存预警任务。同一药品在去重窗口内只保留一个任务，
// 连续开单不会堆积重复预警。
func (c *Client) EnqueueStockAlert(payload StockAlertPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewStockAlertTask(payload)
	if err != nil {
		return err
	}
	options := append(stockAlertOptions(payload.MedicineID, c.dedupWindow), opts...)
	info, err := c.client.Enqueue(task, options...)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		logger.Debugw("queue_stock_alert_deduplicated", "medicine_id", payload.MedicineID, "bill_id", payload.BillID)
		return nil
	}
	if err != nil {
		return err
	}
	logger.Debugw("queue_stock_alert_enqueued", "task_id", info.ID, "medicine_id", payload.MedicineID)
	return nil
}

func stockAlertOptions(medicineID uint, dedupWindow time.Duration) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(constants.QueueCritical),
		asynq.MaxRetry(stockAlertMaxRetry),
		asynq.TaskID(StockAlertTaskID(medicineID)),
		asynq.Retention(dedupWindow),
	}
}

// StockAlertTaskID 按药品生成的任务 ID
func StockAlertTaskID(medicineID uint) string {
	return fmt.Sprintf("%s:%d", TaskStockAlert, medicineID)
}

// BuildServerConfig 生成队列服务配置，critical 队列权重更高
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := 10
	queues := map[string]int{DefaultQueue: 1, constants.QueueCritical: 2}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			queues = cfg.Queues
		}
	}
	return buildRedisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
		Logger:      logger.S(),
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	if cfg == nil {
		cfg = &config.QueueConfig{}
	}
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}
