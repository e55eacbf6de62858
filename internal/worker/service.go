package worker

import (
	"context"
	"errors"
	"time"

	"github.com/pharmadesk/internal/config"
	"github.com/pharmadesk/internal/logger"
	"github.com/pharmadesk/internal/queue"
	"github.com/pharmadesk/internal/service"

	"github.com/hibiken/asynq"
)

const defaultExpiryScanInterval = time.Hour

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务，阻塞至 ctx 结束
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// ExpiryScanner 临期扫描接口
type ExpiryScanner interface {
	ScanExpiring(now time.Time) (int, error)
}

// ExpiryScanService 定时扫描临期药品并记录预警
type ExpiryScanService struct {
	name     string
	scanner  ExpiryScanner
	interval time.Duration
	now      func() time.Time
}

// NewExpiryScanService 创建临期扫描服务
func NewExpiryScanService(scanner ExpiryScanner, interval time.Duration) *ExpiryScanService {
	if interval <= 0 {
		interval = defaultExpiryScanInterval
	}
	return &ExpiryScanService{
		name:     "expiry_scan",
		scanner:  scanner,
		interval: interval,
		now:      time.Now,
	}
}

// Name 服务名称
func (s *ExpiryScanService) Name() string {
	if s == nil || s.name == "" {
		return "expiry_scan"
	}
	return s.name
}

// Start 立即扫描一次，之后按间隔扫描，阻塞至 ctx 结束
func (s *ExpiryScanService) Start(ctx context.Context) error {
	if s == nil || s.scanner == nil {
		return errors.New("expiry scanner not initialized")
	}
	s.RunOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.RunOnce()
		}
	}
}

// Stop 停止服务
func (s *ExpiryScanService) Stop(context.Context) error {
	return nil
}

// RunOnce 执行一次扫描
func (s *ExpiryScanService) RunOnce() int {
	created, err := s.scanner.ScanExpiring(s.now())
	if err != nil {
		logger.Warnw("worker_expiry_scan_failed", "error", err)
		return created
	}
	if created > 0 {
		logger.Warnw("worker_expiry_scan_alerts_recorded", "count", created)
	}
	return created
}

var _ ExpiryScanner = (*service.InventoryService)(nil)
