package app

import (
	"errors"
	"time"

	"github.com/pharmadesk/internal/config"
	"github.com/pharmadesk/internal/logger"
	"github.com/pharmadesk/internal/provider"
	"github.com/pharmadesk/internal/router"
	"github.com/pharmadesk/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := validateMode(mode); err != nil {
		return nil, err
	}
	return buildRunner(cfg, mode, provider.NewContainer(cfg))
}

func validateMode(mode string) error {
	switch mode {
	case ModeAll, ModeAPI, ModeWorker:
		return nil
	default:
		return errors.New("unknown mode: " + mode)
	}
}

func buildRunner(cfg *config.Config, mode string, container *provider.Container) (*Runner, error) {
	if err := validateMode(mode); err != nil {
		return nil, err
	}

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService(addr, engine))
	}

	if mode == ModeAll || mode == ModeWorker {
		// 队列消费者；all 模式下队列关闭时库存预警在开单后同步处理
		if cfg.Queue.Enabled {
			workerService, err := worker.NewService(&cfg.Queue, worker.NewConsumer(container))
			if err != nil {
				return nil, err
			}
			services = append(services, workerService)
		} else if mode == ModeWorker {
			return nil, errors.New("worker mode requires queue.enabled")
		} else {
			logger.Infow("app_queue_disabled", "stock_alert", "inline")
		}

		interval := time.Duration(cfg.Inventory.ExpiryScanIntervalMinutes) * time.Minute
		services = append(services, worker.NewExpiryScanService(container.InventoryService, interval))
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
