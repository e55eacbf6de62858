package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/pharmadesk/internal/config"
	"github.com/pharmadesk/internal/logger"

	"go.uber.org/zap"
)

// 启动模式
const (
	ModeAll    = "all"    // HTTP + 队列消费者 + 临期扫描
	ModeAPI    = "api"    // 仅 HTTP
	ModeWorker = "worker" // 队列消费者 + 临期扫描
)

// Options 应用启动选项
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            string
}

func normalizeOptions(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultStopTimeout
	}
	if opts.Mode == "" {
		opts.Mode = ModeAll
	}
	return opts
}

// RunWithOptions 运行服务直到收到退出信号
func RunWithOptions(runner *Runner, opts Options) error {
	if runner == nil {
		return errors.New("runner is nil")
	}
	opts = normalizeOptions(opts)
	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, opts.Signals...)
		defer cancel()
	}
	opts.Logger.Infow("app_services", "mode", opts.Mode, "services", runner.Names())
	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}
