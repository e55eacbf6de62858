package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pharmadesk/internal/billing"
	"github.com/pharmadesk/internal/config"
	"github.com/pharmadesk/internal/logger"
	"github.com/pharmadesk/internal/pos"
	"github.com/pharmadesk/internal/posclient"
)

func main() {
	os.Exit(run())
}

// run 返回进程退出码，保证 defer 中的会话关闭与日志刷新先执行
func run() int {
	var baseURL string
	flag.StringVar(&baseURL, "server", "", "API 地址（默认读取 pos.base_url）")
	flag.Parse()

	// 终端交互时日志只写文件
	cfg := config.Load()
	logOptions := cfg.Log.ToLoggerOptions(logger.ComponentPOS)
	logOptions.Quiet = true
	logger.Init(cfg.Server.Mode, logOptions)
	defer logger.Sync()

	if strings.TrimSpace(baseURL) == "" {
		baseURL = cfg.POS.BaseURL
	}
	client := posclient.New(baseURL, posclient.WithTimeout(cfg.POS.RequestTimeout()))
	cart := billing.NewCart(client, billing.WithTaxRate(cfg.Billing.TaxRateDecimal()))
	session := pos.NewSession(cart, client, client, os.Stdout,
		billing.WithDelay(cfg.POS.SearchDebounce()),
		billing.WithMinQueryLength(cfg.POS.MinQueryLength),
	)
	defer session.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		// 第一次信号后恢复默认处理，再按 Ctrl-C 直接退出
		<-ctx.Done()
		stop()
	}()

	logger.Infow("pos_start", "server", baseURL)
	err := session.Run(ctx, os.Stdin)
	if ctx.Err() != nil {
		logger.Infow("pos_interrupted")
		fmt.Fprintln(os.Stdout)
		return 0
	}
	if err != nil {
		logger.Errorw("pos_session_failed", "error", err)
		fmt.Fprintf(os.Stderr, "pos session ended: %v\n", err)
		return 1
	}
	return 0
}
