package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pharmadesk/internal/cache"
	"github.com/pharmadesk/internal/config"
	"github.com/pharmadesk/internal/models"
	"github.com/pharmadesk/internal/provider"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type fakeService struct {
	name     string
	startErr error
	stopped  atomic.Bool
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *fakeService) Stop(context.Context) error {
	s.stopped.Store(true)
	return nil
}

func TestRunnerStopsAllServicesOnCancel(t *testing.T) {
	a := &fakeService{name: "a"}
	b := &fakeService{name: "b"}
	runner := NewRunner(a, b)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := runner.Run(ctx, time.Second, nil); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("run returned unexpected error: %v", err)
	}
	if !a.stopped.Load() || !b.stopped.Load() {
		t.Fatalf("all services should be stopped")
	}
}

func TestRunnerReturnsStartError(t *testing.T) {
	failing := &fakeService{name: "failing", startErr: errors.New("bind failed")}
	other := &fakeService{name: "other"}

	bindErr := failing.startErr
	err := NewRunner(failing, other).Run(context.Background(), time.Second, nil)
	if !errors.Is(err, bindErr) || err.Error() != "service failing: bind failed" {
		t.Fatalf("want wrapped bind failed, got %v", err)
	}
	if !other.stopped.Load() {
		t.Fatalf("remaining services should be stopped after a failure")
	}
}

func TestRunnerWithoutServices(t *testing.T) {
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("empty runner should fail")
	}
}

type orderedService struct {
	name  string
	order *[]string
}

func (s *orderedService) Name() string { return s.name }

func (s *orderedService) Start(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (s *orderedService) Stop(context.Context) error {
	*s.order = append(*s.order, s.name)
	return nil
}

type failingStopService struct{ fakeService }

func (s *failingStopService) Stop(context.Context) error { return errors.New("drain timeout") }

func TestRunnerStopsInReverseOrder(t *testing.T) {
	var order []string
	runner := NewRunner(&orderedService{name: "http", order: &order}, nil, &orderedService{name: "expiry_scan", order: &order})
	if got := strings.Join(runner.Names(), ","); got != "http,expiry_scan" {
		t.Fatalf("nil services should be skipped, got %s", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runner.Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancelled run should return nil, got %v", err)
	}
	if got := strings.Join(order, ","); got != "expiry_scan,http" {
		t.Fatalf("stop order want expiry_scan,http got %s", got)
	}
}

func TestRunnerReportsStopFailure(t *testing.T) {
	svc := &failingStopService{fakeService{name: "worker"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewRunner(svc).Run(ctx, time.Second, nil)
	if err == nil || !strings.Contains(err.Error(), "stop worker: drain timeout") {
		t.Fatalf("want stop failure, got %v", err)
	}
}

func newTestContainer(t *testing.T, cfg *config.Config) *provider.Container {
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
	return provider.NewContainerWithDB(cfg, db, nil)
}

func TestBuildRunnerModes(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{Host: "127.0.0.1", Port: "0", Mode: "debug"}}
	container := newTestContainer(t, cfg)

	runner, err := buildRunner(cfg, ModeAll, container)
	if err != nil {
		t.Fatalf("build all mode failed: %v", err)
	}
	if got := strings.Join(runner.Names(), ","); got != "http,expiry_scan" {
		t.Fatalf("all mode without queue want http,expiry_scan got %s", got)
	}

	runner, err = buildRunner(cfg, ModeAPI, container)
	if err != nil {
		t.Fatalf("build api mode failed: %v", err)
	}
	if got := strings.Join(runner.Names(), ","); got != "http" {
		t.Fatalf("api mode want http got %s", got)
	}

	if _, err := buildRunner(cfg, ModeWorker, container); err == nil {
		t.Fatalf("worker mode without queue should fail")
	}
	if _, err := BuildRunner(cfg, "batch"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
}

func TestHTTPServiceServesAndStops(t *testing.T) {
	svc := NewHTTPService("127.0.0.1:0", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Start(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for svc.Addr() == "127.0.0.1:0" {
		if time.Now().After(deadline) {
			t.Fatalf("http service did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}
	resp, err := http.Get("http://" + svc.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status want 200 got %d", resp.StatusCode)
	}

	if err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("start should return nil after shutdown, got %v", err)
	}
}

func TestHTTPServiceBindFailure(t *testing.T) {
	first := NewHTTPService("127.0.0.1:0", http.NotFoundHandler())
	go func() { _ = first.Start(context.Background()) }()
	t.Cleanup(func() { _ = first.Stop(context.Background()) })

	deadline := time.Now().Add(2 * time.Second)
	for first.Addr() == "127.0.0.1:0" {
		if time.Now().After(deadline) {
			t.Fatalf("first service did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}
	second := NewHTTPService(first.Addr(), http.NotFoundHandler())
	if err := second.Start(context.Background()); err == nil {
		t.Fatalf("binding a used port should fail")
	}
}
