package provider

import (
	"context"
	"errors"
	"time"

	"github.com/pharmadesk/internal/cache"
	"github.com/pharmadesk/internal/config"
	"github.com/pharmadesk/internal/logger"
	"github.com/pharmadesk/internal/models"
	"github.com/pharmadesk/internal/queue"
	"github.com/pharmadesk/internal/repository"
	"github.com/pharmadesk/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client

	// Repositories
	MedicineRepo   repository.MedicineRepository
	SaleRepo       repository.SaleRepository
	DashboardRepo  repository.DashboardRepository
	StockAlertRepo repository.StockAlertRepository

	// Services
	InventoryService *service.InventoryService
	BillingService   *service.BillingService
	SalesService     *service.SalesService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	return NewContainerWithDB(cfg, models.DB, queueClient)
}

// NewContainerWithDB 使用给定数据库与队列客户端组装容器，不初始化外部连接
func NewContainerWithDB(cfg *config.Config, db *gorm.DB, queueClient *queue.Client) *Container {
	c := &Container{
		Config:      cfg,
		DB:          db,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories(db)

	// 2. 初始化 Services
	c.initServices()

	return c
}

// PingDB 检查数据库连通性
func (c *Container) PingDB(ctx context.Context) error {
	if c == nil || c.DB == nil {
		return errors.New("database not initialized")
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// StockRules 由配置推导的库存规则
func (c *Container) StockRules() service.StockRules {
	return service.StockRules{
		LowStockThreshold: c.Config.Inventory.LowStockThreshold,
		ExpiringWindow:    c.Config.Inventory.ExpiringWindow(),
	}
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.MedicineRepo = repository.NewMedicineRepository(db)
	c.SaleRepo = repository.NewSaleRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
	c.StockAlertRepo = repository.NewStockAlertRepository(db)
}

func (c *Container) initServices() {
	rules := c.StockRules()
	searchTTL := time.Duration(c.Config.Inventory.SearchCacheSeconds) * time.Second

	c.InventoryService = service.NewInventoryService(c.MedicineRepo, c.StockAlertRepo, rules, searchTTL)
	c.BillingService = service.NewBillingService(
		c.MedicineRepo,
		c.SaleRepo,
		c.QueueClient,
		c.InventoryService,
		c.Config.Billing.TaxRateDecimal(),
		rules,
	)
	c.SalesService = service.NewSalesService(c.SaleRepo, c.DashboardRepo)
}
