package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pharmadesk/internal/cache"
	"github.com/pharmadesk/internal/config"
	publichandlers "github.com/pharmadesk/internal/http/handlers/public"
	"github.com/pharmadesk/internal/http/response"
	"github.com/pharmadesk/internal/logger"
	"github.com/pharmadesk/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions(logger.ComponentServer))
	}
	r := gin.New()

	handler := publichandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "pd"
	}
	redisClient := cache.Client()
	searchRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:search", redisPrefix),
		WindowSeconds: cfg.Security.RateLimit.Search.WindowSeconds,
		MaxRequests:   cfg.Security.RateLimit.Search.MaxRequests,
	}
	billingRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:billing", redisPrefix),
		WindowSeconds: cfg.Security.RateLimit.Billing.WindowSeconds,
		MaxRequests:   cfg.Security.RateLimit.Billing.MaxRequests,
	}

	// 中间件
	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(log))
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/healthz", healthHandler(c))

	api := r.Group("/api")
	{
		inventory := api.Group("/inventory")
		{
			inventory.GET("/search", RateLimitMiddleware(redisClient, searchRule, KeyByIP), handler.SearchInventory)
			inventory.POST("/add", handler.AddMedicine)
			inventory.GET("/all", handler.ListInventory)
			inventory.GET("/summary", handler.InventorySummary)
			inventory.GET("/low_stock", handler.LowStockSummary)
			inventory.GET("/low_stock/items", handler.LowStockItems)
			inventory.GET("/expiring_soon", handler.ExpiringSoon)
			inventory.GET("/status_distribution", handler.StatusDistribution)
			inventory.GET("/alerts", handler.ListStockAlerts)
		}

		billing := api.Group("/billing")
		{
			billing.POST("/create", RateLimitMiddleware(redisClient, billingRule, KeyByIP), handler.CreateBill)
			billing.GET("/:id", handler.GetBill)
		}

		sales := api.Group("/sales")
		{
			sales.GET("/summary", handler.SalesSummary)
			sales.GET("/today", handler.TodaySales)
			sales.GET("/previous/all", handler.PreviousSales)
			sales.GET("/kpi_summary/:scope", handler.SalesKPI)
		}
	}

	r.NoRoute(func(ctx *gin.Context) {
		response.Error(ctx, http.StatusNotFound, "Not found.")
	})

	return r
}

// healthHandler 数据库不可用时返回 503；缓存状态仅作展示
func healthHandler(c *provider.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if err := c.PingDB(ctx.Request.Context()); err != nil {
			logger.Warnw("healthz_db_unavailable", "error", err)
			response.Error(ctx, response.CodeUnavailable, "Database unavailable.")
			return
		}
		response.Success(ctx, gin.H{"status": "ok", "cache": cache.Status(ctx.Request.Context())})
	}
}
