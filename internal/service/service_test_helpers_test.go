package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pharmadesk/internal/cache"
	"github.com/pharmadesk/internal/models"
	"github.com/pharmadesk/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type serviceTestEnv struct {
	db        *gorm.DB
	medicines *repository.GormMedicineRepository
	sales     *repository.GormSaleRepository
	dashboard *repository.GormDashboardRepository
	alerts    *repository.GormStockAlertRepository
}

func setupServiceTest(t *testing.T) *serviceTestEnv {
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
	return &serviceTestEnv{
		db:        db,
		medicines: repository.NewMedicineRepository(db),
		sales:     repository.NewSaleRepository(db),
		dashboard: repository.NewDashboardRepository(db),
		alerts:    repository.NewStockAlertRepository(db),
	}
}

func useTestRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	cache.UseClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")
	t.Cleanup(func() {
		_ = cache.Close()
	})
	return mr
}

func (env *serviceTestEnv) addMedicine(t *testing.T, name, manufacturer, expiry string, quantity int, price string) *models.Medicine {
	t.Helper()
	medicine := &models.Medicine{
		Name:         name,
		Manufacturer: manufacturer,
		ExpiryDate:   expiry,
		Quantity:     quantity,
		Price:        testMoney(price),
	}
	if err := env.medicines.Create(medicine); err != nil {
		t.Fatalf("create medicine failed: %v", err)
	}
	return medicine
}

func (env *serviceTestEnv) reload(t *testing.T, id uint) *models.Medicine {
	t.Helper()
	medicine, err := env.medicines.GetByID(id)
	if err != nil || medicine == nil {
		t.Fatalf("reload medicine %d failed: %v", id, err)
	}
	return medicine
}

func testMoney(raw string) models.Money {
	return models.NewMoneyFromDecimal(decimal.RequireFromString(raw))
}

func fixedClock(value time.Time) func() time.Time {
	return func() time.Time { return value }
}
