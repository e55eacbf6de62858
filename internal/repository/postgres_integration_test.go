//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"

	"github.com/pharmadesk/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.StockAlert{},
		&models.SaleRecord{},
		&models.Bill{},
		&models.Medicine{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresMedicineSearchIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewMedicineRepository(db)

	createTestMedicine(t, repo, "Aspirin", "Bayer", "2099-01-01", 10, "5.00")
	createTestMedicine(t, repo, "100%_Pure Saline", "Baxter", "2099-01-01", 10, "2.00")

	items, err := repo.Search("BAYER")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Aspirin" {
		t.Fatalf("unexpected search result: %+v", items)
	}

	items, err = repo.Search("100%_")
	if err != nil {
		t.Fatalf("search with wildcard chars failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("wildcard characters should match literally, got %d", len(items))
	}
}

func TestPostgresBillTransactionAndKPI(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	medicines := NewMedicineRepository(db)
	sales := NewSaleRepository(db)
	dashboard := NewDashboardRepository(db)

	medicine := createTestMedicine(t, medicines, "Aspirin", "Bayer", "2099-01-01", 10, "5.00")

	err := medicines.Transaction(func(tx *gorm.DB) error {
		rows, err := medicines.WithTx(tx).DecrementStock(medicine.ID, 4)
		if err != nil || rows != 1 {
			t.Fatalf("decrement stock failed: rows=%d err=%v", rows, err)
		}
		return sales.WithTx(tx).CreateBill(&models.Bill{
			ItemCount: 1,
			Records: []models.SaleRecord{
				{SaleDate: "2026-10-17", SaleTime: "09:00:00", ProductID: medicine.ID, ProductName: "Aspirin", Quantity: 4, UnitPrice: money("5.00"), TotalAmount: money("20.00")},
			},
		})
	})
	if err != nil {
		t.Fatalf("bill transaction failed: %v", err)
	}

	row, err := dashboard.GetSalesKPI(SaleListFilter{Date: "2026-10-17"})
	if err != nil {
		t.Fatalf("kpi failed: %v", err)
	}
	if row.TotalRevenue != 20 || row.TotalTransactions != 1 || row.TotalItemsSold != 4 {
		t.Fatalf("unexpected kpi: %+v", row)
	}

	rows, err := medicines.DecrementStock(medicine.ID, 7)
	if err != nil {
		t.Fatalf("oversell decrement failed: %v", err)
	}
	if rows != 0 {
		t.Fatalf("oversell must not update stock")
	}
}
