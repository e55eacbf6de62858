package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pharmadesk/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func openRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate models failed: %v", err)
	}
	return db
}

func createTestMedicine(t *testing.T, repo *GormMedicineRepository, name, manufacturer, expiry string, quantity int, price string) *models.Medicine {
	t.Helper()
	medicine := &models.Medicine{
		Name:         name,
		Manufacturer: manufacturer,
		ExpiryDate:   expiry,
		Quantity:     quantity,
		Price:        models.NewMoneyFromDecimal(decimal.RequireFromString(price)),
	}
	if err := repo.Create(medicine); err != nil {
		t.Fatalf("create medicine failed: %v", err)
	}
	return medicine
}

func TestMedicineSearchMatchesNameOrManufacturer(t *testing.T) {
	repo := NewMedicineRepository(openRepositoryTestDB(t))
	createTestMedicine(t, repo, "Paracetamol", "Acme", "2030-01-01", 50, "10.00")
	createTestMedicine(t, repo, "Ibuprofen", "ParaPharm", "2030-01-01", 5, "7.50")
	createTestMedicine(t, repo, "Amoxicillin", "Zen Labs", "2030-01-01", 0, "3.00")

	got, err := repo.Search("PARA")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("search want 2 results got %d", len(got))
	}
	if got[0].Name != "Paracetamol" || got[1].Name != "Ibuprofen" {
		t.Fatalf("unexpected search order: %s, %s", got[0].Name, got[1].Name)
	}

	empty, err := repo.Search("   ")
	if err != nil {
		t.Fatalf("blank search failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("blank search should be empty, got %d", len(empty))
	}
}

func TestMedicineSearchEscapesWildcards(t *testing.T) {
	repo := NewMedicineRepository(openRepositoryTestDB(t))
	createTestMedicine(t, repo, "Vitamin C 100%", "Acme", "2030-01-01", 10, "1.00")
	createTestMedicine(t, repo, "Vitamin D", "Acme", "2030-01-01", 10, "1.00")

	got, err := repo.Search("%")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Vitamin C 100%" {
		t.Fatalf("percent should be literal, got %+v", got)
	}
}

func TestMedicineDecrementStockIsConditional(t *testing.T) {
	repo := NewMedicineRepository(openRepositoryTestDB(t))
	medicine := createTestMedicine(t, repo, "Cetirizine", "Acme", "2030-01-01", 3, "2.00")

	rows, err := repo.DecrementStock(medicine.ID, 5)
	if err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if rows != 0 {
		t.Fatalf("oversized decrement should affect 0 rows, got %d", rows)
	}

	rows, err = repo.DecrementStock(medicine.ID, 3)
	if err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if rows != 1 {
		t.Fatalf("decrement should affect 1 row, got %d", rows)
	}

	reloaded, err := repo.GetByID(medicine.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Quantity != 0 {
		t.Fatalf("quantity want 0 got %d", reloaded.Quantity)
	}

	if _, err := repo.DecrementStock(medicine.ID, 0); err == nil {
		t.Fatalf("zero decrement should fail")
	}
}

func TestMedicineFindByNameAndManufacturerIgnoresCase(t *testing.T) {
	repo := NewMedicineRepository(openRepositoryTestDB(t))
	created := createTestMedicine(t, repo, "Paracetamol", "Acme", "2030-01-01", 5, "10.00")

	found, err := repo.FindByNameAndManufacturer("  paracetamol ", "ACME")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if found == nil || found.ID != created.ID {
		t.Fatalf("expected to find medicine %d, got %+v", created.ID, found)
	}

	missing, err := repo.FindByNameAndManufacturer("paracetamol", "Other")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("different manufacturer should not match")
	}
}

func TestMedicineStockAggregates(t *testing.T) {
	repo := NewMedicineRepository(openRepositoryTestDB(t))
	createTestMedicine(t, repo, "A", "X", "2030-01-01", 0, "1.00")
	createTestMedicine(t, repo, "B", "X", "2030-01-01", 10, "1.00")
	createTestMedicine(t, repo, "C", "X", "2030-01-01", 20, "1.00")
	createTestMedicine(t, repo, "D", "X", "2030-01-01", 21, "1.00")

	total, err := repo.SumQuantity()
	if err != nil {
		t.Fatalf("sum failed: %v", err)
	}
	if total != 51 {
		t.Fatalf("sum want 51 got %d", total)
	}

	low, err := repo.CountLowStock(20)
	if err != nil {
		t.Fatalf("count low failed: %v", err)
	}
	if low != 2 {
		t.Fatalf("low stock want 2 got %d", low)
	}

	items, count, err := repo.List(MedicineListFilter{LowStockThreshold: 20})
	if err != nil {
		t.Fatalf("list low failed: %v", err)
	}
	if count != 2 || len(items) != 2 {
		t.Fatalf("low list want 2 got count=%d len=%d", count, len(items))
	}

	paged, count, err := repo.List(MedicineListFilter{Page: 2, PageSize: 3})
	if err != nil {
		t.Fatalf("paged list failed: %v", err)
	}
	if count != 4 || len(paged) != 1 || paged[0].Name != "D" {
		t.Fatalf("second page mismatch: count=%d items=%+v", count, paged)
	}
}

func TestMedicineListExpiringBetween(t *testing.T) {
	repo := NewMedicineRepository(openRepositoryTestDB(t))
	createTestMedicine(t, repo, "Past", "X", "2026-01-01", 5, "1.00")
	createTestMedicine(t, repo, "Soon", "X", "2026-02-10", 5, "1.00")
	createTestMedicine(t, repo, "Later", "X", "2026-06-01", 5, "1.00")

	got, err := repo.ListExpiringBetween("2026-02-01", "2026-03-03")
	if err != nil {
		t.Fatalf("list expiring failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Soon" {
		t.Fatalf("expiring list mismatch: %+v", got)
	}
}

func TestMedicineRestockIsIncremental(t *testing.T) {
	repo := NewMedicineRepository(openRepositoryTestDB(t))
	medicine := createTestMedicine(t, repo, "Aspirin", "Bayer", "2030-01-01", 10, "5.00")

	// 内存中的旧快照不参与写入
	stale := *medicine
	if rows, err := repo.DecrementStock(medicine.ID, 4); err != nil || rows != 1 {
		t.Fatalf("decrement failed: rows=%d err=%v", rows, err)
	}
	if rows, err := repo.Restock(stale.ID, 5, nil); err != nil || rows != 1 {
		t.Fatalf("restock failed: rows=%d err=%v", rows, err)
	}
	stored, err := repo.GetByID(medicine.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if stored.Quantity != 11 {
		t.Fatalf("quantity after -4 and +5 from 10 want 11 got %d", stored.Quantity)
	}
	if stored.Price.String() != "5.00" {
		t.Fatalf("price should be kept when nil, got %s", stored.Price)
	}

	price := models.NewMoneyFromDecimal(decimal.RequireFromString("6.25"))
	if _, err := repo.Restock(medicine.ID, 0, &price); err != nil {
		t.Fatalf("price only restock failed: %v", err)
	}
	stored, _ = repo.GetByID(medicine.ID)
	if stored.Quantity != 11 || stored.Price.String() != "6.25" {
		t.Fatalf("unexpected row after price update: qty=%d price=%s", stored.Quantity, stored.Price)
	}

	if rows, err := repo.Restock(9999, 1, nil); err != nil || rows != 0 {
		t.Fatalf("missing medicine should affect 0 rows, got rows=%d err=%v", rows, err)
	}
	if _, err := repo.Restock(medicine.ID, -1, nil); err == nil {
		t.Fatalf("negative restock should fail")
	}
}

func TestMedicineSearchFoldsNonASCIICase(t *testing.T) {
	repo := NewMedicineRepository(openRepositoryTestDB(t))
	balsam := createTestMedicine(t, repo, "Ärzte Balsam", "Acme", "2030-01-01", 5, "4.00")
	createTestMedicine(t, repo, "Kamille", "Ökopharm", "2030-01-01", 5, "2.00")
	createTestMedicine(t, repo, "Aspirin", "Bayer", "2030-01-01", 5, "1.00")

	for _, query := range []string{"ärzte", "ÄRZTE", "Ärzte bal"} {
		got, err := repo.Search(query)
		if err != nil {
			t.Fatalf("search %q failed: %v", query, err)
		}
		if len(got) != 1 || got[0].ID != balsam.ID {
			t.Fatalf("search %q should match Ärzte Balsam, got %+v", query, got)
		}
	}
	got, err := repo.Search("ökopharm")
	if err != nil || len(got) != 1 || got[0].Name != "Kamille" {
		t.Fatalf("manufacturer search should fold case, got %+v err=%v", got, err)
	}
	got, err = repo.Search("ASP")
	if err != nil || len(got) != 1 || got[0].Name != "Aspirin" {
		t.Fatalf("ascii search should keep working, got %+v err=%v", got, err)
	}
}
