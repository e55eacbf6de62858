package repository

import (
	"testing"
	"time"

	"github.com/pharmadesk/internal/constants"
	"github.com/pharmadesk/internal/models"
)

func TestStockAlertExistsSinceAndList(t *testing.T) {
	repo := NewStockAlertRepository(openRepositoryTestDB(t))
	start := time.Now().Add(-time.Minute)

	if err := repo.Create(&models.StockAlert{MedicineID: 1, MedicineName: "A", Kind: constants.StockAlertLowStock, Quantity: 3}); err != nil {
		t.Fatalf("create alert failed: %v", err)
	}
	if err := repo.Create(&models.StockAlert{MedicineID: 2, MedicineName: "B", Kind: constants.StockAlertExpiringSoon, ExpiryDate: "2026-10-20"}); err != nil {
		t.Fatalf("create alert failed: %v", err)
	}

	exists, err := repo.ExistsSince(1, constants.StockAlertLowStock, start)
	if err != nil || !exists {
		t.Fatalf("alert should exist: %v %v", exists, err)
	}
	exists, err = repo.ExistsSince(1, constants.StockAlertOutOfStock, start)
	if err != nil || exists {
		t.Fatalf("different kind should not exist: %v %v", exists, err)
	}
	exists, err = repo.ExistsSince(1, constants.StockAlertLowStock, time.Now().Add(time.Hour))
	if err != nil || exists {
		t.Fatalf("future window should not match: %v %v", exists, err)
	}

	alerts, total, err := repo.List(StockAlertListFilter{Kind: constants.StockAlertExpiringSoon})
	if err != nil {
		t.Fatalf("list alerts failed: %v", err)
	}
	if total != 1 || alerts[0].MedicineID != 2 {
		t.Fatalf("kind filter mismatch: %+v", alerts)
	}

	all, total, err := repo.List(StockAlertListFilter{})
	if err != nil {
		t.Fatalf("list alerts failed: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Fatalf("all alerts want 2 got %d", total)
	}
}
