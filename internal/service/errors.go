package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidMedicineInput  = errors.New("invalid medicine input")
	ErrInvalidExpiryDate     = errors.New("invalid expiry date")
	ErrEmptyBill             = errors.New("no items in bill")
	ErrInvalidBillItem       = errors.New("invalid bill item")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrBillCreateFailed      = errors.New("bill create failed")
	ErrInvalidSalesScope     = errors.New("invalid sales scope")
	ErrInventoryQueryFailed  = errors.New("inventory query failed")
	ErrSalesQueryFailed      = errors.New("sales query failed")
	ErrStockAlertCheckFailed = errors.New("stock alert check failed")
)

// StockShortageError 指明库存不足的药品
type StockShortageError struct {
	MedicineID uint
	Name       string
	Requested  int
	Available  int
}

func (e *StockShortageError) Error() string {
	return fmt.Sprintf("not enough stock for %s", e.Name)
}

// Is 使 errors.Is(err, ErrInsufficientStock) 成立
func (e *StockShortageError) Is(target error) bool {
	return target == ErrInsufficientStock
}
