package billing

import (
	"errors"
	"fmt"
)

var (
	ErrMaxStockReached         = errors.New("maximum stock quantity reached for this item")
	ErrOutOfStock              = errors.New("item is out of stock")
	ErrInsufficientStock       = errors.New("requested quantity exceeds available stock")
	ErrInvalidQuantity         = errors.New("quantity must be at least 1")
	ErrLineNotFound            = errors.New("bill line not found")
	ErrNothingToBill           = errors.New("cannot process an empty bill")
	ErrSubmitInProgress        = errors.New("bill submission in progress")
	ErrNotAwaitingConfirmation = errors.New("bill is not awaiting confirmation")
	ErrSubmitFailed            = errors.New("bill submission failed")
)

// InsufficientStockError 携带被拒行的库存上限
type InsufficientStockError struct {
	ProductID uint
	Requested int
	MaxStock  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d units available in stock", e.MaxStock)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// UserMessage 将购物车错误转为收银员可读的提示
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var stockErr *InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return fmt.Sprintf("Only %d units available in stock.", stockErr.MaxStock)
	case errors.Is(err, ErrMaxStockReached):
		return "Maximum stock quantity reached for this item."
	case errors.Is(err, ErrOutOfStock):
		return "This item is out of stock."
	case errors.Is(err, ErrInvalidQuantity):
		return "Quantity must be at least 1."
	case errors.Is(err, ErrLineNotFound):
		return "That item is not on the bill."
	case errors.Is(err, ErrNothingToBill):
		return "Cannot process an empty bill."
	case errors.Is(err, ErrSubmitInProgress):
		return "A sale is already being processed."
	case errors.Is(err, ErrNotAwaitingConfirmation):
		return "Nothing is waiting for confirmation."
	case errors.Is(err, ErrSubmitFailed):
		var rejected *RejectedError
		if errors.As(err, &rejected) && rejected.Message != "" {
			return rejected.Message
		}
		return "A critical error occurred. Please try again."
	default:
		return "An error occurred."
	}
}

// RejectedError 服务端未返回成功时由 Submitter 返回
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "bill rejected by service"
	}
	return "bill rejected by service: " + e.Message
}
