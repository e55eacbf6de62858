package public

import (
	"errors"
	"fmt"

	handlershared "github.com/pharmadesk/internal/http/handlers/shared"
	"github.com/pharmadesk/internal/http/response"
	"github.com/pharmadesk/internal/service"

	"github.com/gin-gonic/gin"
)

// 接口文案
const (
	msgNoItemsInBill        = "No items in bill."
	msgNotEnoughStockFormat = "Not enough stock for %s."
	msgNotEnoughStock       = "Not enough stock."
	msgInvalidBillItem      = "Invalid bill item."
	msgInvalidBillPayload   = "Invalid bill payload."
	msgSaleFailed           = "Failed to process sale."
	msgInvalidQtyOrPrice    = "Invalid quantity or price."
	msgInvalidMedicineName  = "Medicine name is required."
	msgInvalidExpiryDate    = "Invalid expiry date."
	msgInventoryFailed      = "Failed to load inventory."
	msgSalesFailed          = "Failed to load sales."
	msgInvalidSalesScope    = "Invalid sales scope."
	msgBillNotFound         = "Bill not found."
	msgInvalidBillID        = "Invalid bill id."
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var addMedicineErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidExpiryDate, code: response.CodeBadRequest, msg: msgInvalidExpiryDate},
	{target: service.ErrInvalidMedicineInput, code: response.CodeBadRequest, msg: msgInvalidQtyOrPrice},
}

var billCommonErrorRules = []mappedHandlerError{
	{target: service.ErrEmptyBill, code: response.CodeBadRequest, msg: msgNoItemsInBill},
	{target: service.ErrInvalidBillItem, code: response.CodeBadRequest, msg: msgInvalidBillItem},
}

var billStockErrorRules = []mappedHandlerError{
	{target: service.ErrInsufficientStock, code: response.CodeBadRequest, msg: msgNotEnoughStock},
}

var billLookupErrorRules = []mappedHandlerError{
	{target: service.ErrNotFound, code: response.CodeNotFound, msg: msgBillNotFound},
}

var salesKPIErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidSalesScope, code: response.CodeNotFound, msg: msgInvalidSalesScope},
}

func respondCreateBillError(c *gin.Context, err error) {
	var shortage *service.StockShortageError
	if errors.As(err, &shortage) {
		respondError(c, response.CodeBadRequest, fmt.Sprintf(msgNotEnoughStockFormat, shortage.Name), nil)
		return
	}
	rules := concatMappedHandlerErrors(billCommonErrorRules, billStockErrorRules)
	respondWithMappedError(c, err, rules, response.CodeInternal, msgSaleFailed)
}

func respondAddMedicineError(c *gin.Context, err error) {
	respondWithMappedError(c, err, addMedicineErrorRules, response.CodeInternal, msgInventoryFailed)
}

func respondGetBillError(c *gin.Context, err error) {
	respondWithMappedError(c, err, billLookupErrorRules, response.CodeInternal, msgSalesFailed)
}

func respondSalesKPIError(c *gin.Context, err error) {
	respondWithMappedError(c, err, salesKPIErrorRules, response.CodeInternal, msgSalesFailed)
}
