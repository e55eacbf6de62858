package public

import (
	handlershared "github.com/pharmadesk/internal/http/handlers/shared"
	"github.com/pharmadesk/internal/http/response"
	"github.com/pharmadesk/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateBillRequest 开单请求
type CreateBillRequest struct {
	Items []service.BillItemInput `json:"items"`
}

// CreateBillResponse 开单响应
type CreateBillResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	BillID  uint   `json:"bill_id"`
}

// CreateBill 开单：校验库存、扣减并记录销售
func (h *Handler) CreateBill(c *gin.Context) {
	var req CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, msgInvalidBillPayload, nil)
		return
	}
	result, err := h.BillingService.CreateBill(c.Request.Context(), req.Items)
	if err != nil {
		respondCreateBillError(c, err)
		return
	}
	handlershared.RequestLog(c).Infow("bill_created",
		"bill_id", result.BillID,
		"items", len(req.Items),
		"grand_total", result.Bill.GrandTotal.String(),
	)
	response.Success(c, CreateBillResponse{
		Success: true,
		Message: result.Message,
		BillID:  result.BillID,
	})
}

// GetBill 账单详情（含销售明细）
func (h *Handler) GetBill(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id", msgInvalidBillID)
	if !ok {
		return
	}
	bill, err := h.SalesService.GetBill(id)
	if err != nil {
		respondGetBillError(c, err)
		return
	}
	response.Success(c, bill)
}
