package public

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	handlershared "github.com/pharmadesk/internal/http/handlers/shared"
	"github.com/pharmadesk/internal/http/response"
	"github.com/pharmadesk/internal/service"

	"github.com/gin-gonic/gin"
)

// flexValue 兼容 JSON 字符串与数字的字段
type flexValue string

// UnmarshalJSON 接受字符串、数字或 null
func (v *flexValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*v = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = flexValue(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*v = flexValue(n.String())
	return nil
}

// AddMedicineRequest 新增药品请求
type AddMedicineRequest struct {
	Name         string    `json:"name"`
	Manufacturer string    `json:"Manufacturer"`
	ExpiryDate   string    `json:"expiry_date"`
	Quantity     flexValue `json:"quantity"`
	Price        flexValue `json:"price"`
}

func (r AddMedicineRequest) toInput() (service.AddMedicineInput, error) {
	quantity := 0
	if raw := string(r.Quantity); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return service.AddMedicineInput{}, service.ErrInvalidMedicineInput
		}
		quantity = parsed
	}
	price, err := service.ParsePrice(string(r.Price))
	if err != nil {
		return service.AddMedicineInput{}, err
	}
	return service.AddMedicineInput{
		Name:         r.Name,
		Manufacturer: r.Manufacturer,
		ExpiryDate:   r.ExpiryDate,
		Quantity:     quantity,
		Price:        price,
	}, nil
}

// SearchInventory 按名称或厂家搜索药品
func (h *Handler) SearchInventory(c *gin.Context) {
	query := strings.ToLower(strings.TrimSpace(c.Query("q")))
	views, err := h.InventoryService.Search(c.Request.Context(), query)
	if err != nil {
		respondError(c, response.CodeInternal, msgInventoryFailed, err)
		return
	}
	response.Success(c, views)
}

// AddMedicine 新增药品或合并库存
func (h *Handler) AddMedicine(c *gin.Context) {
	var req AddMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, msgInvalidQtyOrPrice, nil)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(c, response.CodeBadRequest, msgInvalidMedicineName, nil)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondAddMedicineError(c, err)
		return
	}
	result, err := h.InventoryService.AddMedicine(c.Request.Context(), input)
	if err != nil {
		respondAddMedicineError(c, err)
		return
	}
	response.SuccessWithMsg(c, result.Message)
}

// ListInventory 全部药品（传 page_size 时分页）
func (h *Handler) ListInventory(c *gin.Context) {
	page, pageSize, paged := handlershared.ParsePagination(c)
	views, total, err := h.InventoryService.ListAll(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, msgInventoryFailed, err)
		return
	}
	if !paged {
		response.Success(c, views)
		return
	}
	response.SuccessWithPage(c, views, response.NewPagination(page, pageSize, total))
}

// InventorySummary 库存总量
func (h *Handler) InventorySummary(c *gin.Context) {
	total, err := h.InventoryService.TotalQuantity()
	if err != nil {
		respondError(c, response.CodeInternal, msgInventoryFailed, err)
		return
	}
	response.Success(c, gin.H{"total_quantity": total})
}

// LowStockSummary 低库存药品数
func (h *Handler) LowStockSummary(c *gin.Context) {
	count, err := h.InventoryService.LowStockCount()
	if err != nil {
		respondError(c, response.CodeInternal, msgInventoryFailed, err)
		return
	}
	response.Success(c, gin.H{"low_stock_count": count})
}

// LowStockItems 低库存药品列表
func (h *Handler) LowStockItems(c *gin.Context) {
	views, err := h.InventoryService.LowStockItems()
	if err != nil {
		respondError(c, response.CodeInternal, msgInventoryFailed, err)
		return
	}
	response.Success(c, views)
}

// ExpiringSoon 临期药品列表
func (h *Handler) ExpiringSoon(c *gin.Context) {
	views, err := h.InventoryService.ExpiringSoon()
	if err != nil {
		respondError(c, response.CodeInternal, msgInventoryFailed, err)
		return
	}
	response.Success(c, views)
}

// StatusDistribution 各库存状态占比
func (h *Handler) StatusDistribution(c *gin.Context) {
	distribution, err := h.InventoryService.StatusDistribution()
	if err != nil {
		respondError(c, response.CodeInternal, msgInventoryFailed, err)
		return
	}
	response.Success(c, distribution)
}

// ListStockAlerts 库存预警列表，可按 kind 过滤
func (h *Handler) ListStockAlerts(c *gin.Context) {
	page, pageSize, paged := handlershared.ParsePagination(c)
	alerts, total, err := h.InventoryService.ListAlerts(c.Query("kind"), page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, msgInventoryFailed, err)
		return
	}
	if !paged {
		response.Success(c, alerts)
		return
	}
	response.SuccessWithPage(c, alerts, response.NewPagination(page, pageSize, total))
}
