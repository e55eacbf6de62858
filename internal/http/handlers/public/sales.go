package public

import (
	"strings"

	handlershared "github.com/pharmadesk/internal/http/handlers/shared"
	"github.com/pharmadesk/internal/http/response"
	"github.com/pharmadesk/internal/models"

	"github.com/gin-gonic/gin"
)

// SalesSummary 今日营业额
func (h *Handler) SalesSummary(c *gin.Context) {
	revenue, err := h.SalesService.TodayRevenue()
	if err != nil {
		respondError(c, response.CodeInternal, msgSalesFailed, err)
		return
	}
	response.Success(c, gin.H{"todays_sales": revenue})
}

// TodaySales 今日销售明细
func (h *Handler) TodaySales(c *gin.Context) {
	h.respondSaleRecords(c, h.SalesService.Today)
}

// PreviousSales 历史销售明细
func (h *Handler) PreviousSales(c *gin.Context) {
	h.respondSaleRecords(c, h.SalesService.Previous)
}

// SalesKPI 销售指标（today / previous），refresh=1 时跳过缓存
func (h *Handler) SalesKPI(c *gin.Context) {
	forceRefresh := strings.TrimSpace(c.Query("refresh")) == "1"
	kpi, err := h.SalesService.KPI(c.Request.Context(), c.Param("scope"), forceRefresh)
	if err != nil {
		respondSalesKPIError(c, err)
		return
	}
	response.Success(c, kpi)
}

func (h *Handler) respondSaleRecords(c *gin.Context, list func(page, pageSize int) ([]models.SaleRecord, int64, error)) {
	page, pageSize, paged := handlershared.ParsePagination(c)
	records, total, err := list(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, msgSalesFailed, err)
		return
	}
	if !paged {
		response.Success(c, records)
		return
	}
	response.SuccessWithPage(c, records, response.NewPagination(page, pageSize, total))
}
