package service

import (
	"strings"
	"time"

	"github.com/pharmadesk/internal/constants"
	"github.com/pharmadesk/internal/models"
)

// MedicineStatus 药品库存状态（文案 + 样式类名）
type MedicineStatus struct {
	Text      string `json:"text"`
	ClassName string `json:"className"`
}

// StockRules 库存状态判定规则
type StockRules struct {
	LowStockThreshold int
	ExpiringWindow    time.Duration
}

// DefaultStockRules 默认规则：低库存 20，临期 30 天
func DefaultStockRules() StockRules {
	return StockRules{
		LowStockThreshold: constants.DefaultLowStockThreshold,
		ExpiringWindow:    constants.DefaultExpiringWindowDays * 24 * time.Hour,
	}
}

func (r StockRules) normalized() StockRules {
	defaults := DefaultStockRules()
	if r.LowStockThreshold <= 0 {
		r.LowStockThreshold = defaults.LowStockThreshold
	}
	if r.ExpiringWindow <= 0 {
		r.ExpiringWindow = defaults.ExpiringWindow
	}
	return r
}

// ExpiringRange 返回临期判定的日期区间 [from, to]
func (r StockRules) ExpiringRange(now time.Time) (string, string) {
	r = r.normalized()
	today := startOfDay(now)
	return today.Format(constants.DateLayout), r.expiringLimit(today).Format(constants.DateLayout)
}

// expiringLimit 临期截止日（按自然日推算）
func (r StockRules) expiringLimit(today time.Time) time.Time {
	days := int(r.ExpiringWindow / (24 * time.Hour))
	return today.AddDate(0, 0, days)
}

// ClassifyMedicine 判定药品状态
// 优先级：缺货 > 临期 > 低库存 > 正常；有效期无法解析时为 Unknown。
func ClassifyMedicine(medicine models.Medicine, rules StockRules, now time.Time) MedicineStatus {
	rules = rules.normalized()
	expiry, err := parseExpiryDate(medicine.ExpiryDate)
	if err != nil {
		return MedicineStatus{Text: constants.MedicineStatusUnknown}
	}
	if medicine.Quantity <= 0 {
		return MedicineStatus{Text: constants.MedicineStatusOutOfStock, ClassName: constants.MedicineStatusClassOutOfStock}
	}
	if isExpiringSoon(expiry, rules, now) {
		return MedicineStatus{Text: constants.MedicineStatusExpiringSoon, ClassName: constants.MedicineStatusClassExpiringSoon}
	}
	if medicine.Quantity <= rules.LowStockThreshold {
		return MedicineStatus{Text: constants.MedicineStatusLowStock, ClassName: constants.MedicineStatusClassLowStock}
	}
	return MedicineStatus{Text: constants.MedicineStatusInStock, ClassName: constants.MedicineStatusClassInStock}
}

func isExpiringSoon(expiry time.Time, rules StockRules, now time.Time) bool {
	today := startOfDay(now)
	limit := rules.expiringLimit(today)
	return !expiry.Before(today) && !expiry.After(limit)
}

func parseExpiryDate(raw string) (time.Time, error) {
	return time.ParseInLocation(constants.DateLayout, strings.TrimSpace(raw), time.Local)
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.In(time.Local).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}
