package models

import "time"

// StockAlert 库存预警记录
type StockAlert struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	MedicineID   uint      `gorm:"not null;index" json:"medicine_id"`
	MedicineName string    `gorm:"type:varchar(255);not null" json:"medicine_name"`
	Kind         string    `gorm:"type:varchar(20);not null;index" json:"kind"` // low_stock / out_of_stock / expiring_soon
	Quantity     int       `gorm:"not null;default:0" json:"quantity"`
	ExpiryDate   string    `gorm:"type:varchar(10)" json:"expiry_date"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (StockAlert) TableName() string {
	return "stock_alerts"
}
