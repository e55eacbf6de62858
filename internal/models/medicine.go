package models

import (
	"time"
)

// Medicine 药品库存表
type Medicine struct {
	ID           uint      `gorm:"primarykey" json:"id"`                               // 主键
	Name         string    `gorm:"type:varchar(255);not null;index" json:"name"`       // 药品名称
	Manufacturer string    `gorm:"type:varchar(255);index" json:"Manufacturer"`        // 生产厂家
	ExpiryDate   string    `gorm:"type:varchar(10);index" json:"expiry_date"`          // 有效期（YYYY-MM-DD）
	Quantity     int       `gorm:"not null;default:0" json:"quantity"`                 // 当前库存
	Price        Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price"` // 零售单价
	CreatedAt    time.Time `gorm:"index" json:"-"`                                     // 创建时间
	UpdatedAt    time.Time `json:"-"`                                                  // 更新时间
}

// TableName 指定表名
func (Medicine) TableName() string {
	return "medicines"
}
