package models

import "time"

// Bill 账单表，主键即对外的 bill_id
type Bill struct {
	ID         uint      `gorm:"primarykey" json:"bill_id"`                                // 账单号
	ItemCount  int       `gorm:"not null;default:0" json:"item_count"`                     // 商品行数
	Subtotal   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`    // 小计
	Tax        Money     `gorm:"type:decimal(20,2);not null;default:0" json:"tax"`         // 税额
	GrandTotal Money     `gorm:"type:decimal(20,2);not null;default:0" json:"grand_total"` // 应收合计
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                                  // 开单时间

	Records []SaleRecord `gorm:"foreignKey:BillID" json:"records,omitempty"` // 销售明细
}

// TableName 指定表名
func (Bill) TableName() string {
	return "bills"
}

// SaleRecord 销售明细（每个售出商品一行）
type SaleRecord struct {
	ID          uint   `gorm:"primarykey" json:"-"`                                       // 主键
	BillID      uint   `gorm:"not null;index" json:"bill_id"`                             // 账单号
	SaleDate    string `gorm:"type:varchar(10);not null;index" json:"date"`               // 销售日期（YYYY-MM-DD）
	SaleTime    string `gorm:"type:varchar(8);not null" json:"time"`                      // 销售时间（HH:MM:SS）
	ProductID   uint   `gorm:"not null;index" json:"product_id"`                          // 药品ID
	ProductName string `gorm:"type:varchar(255);not null" json:"product_name"`            // 药品名称
	Quantity    int    `gorm:"not null" json:"quantity"`                                  // 数量
	UnitPrice   Money  `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`   // 单价
	TotalAmount Money  `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 行金额
}

// TableName 指定表名
func (SaleRecord) TableName() string {
	return "sale_records"
}
