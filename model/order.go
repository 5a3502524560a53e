package model

import "github.com/shopspring/decimal"

// Order 订单表
// ID 由 snowflake 生成，Number 为展示给用户的订单号
type Order struct {
	BaseModel
	Number    string          `gorm:"column:number;type:varchar(32);uniqueIndex;not null" json:"number"`                    // 订单号，创建后不可修改
	UserId    int64           `gorm:"column:user_id;type:bigint(20);index;not null" json:"userId"`                          // 下单用户
	TableRef  string          `gorm:"column:table_ref;type:varchar(64);not null;default:''" json:"tableRef"`                // 下单时提交的桌位引用（ID、编码或名称）
	TableId   *int64          `gorm:"column:table_id;type:bigint(20)" json:"tableId,omitempty"`                             // 解析成功的桌位ID
	Amount    decimal.Decimal `gorm:"column:amount;type:decimal(10,2);not null;default:0" json:"amount"`                    // 总金额，等于下单时明细金额之和
	Status    OrderStatus     `gorm:"column:status;type:tinyint;index;not null;default:1" json:"status"`                    // 订单状态
	PayMethod PayMethod       `gorm:"column:pay_method;type:tinyint;not null;default:0" json:"payMethod"`                   // 支付方式
	PayStatus PayStatus       `gorm:"column:pay_status;type:tinyint;not null;default:0" json:"payStatus"`                   // 支付状态
	Remark    string          `gorm:"column:remark;type:varchar(255);not null;default:''" json:"remark"`                    // 备注
}

// TableName 声明表名
func (Order) TableName() string {
	return "orders"
}
