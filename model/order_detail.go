package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderDetail 订单明细，菜品名称、图片、规格名称为下单时的快照，之后不再更新
// 快照字段为 NULL 表示历史数据没有快照
type OrderDetail struct {
	ID                int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderId           int64           `gorm:"column:order_id;type:bigint(20);index;not null" json:"orderId"`
	DishId            int64           `gorm:"column:dish_id;type:bigint(20);not null" json:"dishId"`
	SpecificationId   *int64          `gorm:"column:specification_id;type:bigint(20)" json:"specificationId,omitempty"`
	Number            int             `gorm:"column:number;type:int;not null" json:"number"` // 数量
	Amount            decimal.Decimal `gorm:"column:amount;type:decimal(10,2);not null;default:0" json:"amount"`
	DishName          *string         `gorm:"column:dish_name;type:varchar(64)" json:"dishName,omitempty"`
	DishImage         *string         `gorm:"column:dish_image;type:varchar(255)" json:"dishImage,omitempty"`
	SpecificationName *string         `gorm:"column:specification_name;type:varchar(64)" json:"specificationName,omitempty"`
	CreateTime        time.Time       `gorm:"column:create_time;autoCreateTime" json:"createTime"`
}

func (OrderDetail) TableName() string {
	return "order_detail"
}
