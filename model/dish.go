package model

import "github.com/shopspring/decimal"

// Dish 菜品，由菜单服务维护，这里只读
type Dish struct {
	BaseModel
	Name  string          `gorm:"column:name;type:varchar(64);not null" json:"name"`
	Image string          `gorm:"column:image;type:varchar(255);not null;default:''" json:"image"`
	Price decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null;default:0" json:"price"`
}

func (Dish) TableName() string {
	return "dish"
}

// Specification 菜品规格
type Specification struct {
	BaseModel
	DishId int64  `gorm:"column:dish_id;type:bigint(20);index;not null" json:"dishId"`
	Name   string `gorm:"column:name;type:varchar(64);not null" json:"name"`
}

func (Specification) TableName() string {
	return "specification"
}
