package model

import "time"

// BaseModel 公共字段：ID、创建时间、更新时间
type BaseModel struct {
	ID         int64     `gorm:"column:id;primaryKey" json:"id"`
	CreateTime time.Time `gorm:"column:create_time;autoCreateTime" json:"createTime"`
	UpdateTime time.Time `gorm:"column:update_time;autoUpdateTime" json:"updateTime"`
}
