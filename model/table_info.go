package model

// TableInfo 桌位
type TableInfo struct {
	BaseModel
	Code   string      `gorm:"column:code;type:varchar(32);uniqueIndex;not null" json:"code"`
	Name   string      `gorm:"column:name;type:varchar(32);uniqueIndex;not null" json:"name"`
	Status TableStatus `gorm:"column:status;type:tinyint;not null;default:0" json:"status"`
}

func (TableInfo) TableName() string {
	return "table_info"
}
