package model

// User 小程序用户，订单服务只读取昵称
type User struct {
	BaseModel
	NickName  string `gorm:"column:nick_name;type:varchar(64);not null;default:''" json:"nickName"`
	AvatarUrl string `gorm:"column:avatar_url;type:varchar(255);not null;default:''" json:"avatarUrl"`
}

func (User) TableName() string {
	return "user"
}
