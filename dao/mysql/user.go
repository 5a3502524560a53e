package mysql

import (
	"context"
	"errors"
	"fmt"

	"dinein_order/errno"
	"dinein_order/model"

	"gorm.io/gorm"
)

func (d *Dao) QueryUser(ctx context.Context, id int64) (*model.User, error) {
	var data model.User
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&data).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errno.NotFound("user %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrQueryFailed, err)
	}
	return &data, nil
}
