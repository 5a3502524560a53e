package mysql

import (
	"context"
	"errors"
	"fmt"

	"dinein_order/errno"
	"dinein_order/model"

	"gorm.io/gorm"
)

func (d *Dao) GetDish(ctx context.Context, id int64) (*model.Dish, error) {
	var data model.Dish
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&data).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errno.NotFound("dish %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrQueryFailed, err)
	}
	return &data, nil
}

func (d *Dao) GetSpecification(ctx context.Context, id int64) (*model.Specification, error) {
	var data model.Specification
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&data).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errno.NotFound("specification %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrQueryFailed, err)
	}
	return &data, nil
}
