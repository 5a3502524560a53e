package mysql

import (
	"context"
	"fmt"

	"dinein_order/errno"
	"dinein_order/model"
)

// CreateOrderDetails 批量插入订单明细
func (d *Dao) CreateOrderDetails(ctx context.Context, details []model.OrderDetail) error {
	if len(details) == 0 {
		return nil
	}
	return d.db.WithContext(ctx).Create(&details).Error
}

func (d *Dao) QueryOrderDetails(ctx context.Context, orderId int64) ([]model.OrderDetail, error) {
	var details []model.OrderDetail
	err := d.db.WithContext(ctx).
		Where("order_id = ?", orderId).
		Order("id ASC").
		Find(&details).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrQueryFailed, err)
	}
	return details, nil
}
