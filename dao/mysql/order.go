package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dinein_order/errno"
	"dinein_order/model"

	"gorm.io/gorm"
)

// OrderFilter 订单分页查询条件，零值字段不参与过滤
type OrderFilter struct {
	UserId *int64
	Number string // 订单号模糊匹配
	Status *model.OrderStatus
}

func (d *Dao) QueryOrder(ctx context.Context, orderId int64) (*model.Order, error) {
	var data model.Order
	err := d.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", orderId).
		First(&data).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errno.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrQueryFailed, err)
	}
	return &data, nil
}

// CreateOrder 插入订单，订单号冲突返回 ErrDuplicateNumber
func (d *Dao) CreateOrder(ctx context.Context, data *model.Order) error {
	err := d.db.WithContext(ctx).Create(data).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", errno.ErrDuplicateNumber, data.Number)
	}
	return err
}

// UpdateOrderStatus 条件更新：只有当前状态等于 from 时才写入
// 返回 false 表示订单状态已被其他请求改变（或订单不存在）
func (d *Dao) UpdateOrderStatus(ctx context.Context, orderId int64, from model.OrderStatus, updates map[string]interface{}) (bool, error) {
	result := d.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ?", orderId, from).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("%w: %v", errno.ErrUpdateFailed, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// PageOrders 按创建时间倒序分页
func (d *Dao) PageOrders(ctx context.Context, f OrderFilter, offset, limit int) ([]model.Order, int64, error) {
	query := d.db.WithContext(ctx).Model(&model.Order{})
	if f.UserId != nil {
		query = query.Where("user_id = ?", *f.UserId)
	}
	if f.Number != "" {
		query = query.Where("number LIKE ?", "%"+f.Number+"%")
	}
	if f.Status != nil {
		query = query.Where("status = ?", *f.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: %v", errno.ErrQueryFailed, err)
	}

	var orders []model.Order
	err := query.
		Order("create_time DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", errno.ErrQueryFailed, err)
	}
	return orders, total, nil
}

// QueryTimeoutOrders 查询创建时间早于 before 且仍未支付的订单
func (d *Dao) QueryTimeoutOrders(ctx context.Context, before time.Time, limit int) ([]model.Order, error) {
	var orders []model.Order
	err := d.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("status = ? AND create_time < ?", model.StatusPendingPayment, before).
		Order("id ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrQueryFailed, err)
	}
	return orders, nil
}
