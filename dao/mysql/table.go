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

func (d *Dao) findTable(ctx context.Context, column string, value interface{}) (*model.TableInfo, error) {
	var data model.TableInfo
	err := d.db.WithContext(ctx).
		Where(column+" = ?", value).
		First(&data).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errno.ErrTableNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrQueryFailed, err)
	}
	return &data, nil
}

func (d *Dao) FindTableByID(ctx context.Context, id int64) (*model.TableInfo, error) {
	return d.findTable(ctx, "id", id)
}

func (d *Dao) FindTableByCode(ctx context.Context, code string) (*model.TableInfo, error) {
	return d.findTable(ctx, "code", code)
}

func (d *Dao) FindTableByName(ctx context.Context, name string) (*model.TableInfo, error) {
	return d.findTable(ctx, "name", name)
}

// UpdateTableStatus 设置桌位状态，重复设置同一状态不报错
func (d *Dao) UpdateTableStatus(ctx context.Context, id int64, status model.TableStatus) error {
	result := d.db.WithContext(ctx).
		Model(&model.TableInfo{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"update_time": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("%w: %v", errno.ErrUpdateFailed, result.Error)
	}
	if result.RowsAffected == 0 {
		return errno.ErrTableNotFound
	}
	return nil
}
