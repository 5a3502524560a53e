package mysql

import (
	"context"
	"fmt"
	"time"

	"dinein_order/config"
	"dinein_order/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// Init 初始化MySQL连接
// clientFoundRows=true 让 UPDATE 返回匹配行数，状态流转依赖这一点判断是否命中
func Init(cfg *config.MySQLConfig) (err error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&clientFoundRows=true",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DB)
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	db = gdb
	if cfg.AutoMigrate {
		return AutoMigrate()
	}
	return nil
}

// InitWithDB 使用已经打开的连接，测试时注入 SQLite
func InitWithDB(gdb *gorm.DB) {
	db = gdb
}

// AutoMigrate 建表
func AutoMigrate() error {
	return db.AutoMigrate(
		&model.Order{},
		&model.OrderDetail{},
		&model.TableInfo{},
		&model.User{},
		&model.Dish{},
		&model.Specification{},
	)
}

func Close() {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Dao 封装数据访问，事务内外使用同一套方法
type Dao struct {
	db *gorm.DB
}

// Default 返回使用全局连接的 Dao
func Default() *Dao {
	return &Dao{db: db}
}

// Transaction 在一个事务中执行 fn，fn 返回错误则回滚
// fn 内只能使用传入的 tx，不能再使用 Default()
func (d *Dao) Transaction(ctx context.Context, fn func(tx *Dao) error) error {
	return d.db.WithContext(ctx).
		Transaction(func(tx *gorm.DB) error {
			return fn(&Dao{db: tx})
		})
}
