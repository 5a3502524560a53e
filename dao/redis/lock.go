package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v8"
	"go.uber.org/zap"
)

// OrderLocker 基于 redsync 的订单互斥锁
type OrderLocker struct {
	rs *redsync.Redsync
}

func NewOrderLocker(c *redis.Client) *OrderLocker {
	return &OrderLocker{rs: redsync.New(goredis.NewPool(c))}
}

// Lock 获取订单锁，返回的 unlock 用于释放
func (l *OrderLocker) Lock(ctx context.Context, orderId int64) (func(), error) {
	mutex := l.rs.NewMutex(
		Key("lock", "order", fmt.Sprint(orderId)),
		redsync.WithExpiry(8*time.Second),
		redsync.WithTries(16),
		redsync.WithRetryDelay(50*time.Millisecond),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, err
	}
	return func() {
		if ok, err := mutex.UnlockContext(context.Background()); !ok || err != nil {
			// 锁已过期或被其他实例持有
			zap.L().Warn("release order lock failed", zap.Int64("orderId", orderId), zap.Bool("released", ok), zap.Error(err))
		}
	}, nil
}
