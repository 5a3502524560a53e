package order

import (
	"context"
	"errors"
	"time"

	"dinein_order/errno"

	"go.uber.org/zap"
)

const scanBatchSize = 100

// StartTimeoutScanner 定时扫描超时未支付的订单，作为延迟消息丢失时的兜底
func (s *Service) StartTimeoutScanner(ctx context.Context, interval, timeout time.Duration) {
	zap.L().Info("starting order timeout scanner",
		zap.Duration("interval", interval),
		zap.Duration("timeout", timeout))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("order timeout scanner stopped")
			return
		case <-ticker.C:
			s.scanTimeoutOrders(ctx, timeout)
		}
	}
}

// scanTimeoutOrders 分批取消超时订单，返回取消的数量
func (s *Service) scanTimeoutOrders(ctx context.Context, timeout time.Duration) int {
	before := time.Now().Add(-timeout)
	cancelled := 0
	for {
		orders, err := s.dao.QueryTimeoutOrders(ctx, before, scanBatchSize)
		if err != nil {
			zap.L().Error("query timeout orders failed", zap.Error(err))
			return cancelled
		}
		if len(orders) == 0 {
			break
		}

		progressed := false
		for _, o := range orders {
			err := s.cancelUnpaid(ctx, o.ID)
			switch {
			case err == nil:
				cancelled++
				progressed = true
			case errors.Is(err, errno.ErrInvalidState):
				// 扫描期间已被支付或取消
				progressed = true
			default:
				zap.L().Error("cancel timeout order failed", zap.Int64("orderId", o.ID), zap.Error(err))
			}
		}
		if !progressed || len(orders) < scanBatchSize {
			break
		}
	}
	if cancelled > 0 {
		zap.L().Info("timeout orders cancelled", zap.Int("count", cancelled))
	}
	return cancelled
}
