package order

import (
	"context"
	"encoding/json"
	"errors"

	"dinein_order/dao/mq"
	"dinein_order/errno"

	"github.com/apache/rocketmq-client-go/v2/consumer"
	"github.com/apache/rocketmq-client-go/v2/primitive"
	"go.uber.org/zap"
)

// OrderTimeoutHandle 消费支付超时消息
// 订单仍未支付时取消并释放桌位，其余状态说明已经处理过，直接确认消息
func (s *Service) OrderTimeoutHandle(ctx context.Context, msgs ...*primitive.MessageExt) (consumer.ConsumeResult, error) {
	for _, msg := range msgs {
		var body mq.PayTimeoutMsg
		if err := json.Unmarshal(msg.Body, &body); err != nil {
			// 格式错误的消息重试也没有意义
			zap.L().Error("unmarshal pay timeout message failed", zap.String("msgId", msg.MsgId), zap.Error(err))
			continue
		}

		err := s.cancelUnpaid(ctx, body.OrderId)
		switch {
		case err == nil:
			zap.L().Info("unpaid order cancelled by timeout", zap.Int64("orderId", body.OrderId))
		case errors.Is(err, errno.ErrInvalidState), errors.Is(err, errno.ErrNotFound):
			zap.L().Info("order already processed, ignoring timeout message",
				zap.Int64("orderId", body.OrderId),
				zap.Error(err))
		default:
			zap.L().Error("cancel timeout order failed", zap.Int64("orderId", body.OrderId), zap.Error(err))
			return consumer.ConsumeRetryLater, err
		}
	}
	return consumer.ConsumeSuccess, nil
}
