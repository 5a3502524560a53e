package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"dinein_order/config"

	"github.com/apache/rocketmq-client-go/v2"
	"github.com/apache/rocketmq-client-go/v2/consumer"
	"github.com/apache/rocketmq-client-go/v2/primitive"
	"github.com/apache/rocketmq-client-go/v2/producer"
	"go.uber.org/zap"
)

var (
	Producer rocketmq.Producer
	Consumer rocketmq.PushConsumer
)

// 服务端默认的延迟级别：1s 5s 10s 30s 1m 2m 3m 4m 5m 6m 7m 8m 9m 10m 20m 30m 1h 2h
var delayLevelMinutes = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 20, 30, 60, 120}

// DelayLevel 返回不短于 minutes 的最小延迟级别
func DelayLevel(minutes int) int {
	if minutes <= 0 {
		return 0
	}
	for i, m := range delayLevelMinutes {
		if m >= minutes {
			return i + 5
		}
	}
	return len(delayLevelMinutes) + 4
}

// PayTimeoutMsg 支付超时消息体
type PayTimeoutMsg struct {
	OrderId int64 `json:"orderId"`
}

// Init 初始化 RocketMQ 生产者
func Init(cfg *config.RocketMqConfig) (err error) {
	Producer, err = rocketmq.NewProducer(
		producer.WithNsResolver(primitive.NewPassthroughResolver([]string{cfg.Addr})),
		producer.WithRetry(2),
		producer.WithGroupName(cfg.GroupId),
	)
	if err != nil {
		return err
	}
	return Producer.Start()
}

// InitConsumer 订阅支付超时 topic
func InitConsumer(cfg *config.RocketMqConfig, handle func(context.Context, ...*primitive.MessageExt) (consumer.ConsumeResult, error)) (err error) {
	Consumer, err = rocketmq.NewPushConsumer(
		consumer.WithNsResolver(primitive.NewPassthroughResolver([]string{cfg.Addr})),
		consumer.WithGroupName(cfg.GroupId),
	)
	if err != nil {
		return err
	}
	if err = Consumer.Subscribe(cfg.Topic.PayTimeOut, consumer.MessageSelector{}, handle); err != nil {
		return err
	}
	return Consumer.Start()
}

// Exit 关闭生产者和消费者
func Exit() {
	if Consumer != nil {
		if err := Consumer.Shutdown(); err != nil {
			zap.L().Error("shutdown consumer failed", zap.Error(err))
		}
	}
	if Producer != nil {
		if err := Producer.Shutdown(); err != nil {
			zap.L().Error("shutdown producer failed", zap.Error(err))
		}
	}
}

// PayTimeoutSender 下单后投递延迟消息
type PayTimeoutSender struct {
	producer   rocketmq.Producer
	topic      string
	delayLevel int
}

func NewPayTimeoutSender(p rocketmq.Producer, topic string, timeoutMinutes int) *PayTimeoutSender {
	return &PayTimeoutSender{producer: p, topic: topic, delayLevel: DelayLevel(timeoutMinutes)}
}

func (s *PayTimeoutSender) SendPayTimeout(ctx context.Context, orderId int64) error {
	body, err := json.Marshal(PayTimeoutMsg{OrderId: orderId})
	if err != nil {
		return err
	}
	msg := primitive.NewMessage(s.topic, body)
	msg.WithDelayTimeLevel(s.delayLevel)
	msg.WithKeys([]string{strconv.FormatInt(orderId, 10)})

	res, err := s.producer.SendSync(ctx, msg)
	if err != nil {
		return fmt.Errorf("send pay timeout message: %w", err)
	}
	zap.L().Debug("pay timeout message sent", zap.Int64("orderId", orderId), zap.String("msgId", res.MsgID))
	return nil
}
