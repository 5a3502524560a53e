package redis

import (
	"context"
	"fmt"

	"dinein_order/config"

	"github.com/go-redis/redis/v8"
)

var client *redis.Client

// Init 初始化 redis 连接
func Init(cfg *config.RedisConfig) error {
	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	return client.Ping(context.Background()).Err()
}

// Client 返回全局客户端，未初始化时为 nil
func Client() *redis.Client {
	return client
}

func Close() {
	if client != nil {
		_ = client.Close()
	}
}
