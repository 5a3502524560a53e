package catalog

import (
	"context"
	"errors"
	"strconv"
	"time"

	redisdao "dinein_order/dao/redis"
	"dinein_order/model"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CachedCatalog 在 Catalog 前加一层 redis 读缓存
// redis 不可用时直接回源，不影响下单
type CachedCatalog struct {
	next   Catalog
	client *redis.Client
	ttl    time.Duration
}

func NewCachedCatalog(next Catalog, client *redis.Client, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{next: next, client: client, ttl: ttl}
}

func (c *CachedCatalog) GetDish(ctx context.Context, id int64) (*model.Dish, error) {
	key := redisdao.Key("dish", strconv.FormatInt(id, 10))
	var dish model.Dish
	err := redisdao.GetJSON(ctx, c.client, key, &dish)
	if err == nil {
		return &dish, nil
	}
	if !errors.Is(err, redisdao.ErrCacheMiss) {
		zap.L().Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	}

	d, err := c.next.GetDish(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := redisdao.SetJSON(ctx, c.client, key, d, c.ttl); err != nil {
		zap.L().Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
	return d, nil
}

func (c *CachedCatalog) GetSpecification(ctx context.Context, id int64) (*model.Specification, error) {
	key := redisdao.Key("spec", strconv.FormatInt(id, 10))
	var spec model.Specification
	err := redisdao.GetJSON(ctx, c.client, key, &spec)
	if err == nil {
		return &spec, nil
	}
	if !errors.Is(err, redisdao.ErrCacheMiss) {
		zap.L().Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	}

	s, err := c.next.GetSpecification(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := redisdao.SetJSON(ctx, c.client, key, s, c.ttl); err != nil {
		zap.L().Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
	return s, nil
}
