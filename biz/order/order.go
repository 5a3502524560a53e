package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dinein_order/biz/catalog"
	"dinein_order/biz/table"
	"dinein_order/dao/mysql"
	"dinein_order/errno"
	"dinein_order/model"
	"dinein_order/third_party/snowflake"

	"go.uber.org/zap"
)

// biz层业务代码
// biz -> dao

// Locker 订单级互斥锁，数据库的条件更新仍然是最终保证
type Locker interface {
	Lock(ctx context.Context, orderId int64) (unlock func(), err error)
}

// PayTimeoutNotifier 下单后投递支付超时消息
type PayTimeoutNotifier interface {
	SendPayTimeout(ctx context.Context, orderId int64) error
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, int64) (func(), error) { return func() {}, nil }

// CreateParam 下单参数
type CreateParam struct {
	UserID   int64
	TableRef string
	Lines    []Line
	Remark   string
}

// Service 订单生命周期
// snapshots 直接读菜单库，下单时冻结的必须是当时的菜单
// display 只用于历史数据补全展示，可以走缓存
type Service struct {
	dao       *mysql.Dao
	snapshots *catalog.Resolver
	display   *catalog.Resolver
	locker    Locker
	notifier  PayTimeoutNotifier
	image     ImageURL
}

type Option func(*Service)

// WithLocker 状态流转前先获取订单锁
func WithLocker(l Locker) Option {
	return func(s *Service) { s.locker = l }
}

// WithPayTimeoutNotifier 开启支付超时自动取消
func WithPayTimeoutNotifier(n PayTimeoutNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithDisplayCatalog 设置补全展示字段使用的菜单来源
func WithDisplayCatalog(c catalog.Catalog) Option {
	return func(s *Service) { s.display = catalog.NewResolver(c) }
}

// WithImageURL 设置图片地址前缀
func WithImageURL(u ImageURL) Option {
	return func(s *Service) { s.image = u }
}

func NewService(dao *mysql.Dao, snapshots *catalog.Resolver, opts ...Option) *Service {
	s := &Service{
		dao:       dao,
		snapshots: snapshots,
		display:   snapshots,
		locker:    noopLocker{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateCreate(p CreateParam) error {
	if p.UserID <= 0 {
		return errno.Validation("user id is required")
	}
	if len(p.Lines) == 0 {
		return errno.Validation("cart is empty")
	}
	for i, line := range p.Lines {
		if line.DishId <= 0 {
			return errno.Validation("line %d: dish id is required", i+1)
		}
		if line.Number <= 0 {
			return errno.Validation("line %d: quantity must be positive", i+1)
		}
		if line.Amount.IsNegative() {
			return errno.Validation("line %d: amount must not be negative", i+1)
		}
	}
	return nil
}

// Create 下单
// 订单、明细和桌位占用在同一个事务里提交
func (s *Service) Create(ctx context.Context, p CreateParam) (int64, error) {
	if err := validateCreate(p); err != nil {
		return 0, err
	}

	// 菜单查询放在事务外，事务内只使用 tx
	details := BuildDetails(ctx, s.snapshots, p.Lines)

	data := model.Order{
		BaseModel: model.BaseModel{ID: snowflake.GenID()},
		Number:    GenNumber(time.Now()),
		UserId:    p.UserID,
		TableRef:  strings.TrimSpace(p.TableRef),
		Amount:    sumAmount(p.Lines),
		Status:    model.StatusPendingPayment,
		PayStatus: model.PayStatusUnpaid,
		Remark:    p.Remark,
	}

	err := s.dao.Transaction(ctx, func(tx *mysql.Dao) error {
		if err := occupyTable(ctx, tx, &data); err != nil {
			return err
		}
		if err := tx.CreateOrder(ctx, &data); err != nil {
			return err
		}
		for i := range details {
			details[i].OrderId = data.ID
		}
		return tx.CreateOrderDetails(ctx, details)
	})
	if err != nil {
		zap.L().Error("create order failed", zap.Int64("userId", p.UserID), zap.Error(err))
		return 0, err
	}

	zap.L().Info("order created",
		zap.Int64("orderId", data.ID),
		zap.String("number", data.Number),
		zap.String("amount", data.Amount.StringFixed(2)))

	if s.notifier != nil {
		if err := s.notifier.SendPayTimeout(ctx, data.ID); err != nil {
			zap.L().Error("send pay timeout message failed", zap.Int64("orderId", data.ID), zap.Error(err))
		}
	}
	return data.ID, nil
}

// occupyTable 解析下单桌位并标记为使用中
// 找不到桌位时订单照常创建
func occupyTable(ctx context.Context, tx *mysql.Dao, data *model.Order) error {
	ref := table.ParseRef(data.TableRef)
	if ref.IsZero() {
		return nil
	}
	tables := table.NewCoordinator(tx)
	t, err := tables.Resolve(ctx, ref)
	if errors.Is(err, errno.ErrTableNotFound) {
		zap.L().Warn("table not resolved, order proceeds without table", zap.String("tableRef", data.TableRef))
		return nil
	}
	if err != nil {
		return err
	}
	if err := tables.Occupy(ctx, t.ID); err != nil {
		return err
	}
	data.TableId = &t.ID
	return nil
}

// freeTable 释放订单关联的桌位，桌位不存在时忽略
func freeTable(ctx context.Context, tx *mysql.Dao, o *model.Order) error {
	tables := table.NewCoordinator(tx)

	var tableId int64
	if o.TableId != nil {
		tableId = *o.TableId
	} else {
		ref := table.ParseRef(o.TableRef)
		if ref.IsZero() {
			return nil
		}
		t, err := tables.Resolve(ctx, ref)
		if errors.Is(err, errno.ErrTableNotFound) {
			zap.L().Warn("table not resolved, skip freeing", zap.Int64("orderId", o.ID), zap.String("tableRef", o.TableRef))
			return nil
		}
		if err != nil {
			return err
		}
		tableId = t.ID
	}

	err := tables.Free(ctx, tableId)
	if errors.Is(err, errno.ErrTableNotFound) {
		zap.L().Warn("table removed, skip freeing", zap.Int64("orderId", o.ID), zap.Int64("tableId", tableId))
		return nil
	}
	return err
}

// transition 一次状态流转
type transition struct {
	action    string
	allowed   func(model.OrderStatus) bool
	to        model.OrderStatus // 0 表示只刷新更新时间
	updates   map[string]interface{}
	freeTable bool
}

func canMoveTo(to model.OrderStatus) func(model.OrderStatus) bool {
	return func(from model.OrderStatus) bool { return from.CanTransitionTo(to) }
}

// apply 在一个事务里检查并写入状态
// UPDATE 带上读到的旧状态，并发请求中只有一个能命中
func (s *Service) apply(ctx context.Context, orderId int64, t transition) error {
	unlock, err := s.locker.Lock(ctx, orderId)
	if err != nil {
		return fmt.Errorf("lock order %d: %w", orderId, err)
	}
	defer unlock()

	err = s.dao.Transaction(ctx, func(tx *mysql.Dao) error {
		o, err := tx.QueryOrder(ctx, orderId)
		if err != nil {
			return err
		}
		return writeTransition(ctx, tx, o, t)
	})
	if err != nil {
		if errno.IsBiz(err) {
			zap.L().Info("order transition rejected", zap.Int64("orderId", orderId), zap.String("action", t.action), zap.Error(err))
		} else {
			zap.L().Error("order transition failed", zap.Int64("orderId", orderId), zap.String("action", t.action), zap.Error(err))
		}
		return err
	}
	zap.L().Info("order transition applied", zap.Int64("orderId", orderId), zap.String("action", t.action))
	return nil
}

// writeTransition 按读到的状态 o.Status 条件更新
// 读之后状态被其他事务改掉时 UPDATE 不命中，返回 InvalidState
func writeTransition(ctx context.Context, tx *mysql.Dao, o *model.Order, t transition) error {
	if !t.allowed(o.Status) {
		return errno.InvalidState("order %d cannot be %s in status %s", o.ID, t.action, o.Status)
	}

	updates := map[string]interface{}{"update_time": time.Now()}
	for k, v := range t.updates {
		updates[k] = v
	}
	if t.to != 0 {
		updates["status"] = t.to
	}
	ok, err := tx.UpdateOrderStatus(ctx, o.ID, o.Status, updates)
	if err != nil {
		return err
	}
	if !ok {
		return errno.InvalidState("order %d cannot be %s: status changed concurrently", o.ID, t.action)
	}

	if t.freeTable {
		return freeTable(ctx, tx, o)
	}
	return nil
}

// Pay 记录支付结果，支付渠道由调用方确认
// payMethod 为 0 时按微信支付处理
func (s *Service) Pay(ctx context.Context, orderId int64, payMethod model.PayMethod) error {
	if payMethod == model.PayMethodNone {
		payMethod = model.PayMethodWechat
	}
	if !payMethod.Valid() {
		return errno.Validation("unsupported pay method %d", payMethod)
	}
	return s.apply(ctx, orderId, transition{
		action:  "paid",
		allowed: canMoveTo(model.StatusPaid),
		to:      model.StatusPaid,
		updates: map[string]interface{}{
			"pay_method": payMethod,
			"pay_status": model.PayStatusPaid,
		},
	})
}

// Accept 接单，已支付即待接单，只刷新更新时间
func (s *Service) Accept(ctx context.Context, orderId int64) error {
	return s.apply(ctx, orderId, transition{
		action:  "accepted",
		allowed: func(st model.OrderStatus) bool { return st == model.StatusPaid },
	})
}

// Complete 完成订单并释放桌位
func (s *Service) Complete(ctx context.Context, orderId int64) error {
	return s.apply(ctx, orderId, transition{
		action:    "completed",
		allowed:   canMoveTo(model.StatusCompleted),
		to:        model.StatusCompleted,
		freeTable: true,
	})
}

// Cancel 取消订单并释放桌位
func (s *Service) Cancel(ctx context.Context, orderId int64) error {
	return s.apply(ctx, orderId, transition{
		action:    "cancelled",
		allowed:   canMoveTo(model.StatusCancelled),
		to:        model.StatusCancelled,
		freeTable: true,
	})
}

// cancelUnpaid 超时取消，只处理仍未支付的订单
func (s *Service) cancelUnpaid(ctx context.Context, orderId int64) error {
	return s.apply(ctx, orderId, transition{
		action:    "timed out",
		allowed:   func(st model.OrderStatus) bool { return st == model.StatusPendingPayment },
		to:        model.StatusCancelled,
		freeTable: true,
	})
}

// VerifyOwner 订单存在且属于 userId 时返回 true
func (s *Service) VerifyOwner(ctx context.Context, orderId, userId int64) bool {
	if userId <= 0 {
		return false
	}
	o, err := s.dao.QueryOrder(ctx, orderId)
	if err != nil {
		if !errors.Is(err, errno.ErrNotFound) {
			zap.L().Error("query order for owner check failed", zap.Int64("orderId", orderId), zap.Error(err))
		}
		return false
	}
	return o.UserId == userId
}
