package order

import (
	"context"

	"dinein_order/auth"
	"dinein_order/errno"
)

// Guard 用户侧接口的订单归属校验，管理端不经过这里
type Guard struct {
	svc *Service
}

func NewGuard(svc *Service) *Guard {
	return &Guard{svc: svc}
}

// Verify 校验当前登录用户是否拥有该订单
func (g *Guard) Verify(ctx context.Context, orderId int64) error {
	userId, ok := auth.UserID(ctx)
	if !ok {
		return errno.Validation("please log in first")
	}
	if !g.svc.VerifyOwner(ctx, orderId, userId) {
		return errno.Ownership("order %d does not belong to user %d", orderId, userId)
	}
	return nil
}
