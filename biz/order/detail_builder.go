package order

import (
	"context"

	"dinein_order/biz/catalog"
	"dinein_order/model"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Line 购物车中的一行
type Line struct {
	DishId          int64           `json:"dishId"`
	SpecificationId *int64          `json:"specificationId"`
	Number          int             `json:"number"`
	Amount          decimal.Decimal `json:"amount"`
}

// BuildDetails 把购物车行转成订单明细，并冻结菜品名称、图片和规格名称
// 菜单查询失败不影响下单，对应快照字段留空
func BuildDetails(ctx context.Context, resolver *catalog.Resolver, lines []Line) []model.OrderDetail {
	details := make([]model.OrderDetail, 0, len(lines))
	for _, line := range lines {
		snap, err := resolver.Resolve(ctx, line.DishId, line.SpecificationId)
		if err != nil {
			zap.L().Warn("resolve dish snapshot failed, keep line without snapshot",
				zap.Int64("dishId", line.DishId),
				zap.Error(err))
		}
		details = append(details, model.OrderDetail{
			DishId:            line.DishId,
			SpecificationId:   line.SpecificationId,
			Number:            line.Number,
			Amount:            line.Amount,
			DishName:          snap.DishName,
			DishImage:         snap.DishImage,
			SpecificationName: snap.SpecificationName,
		})
	}
	return details
}

// sumAmount 订单总金额等于各行金额之和
func sumAmount(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Amount)
	}
	return total
}
