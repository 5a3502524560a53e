package catalog

import (
	"context"

	"dinein_order/model"
)

// Catalog 菜单数据来源，由菜单服务维护
type Catalog interface {
	GetDish(ctx context.Context, id int64) (*model.Dish, error)
	GetSpecification(ctx context.Context, id int64) (*model.Specification, error)
}

// Snapshot 冻结到订单明细里的展示信息，nil 表示没有取到
type Snapshot struct {
	DishName          *string
	DishImage         *string
	SpecificationName *string
}

// Resolver 菜品快照解析
type Resolver struct {
	catalog Catalog
}

func NewResolver(c Catalog) *Resolver {
	return &Resolver{catalog: c}
}

// Resolve 查询菜品名称、图片，以及规格名称（specId 不为空时）
// 查询失败时返回已经取到的部分和错误
func (r *Resolver) Resolve(ctx context.Context, dishId int64, specId *int64) (Snapshot, error) {
	var snap Snapshot

	dish, err := r.catalog.GetDish(ctx, dishId)
	if err != nil {
		return snap, err
	}
	snap.DishName = strPtr(dish.Name)
	snap.DishImage = strPtr(dish.Image)

	if specId == nil {
		return snap, nil
	}
	spec, err := r.catalog.GetSpecification(ctx, *specId)
	if err != nil {
		return snap, err
	}
	snap.SpecificationName = strPtr(spec.Name)
	return snap, nil
}

// Dish 直接查询当前菜品，用于历史数据补全展示字段
func (r *Resolver) Dish(ctx context.Context, dishId int64) (*model.Dish, error) {
	return r.catalog.GetDish(ctx, dishId)
}

func (r *Resolver) Specification(ctx context.Context, specId int64) (*model.Specification, error) {
	return r.catalog.GetSpecification(ctx, specId)
}

func strPtr(s string) *string {
	return &s
}
