package order

import (
	"context"
	"strconv"
	"strings"
	"time"

	"dinein_order/biz/table"
	"dinein_order/dao/mysql"
	"dinein_order/errno"
	"dinein_order/model"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ImageURL 把库里保存的相对路径转换成完整的图片地址
type ImageURL struct {
	BaseURL string
}

// Apply 绝对地址原样返回，相对路径拼接 BaseURL
func (u ImageURL) Apply(raw string) string {
	if raw == "" || strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return strings.TrimRight(u.BaseURL, "/") + raw
}

// DetailView 订单明细展示
type DetailView struct {
	Id                int64           `json:"id"`
	DishId            int64           `json:"dishId"`
	SpecificationId   *int64          `json:"specificationId,omitempty"`
	Number            int             `json:"number"`
	Amount            decimal.Decimal `json:"amount"`
	DishName          string          `json:"dishName"`
	DishImage         string          `json:"dishImage"`
	SpecificationName string          `json:"specificationName"`
}

// OrderView 订单展示，附带用户昵称和桌位名称
type OrderView struct {
	Id         int64             `json:"id"`
	Number     string            `json:"number"`
	UserId     int64             `json:"userId"`
	UserName   string            `json:"userName"`
	TableRef   string            `json:"tableRef"`
	TableId    *int64            `json:"tableId,omitempty"`
	TableName  string            `json:"tableName"`
	TableCode  string            `json:"tableCode"`
	Amount     decimal.Decimal   `json:"amount"`
	Status     model.OrderStatus `json:"status"`
	PayMethod  model.PayMethod   `json:"payMethod"`
	PayStatus  model.PayStatus   `json:"payStatus"`
	Remark     string            `json:"remark"`
	CreateTime time.Time         `json:"createTime"`
	UpdateTime time.Time         `json:"updateTime"`
	Details    []DetailView      `json:"orderDetailList,omitempty"`
}

// viewBuilder 组装展示数据，同一页内的用户和桌位只查一次
type viewBuilder struct {
	svc    *Service
	users  map[int64]string
	tables map[string]*model.TableInfo
}

func (s *Service) newViewBuilder() *viewBuilder {
	return &viewBuilder{
		svc:    s,
		users:  make(map[int64]string),
		tables: make(map[string]*model.TableInfo),
	}
}

func (b *viewBuilder) userName(ctx context.Context, userId int64) string {
	if name, ok := b.users[userId]; ok {
		return name
	}
	var name string
	u, err := b.svc.dao.QueryUser(ctx, userId)
	if err == nil {
		name = u.NickName
	} else {
		zap.L().Debug("query user for order view failed", zap.Int64("userId", userId), zap.Error(err))
	}
	b.users[userId] = name
	return name
}

// table 下单时已解析出桌位ID的只按ID查，旧数据按引用解析
func (b *viewBuilder) table(ctx context.Context, o *model.Order) *model.TableInfo {
	key := "ref:" + o.TableRef
	if o.TableId != nil {
		key = "id:" + strconv.FormatInt(*o.TableId, 10)
	}
	if t, ok := b.tables[key]; ok {
		return t
	}

	var (
		t   *model.TableInfo
		err error
	)
	if o.TableId != nil {
		t, err = b.svc.dao.FindTableByID(ctx, *o.TableId)
	} else if ref := table.ParseRef(o.TableRef); !ref.IsZero() {
		t, err = table.NewCoordinator(b.svc.dao).Resolve(ctx, ref)
	}
	if err != nil {
		t = nil
		zap.L().Debug("resolve table for order view failed", zap.String("tableRef", o.TableRef), zap.Error(err))
	}
	b.tables[key] = t
	return t
}

func (b *viewBuilder) order(ctx context.Context, o *model.Order) OrderView {
	v := OrderView{
		Id:         o.ID,
		Number:     o.Number,
		UserId:     o.UserId,
		UserName:   b.userName(ctx, o.UserId),
		TableRef:   o.TableRef,
		TableId:    o.TableId,
		Amount:     o.Amount,
		Status:     o.Status,
		PayMethod:  o.PayMethod,
		PayStatus:  o.PayStatus,
		Remark:     o.Remark,
		CreateTime: o.CreateTime,
		UpdateTime: o.UpdateTime,
	}
	if t := b.table(ctx, o); t != nil {
		v.TableName = t.Name
		v.TableCode = t.Code
	} else if o.TableRef != "" {
		v.TableName = "Table " + o.TableRef
		v.TableCode = o.TableRef
	}
	return v
}

// detail 快照字段为 NULL 的历史数据，用当前菜单补全展示，不回写
func (b *viewBuilder) detail(ctx context.Context, d *model.OrderDetail) DetailView {
	v := DetailView{
		Id:              d.ID,
		DishId:          d.DishId,
		SpecificationId: d.SpecificationId,
		Number:          d.Number,
		Amount:          d.Amount,
	}
	if d.DishName != nil {
		v.DishName = *d.DishName
	}
	if d.DishImage != nil {
		v.DishImage = *d.DishImage
	}
	if d.SpecificationName != nil {
		v.SpecificationName = *d.SpecificationName
	}

	if d.DishName == nil || d.DishImage == nil {
		if dish, err := b.svc.display.Dish(ctx, d.DishId); err == nil {
			if d.DishName == nil {
				v.DishName = dish.Name
			}
			if d.DishImage == nil {
				v.DishImage = dish.Image
			}
		}
	}
	if d.SpecificationName == nil && d.SpecificationId != nil {
		if spec, err := b.svc.display.Specification(ctx, *d.SpecificationId); err == nil {
			v.SpecificationName = spec.Name
		}
	}

	v.DishImage = b.svc.image.Apply(v.DishImage)
	return v
}

// GetDetail 订单详情
func (s *Service) GetDetail(ctx context.Context, orderId int64) (*OrderView, error) {
	o, err := s.dao.QueryOrder(ctx, orderId)
	if err != nil {
		return nil, err
	}
	details, err := s.dao.QueryOrderDetails(ctx, orderId)
	if err != nil {
		return nil, err
	}

	b := s.newViewBuilder()
	v := b.order(ctx, o)
	v.Details = make([]DetailView, 0, len(details))
	for i := range details {
		v.Details = append(v.Details, b.detail(ctx, &details[i]))
	}
	return &v, nil
}

// UserPage 用户的历史订单
func (s *Service) UserPage(ctx context.Context, userId int64, status *model.OrderStatus, page, pageSize int) (*model.Page[OrderView], error) {
	if userId <= 0 {
		return nil, errno.Validation("user id is required")
	}
	return s.page(ctx, mysql.OrderFilter{UserId: &userId, Status: status}, page, pageSize)
}

// AdminPage 管理端订单搜索，number 为订单号模糊匹配
func (s *Service) AdminPage(ctx context.Context, number string, status *model.OrderStatus, page, pageSize int) (*model.Page[OrderView], error) {
	return s.page(ctx, mysql.OrderFilter{Number: strings.TrimSpace(number), Status: status}, page, pageSize)
}

func (s *Service) page(ctx context.Context, f mysql.OrderFilter, page, pageSize int) (*model.Page[OrderView], error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, errno.Validation("unknown order status %d", *f.Status)
	}
	page, pageSize = model.NormalizePage(page, pageSize)

	orders, total, err := s.dao.PageOrders(ctx, f, model.Offset(page, pageSize), pageSize)
	if err != nil {
		return nil, err
	}

	b := s.newViewBuilder()
	records := make([]OrderView, 0, len(orders))
	for i := range orders {
		records = append(records, b.order(ctx, &orders[i]))
	}
	return &model.Page[OrderView]{
		Records:  records,
		Total:    total,
		Current:  page,
		PageSize: pageSize,
	}, nil
}
