package handler

import (
	"strconv"

	"dinein_order/auth"
	"dinein_order/biz/order"
	"dinein_order/biz/table"
	"dinein_order/errno"
	"dinein_order/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler HTTP 接入层
type Handler struct {
	orders *order.Service
	guard  *order.Guard
	tables *table.Coordinator
}

func New(orders *order.Service, tables *table.Coordinator) *Handler {
	return &Handler{
		orders: orders,
		guard:  order.NewGuard(orders),
		tables: tables,
	}
}

// CreateOrderReq 下单请求
type CreateOrderReq struct {
	TableRef     string       `json:"tableRef"`
	Remark       string       `json:"remark"`
	OrderDetails []order.Line `json:"orderDetails"`
}

type PayOrderReq struct {
	Id        int64           `json:"id"`
	PayMethod model.PayMethod `json:"payMethod"`
}

type OrderIdReq struct {
	Id int64 `json:"id"`
}

// CancelOrderReq 管理端取消，reason 只记录日志
type CancelOrderReq struct {
	Id     int64  `json:"id"`
	Reason string `json:"reason"`
}

// PageQuery 分页查询参数
type PageQuery struct {
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
	Status   *int8  `form:"status"`
	Number   string `form:"number"`
}

func (q PageQuery) status() *model.OrderStatus {
	if q.Status == nil {
		return nil
	}
	st := model.OrderStatus(*q.Status)
	return &st
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		zap.L().Debug("invalid request body", zap.String("path", c.Request.URL.Path), zap.Error(err))
		ResponseError(c, errno.Validation("invalid request body"))
		return false
	}
	return true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		ResponseError(c, errno.Validation("invalid order id"))
		return 0, false
	}
	return id, true
}

// ensureOwner 用户侧接口先校验订单归属
func (h *Handler) ensureOwner(c *gin.Context, orderId int64) bool {
	if err := h.guard.Verify(c.Request.Context(), orderId); err != nil {
		ResponseError(c, err)
		return false
	}
	return true
}

// CreateOrder 用户下单
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderReq
	if !bindJSON(c, &req) {
		return
	}
	userId, _ := auth.UserID(c.Request.Context())

	id, err := h.orders.Create(c.Request.Context(), order.CreateParam{
		UserID:   userId,
		TableRef: req.TableRef,
		Lines:    req.OrderDetails,
		Remark:   req.Remark,
	})
	if err != nil {
		ResponseError(c, err)
		return
	}
	ResponseSuccess(c, gin.H{"id": id})
}

// PayOrder 支付回调确认后由客户端调用
func (h *Handler) PayOrder(c *gin.Context) {
	var req PayOrderReq
	if !bindJSON(c, &req) {
		return
	}
	if !h.ensureOwner(c, req.Id) {
		return
	}
	if err := h.orders.Pay(c.Request.Context(), req.Id, req.PayMethod); err != nil {
		ResponseError(c, err)
		return
	}
	ResponseSuccess(c, nil)
}

func (h *Handler) UserCancelOrder(c *gin.Context) {
	var req OrderIdReq
	if !bindJSON(c, &req) {
		return
	}
	if !h.ensureOwner(c, req.Id) {
		return
	}
	if err := h.orders.Cancel(c.Request.Context(), req.Id); err != nil {
		ResponseError(c, err)
		return
	}
	ResponseSuccess(c, nil)
}

// UserOrderPage 历史订单
func (h *Handler) UserOrderPage(c *gin.Context) {
	var q PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		ResponseError(c, errno.Validation("invalid query"))
		return
	}
	userId, _ := auth.UserID(c.Request.Context())
	page, err := h.orders.UserPage(c.Request.Context(), userId, q.status(), q.Page, q.PageSize)
	if err != nil {
		ResponseError(c, err)
		return
	}
	ResponseSuccess(c, page)
}

func (h *Handler) UserOrderDetail(c *gin.Context) {
	id, ok := pathID(c)
	if !ok || !h.ensureOwner(c, id) {
		return
	}
	h.orderDetail(c, id)
}

func (h *Handler) orderDetail(c *gin.Context, id int64) {
	v, err := h.orders.GetDetail(c.Request.Context(), id)
	if err != nil {
		ResponseError(c, err)
		return
	}
	ResponseSuccess(c, v)
}

// AdminOrderPage 订单搜索
func (h *Handler) AdminOrderPage(c *gin.Context) {
	var q PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		ResponseError(c, errno.Validation("invalid query"))
		return
	}
	page, err := h.orders.AdminPage(c.Request.Context(), q.Number, q.status(), q.Page, q.PageSize)
	if err != nil {
		ResponseError(c, err)
		return
	}
	ResponseSuccess(c, page)
}

func (h *Handler) AdminOrderDetail(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	h.orderDetail(c, id)
}

func (h *Handler) AcceptOrder(c *gin.Context) {
	var req OrderIdReq
	if !bindJSON(c, &req) {
		return
	}
	if err := h.orders.Accept(c.Request.Context(), req.Id); err != nil {
		ResponseError(c, err)
		return
	}
	ResponseSuccess(c, nil)
}

func (h *Handler) CompleteOrder(c *gin.Context) {
	var req OrderIdReq
	if !bindJSON(c, &req) {
		return
	}
	if err := h.orders.Complete(c.Request.Context(), req.Id); err != nil {
		ResponseError(c, err)
		return
	}
	ResponseSuccess(c, nil)
}

func (h *Handler) AdminCancelOrder(c *gin.Context) {
	var req CancelOrderReq
	if !bindJSON(c, &req) {
		return
	}
	if err := h.orders.Cancel(c.Request.Context(), req.Id); err != nil {
		ResponseError(c, err)
		return
	}
	id, _ := auth.FromContext(c.Request.Context())
	zap.L().Info("order cancelled by staff",
		zap.Int64("orderId", req.Id),
		zap.Int64("staffId", id.UserID),
		zap.String("reason", req.Reason))
	ResponseSuccess(c, nil)
}
