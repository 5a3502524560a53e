package model

// OrderStatus 订单状态：1待付款，2已支付，3已完成，4已取消
type OrderStatus int8

const (
	StatusPendingPayment OrderStatus = 1
	StatusPaid           OrderStatus = 2
	StatusCompleted      OrderStatus = 3
	StatusCancelled      OrderStatus = 4
)

// 接单不单独占用状态，已支付即视为待接单
var transitions = map[OrderStatus][]OrderStatus{
	StatusPendingPayment: {StatusPaid, StatusCancelled},
	StatusPaid:           {StatusCompleted, StatusCancelled},
}

func (s OrderStatus) Valid() bool {
	return s >= StatusPendingPayment && s <= StatusCancelled
}

// CanTransitionTo 判断状态流转是否合法
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, to := range transitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) String() string {
	switch s {
	case StatusPendingPayment:
		return "PENDING_PAYMENT"
	case StatusPaid:
		return "PAID"
	case StatusCompleted:
		return "COMPLETED"
	case StatusCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// PayMethod 支付方式：1微信支付，2支付宝支付
type PayMethod int8

const (
	PayMethodNone   PayMethod = 0
	PayMethodWechat PayMethod = 1
	PayMethodAlipay PayMethod = 2
)

func (m PayMethod) Valid() bool {
	return m == PayMethodWechat || m == PayMethodAlipay
}

// PayStatus 支付状态：0未支付，1已支付
type PayStatus int8

const (
	PayStatusUnpaid PayStatus = 0
	PayStatusPaid   PayStatus = 1
)

// TableStatus 桌位状态：0空闲，1使用中
type TableStatus int8

const (
	TableFree     TableStatus = 0
	TableOccupied TableStatus = 1
)
