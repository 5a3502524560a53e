package errno

import (
	"errors"
	"fmt"
)

// 错误类别，业务错误通过 errors.Is 判断类别
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state transition")
	ErrOwnership    = errors.New("ownership violation")
	ErrValidation   = errors.New("validation error")
)

var (
	ErrQueryFailed = errors.New("query db failed")

	ErrUpdateFailed = errors.New("update data failed")

	ErrOrderNotFound = NotFound("order not found")

	ErrTableNotFound = NotFound("table not found")

	// ErrDuplicateNumber 订单号唯一索引冲突，属于数据完整性错误
	ErrDuplicateNumber = errors.New("duplicate order number")
)

// BizError 业务错误，携带类别和可读的错误信息
type BizError struct {
	kind error
	msg  string
}

func (e *BizError) Error() string { return e.msg }

func (e *BizError) Unwrap() error { return e.kind }

func newBiz(kind error, format string, args ...interface{}) error {
	return &BizError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) error {
	return newBiz(ErrNotFound, format, args...)
}

func InvalidState(format string, args ...interface{}) error {
	return newBiz(ErrInvalidState, format, args...)
}

func Ownership(format string, args ...interface{}) error {
	return newBiz(ErrOwnership, format, args...)
}

func Validation(format string, args ...interface{}) error {
	return newBiz(ErrValidation, format, args...)
}

// IsBiz 判断是否为需要原样返回给调用方的业务错误
func IsBiz(err error) bool {
	var be *BizError
	return errors.As(err, &be)
}
