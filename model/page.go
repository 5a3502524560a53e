package model

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page 分页结果
type Page[T any] struct {
	Records  []T   `json:"records"`
	Total    int64 `json:"total"`
	Current  int   `json:"current"`
	PageSize int   `json:"size"`
}

// NormalizePage 页码小于1按第1页处理，页大小越界使用默认值
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	return page, pageSize
}

// Offset 计算偏移量
func Offset(page, pageSize int) int {
	return (page - 1) * pageSize
}
