package table

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"dinein_order/errno"
	"dinein_order/model"
)

// RefKind 桌位引用的类型
type RefKind int

const (
	KindID RefKind = iota
	KindCode
	KindName
)

// Ref 桌位引用：可能是ID、编码或名称
type Ref struct {
	kind  RefKind
	value string
}

func ByID(id int64) Ref { return Ref{kind: KindID, value: strconv.FormatInt(id, 10)} }

func ByCode(code string) Ref { return Ref{kind: KindCode, value: code} }

func ByName(name string) Ref { return Ref{kind: KindName, value: name} }

func (r Ref) Kind() RefKind { return r.kind }

func (r Ref) String() string { return r.value }

func (r Ref) IsZero() bool { return r.value == "" }

// ParseRef 解析客户端提交的桌位引用，纯数字视为ID，否则视为编码
func ParseRef(raw string) Ref {
	raw = strings.TrimSpace(raw)
	if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Ref{kind: KindID, value: raw}
	}
	return ByCode(raw)
}

// Store 桌位存储
type Store interface {
	FindTableByID(ctx context.Context, id int64) (*model.TableInfo, error)
	FindTableByCode(ctx context.Context, code string) (*model.TableInfo, error)
	FindTableByName(ctx context.Context, name string) (*model.TableInfo, error)
	UpdateTableStatus(ctx context.Context, id int64, status model.TableStatus) error
}

// Coordinator 负责桌位解析和占用状态
type Coordinator struct {
	store Store
}

func NewCoordinator(s Store) *Coordinator {
	return &Coordinator{store: s}
}

// Resolve 从引用类型开始依次按ID、编码、名称查找，第一个命中的为准
func (c *Coordinator) Resolve(ctx context.Context, ref Ref) (*model.TableInfo, error) {
	if ref.IsZero() {
		return nil, errno.ErrTableNotFound
	}

	lookups := []func() (*model.TableInfo, error){
		func() (*model.TableInfo, error) {
			id, err := strconv.ParseInt(ref.value, 10, 64)
			if err != nil {
				return nil, errno.ErrTableNotFound
			}
			return c.store.FindTableByID(ctx, id)
		},
		func() (*model.TableInfo, error) { return c.store.FindTableByCode(ctx, ref.value) },
		func() (*model.TableInfo, error) { return c.store.FindTableByName(ctx, ref.value) },
	}

	for _, lookup := range lookups[ref.kind:] {
		t, err := lookup()
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, errno.ErrTableNotFound) {
			return nil, err
		}
	}
	return nil, errno.ErrTableNotFound
}

// Occupy 标记桌位使用中
func (c *Coordinator) Occupy(ctx context.Context, tableId int64) error {
	return c.store.UpdateTableStatus(ctx, tableId, model.TableOccupied)
}

// Free 标记桌位空闲
func (c *Coordinator) Free(ctx context.Context, tableId int64) error {
	return c.store.UpdateTableStatus(ctx, tableId, model.TableFree)
}
