package order

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"dinein_order/auth"
	"dinein_order/biz/catalog"
	"dinein_order/dao/mysql"
	"dinein_order/dao/mysql/mysqltest"
	"dinein_order/errno"
	"dinein_order/model"
	"dinein_order/third_party/snowflake"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	if err := snowflake.Init("2024-01-01", 1); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const testUser int64 = 7

type fixture struct {
	t   *testing.T
	db  *gorm.DB
	svc *Service
	ctx context.Context
}

func setup(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	gdb := mysqltest.Open(t)

	seeds := []interface{}{
		&model.User{BaseModel: model.BaseModel{ID: testUser}, NickName: "Lin"},
		&model.TableInfo{BaseModel: model.BaseModel{ID: 1}, Code: "T5", Name: "Window 5"},
		&model.TableInfo{BaseModel: model.BaseModel{ID: 2}, Code: "T6", Name: "Patio"},
		&model.Dish{BaseModel: model.BaseModel{ID: 10}, Name: "Kung Pao Chicken", Image: "/img/10.png", Price: decimal.NewFromInt(10)},
		&model.Dish{BaseModel: model.BaseModel{ID: 11}, Name: "Rice", Image: "img/11.png", Price: decimal.NewFromInt(8)},
		&model.Specification{BaseModel: model.BaseModel{ID: 100}, DishId: 10, Name: "Large"},
	}
	for _, s := range seeds {
		if err := gdb.Create(s).Error; err != nil {
			t.Fatalf("seed %T: %v", s, err)
		}
	}

	opts = append([]Option{WithImageURL(ImageURL{BaseURL: "https://cdn.example.com/"})}, opts...)
	svc := NewService(mysql.Default(), catalog.NewResolver(mysql.Default()), opts...)
	return &fixture{t: t, db: gdb, svc: svc, ctx: context.Background()}
}

func cart() []Line {
	return []Line{
		{DishId: 10, Number: 2, Amount: decimal.RequireFromString("20.00")},
		{DishId: 11, Number: 1, Amount: decimal.RequireFromString("8.00")},
	}
}

func (f *fixture) create(tableRef string) int64 {
	f.t.Helper()
	id, err := f.svc.Create(f.ctx, CreateParam{UserID: testUser, TableRef: tableRef, Lines: cart()})
	if err != nil {
		f.t.Fatalf("Create: %v", err)
	}
	return id
}

func (f *fixture) order(id int64) model.Order {
	f.t.Helper()
	var o model.Order
	if err := f.db.First(&o, "id = ?", id).Error; err != nil {
		f.t.Fatalf("load order %d: %v", id, err)
	}
	return o
}

func (f *fixture) tableStatus(code string) model.TableStatus {
	f.t.Helper()
	var t model.TableInfo
	if err := f.db.First(&t, "code = ?", code).Error; err != nil {
		f.t.Fatalf("load table %s: %v", code, err)
	}
	return t.Status
}

func (f *fixture) setStatus(id int64, st model.OrderStatus) {
	f.t.Helper()
	if err := f.db.Model(&model.Order{}).Where("id = ?", id).Update("status", st).Error; err != nil {
		f.t.Fatalf("set status: %v", err)
	}
}

func TestLifecycle_TableScenario(t *testing.T) {
	f := setup(t)

	id := f.create("T5")
	o := f.order(id)
	if !o.Amount.Equal(decimal.RequireFromString("28.00")) {
		t.Fatalf("amount=%s, want 28.00", o.Amount)
	}
	if o.Status != model.StatusPendingPayment || o.PayStatus != model.PayStatusUnpaid {
		t.Fatalf("status=%d payStatus=%d", o.Status, o.PayStatus)
	}
	if o.TableId == nil || *o.TableId != 1 {
		t.Fatalf("tableId=%v, want 1", o.TableId)
	}
	if len(o.Number) != 20 {
		t.Fatalf("number %q should be 20 digits", o.Number)
	}
	if got := f.tableStatus("T5"); got != model.TableOccupied {
		t.Fatalf("T5 status=%d after create, want occupied", got)
	}

	if err := f.svc.Pay(f.ctx, id, model.PayMethodWechat); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	o = f.order(id)
	if o.Status != model.StatusPaid || o.PayStatus != model.PayStatusPaid || o.PayMethod != model.PayMethodWechat {
		t.Fatalf("after pay: status=%d payStatus=%d payMethod=%d", o.Status, o.PayStatus, o.PayMethod)
	}

	if err := f.svc.Pay(f.ctx, id, model.PayMethodWechat); !errors.Is(err, errno.ErrInvalidState) {
		t.Fatalf("second Pay err=%v, want invalid state", err)
	}

	if err := f.svc.Complete(f.ctx, id); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if o = f.order(id); o.Status != model.StatusCompleted {
		t.Fatalf("status=%d, want completed", o.Status)
	}
	if got := f.tableStatus("T5"); got != model.TableFree {
		t.Fatalf("T5 status=%d after complete, want free", got)
	}

	if err := f.svc.Cancel(f.ctx, id); !errors.Is(err, errno.ErrInvalidState) {
		t.Fatalf("Cancel completed order err=%v, want invalid state", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	f := setup(t)
	neg := decimal.NewFromInt(-1)

	tests := []struct {
		name  string
		param CreateParam
	}{
		{"missing user", CreateParam{Lines: cart()}},
		{"empty cart", CreateParam{UserID: testUser}},
		{"zero quantity", CreateParam{UserID: testUser, Lines: []Line{{DishId: 10, Number: 0}}}},
		{"missing dish", CreateParam{UserID: testUser, Lines: []Line{{Number: 1}}}},
		{"negative amount", CreateParam{UserID: testUser, Lines: []Line{{DishId: 10, Number: 1, Amount: neg}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(f.ctx, tt.param)
			if !errors.Is(err, errno.ErrValidation) {
				t.Fatalf("err=%v, want validation error", err)
			}
		})
	}

	var n int64
	f.db.Model(&model.Order{}).Count(&n)
	if n != 0 {
		t.Fatalf("%d orders persisted by invalid requests", n)
	}
}

func TestCreate_SnapshotFrozen(t *testing.T) {
	f := setup(t)
	spec := int64(100)
	id, err := f.svc.Create(f.ctx, CreateParam{
		UserID: testUser,
		Lines:  []Line{{DishId: 10, SpecificationId: &spec, Number: 1, Amount: decimal.NewFromInt(12)}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	f.db.Model(&model.Dish{}).Where("id = ?", 10).Updates(map[string]interface{}{"name": "Spicy Chicken", "image": "/img/new.png"})
	f.db.Model(&model.Specification{}).Where("id = ?", 100).Update("name", "XL")

	v, err := f.svc.GetDetail(f.ctx, id)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if len(v.Details) != 1 {
		t.Fatalf("got %d lines", len(v.Details))
	}
	d := v.Details[0]
	if d.DishName != "Kung Pao Chicken" || d.SpecificationName != "Large" {
		t.Fatalf("snapshot changed: %+v", d)
	}
	if d.DishImage != "https://cdn.example.com/img/10.png" {
		t.Fatalf("image=%q", d.DishImage)
	}
}

func TestCreate_CatalogMissAbsorbed(t *testing.T) {
	f := setup(t)
	id, err := f.svc.Create(f.ctx, CreateParam{
		UserID: testUser,
		Lines: []Line{
			{DishId: 999, Number: 1, Amount: decimal.NewFromInt(5)},
			{DishId: 10, Number: 1, Amount: decimal.NewFromInt(10)},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	details, err := mysql.Default().QueryOrderDetails(f.ctx, id)
	if err != nil {
		t.Fatalf("QueryOrderDetails: %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("got %d lines, want 2", len(details))
	}
	if details[0].DishName != nil || details[0].DishImage != nil {
		t.Fatalf("missing dish got snapshot %+v", details[0])
	}
	if details[1].DishName == nil || *details[1].DishName != "Kung Pao Chicken" {
		t.Fatalf("second line snapshot %+v", details[1])
	}
	if !f.order(id).Amount.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("amount=%s, want 15", f.order(id).Amount)
	}
}

func TestCreate_UnresolvedTableTolerated(t *testing.T) {
	f := setup(t)

	id := f.create("Z9")
	o := f.order(id)
	if o.TableId != nil {
		t.Fatalf("tableId=%d, want nil", *o.TableId)
	}
	if o.TableRef != "Z9" {
		t.Fatalf("tableRef=%q", o.TableRef)
	}
	if got := f.tableStatus("T5"); got != model.TableFree {
		t.Fatalf("unrelated table touched")
	}

	if err := f.svc.Cancel(f.ctx, id); err != nil {
		t.Fatalf("Cancel with unresolved table: %v", err)
	}

	v, err := f.svc.GetDetail(f.ctx, id)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if v.TableName != "Table Z9" || v.TableCode != "Z9" {
		t.Fatalf("table fallback = %q/%q", v.TableName, v.TableCode)
	}
}

func TestCreate_TableByName(t *testing.T) {
	f := setup(t)

	id := f.create("Patio")
	if o := f.order(id); o.TableId == nil || *o.TableId != 2 {
		t.Fatalf("tableId=%v, want 2", o.TableId)
	}
	if got := f.tableStatus("T6"); got != model.TableOccupied {
		t.Fatalf("T6 status=%d", got)
	}
	if err := f.svc.Cancel(f.ctx, id); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got := f.tableStatus("T6"); got != model.TableFree {
		t.Fatalf("T6 status=%d after cancel", got)
	}
}

func TestTransitionGrid(t *testing.T) {
	actions := map[string]func(s *Service, ctx context.Context, id int64) error{
		"pay":      func(s *Service, ctx context.Context, id int64) error { return s.Pay(ctx, id, model.PayMethodAlipay) },
		"accept":   (*Service).Accept,
		"complete": (*Service).Complete,
		"cancel":   (*Service).Cancel,
	}
	// 每个动作合法的起始状态及流转后的状态
	allowed := map[string]map[model.OrderStatus]model.OrderStatus{
		"pay":      {model.StatusPendingPayment: model.StatusPaid},
		"accept":   {model.StatusPaid: model.StatusPaid},
		"complete": {model.StatusPaid: model.StatusCompleted},
		"cancel":   {model.StatusPendingPayment: model.StatusCancelled, model.StatusPaid: model.StatusCancelled},
	}
	statuses := []model.OrderStatus{model.StatusPendingPayment, model.StatusPaid, model.StatusCompleted, model.StatusCancelled}

	for name, act := range actions {
		for _, from := range statuses {
			t.Run(name+"/"+from.String(), func(t *testing.T) {
				f := setup(t)
				id := f.create("T5")
				f.setStatus(id, from)

				err := act(f.svc, f.ctx, id)
				want, ok := allowed[name][from]
				if !ok {
					if !errors.Is(err, errno.ErrInvalidState) {
						t.Fatalf("err=%v, want invalid state", err)
					}
					if got := f.order(id).Status; got != from {
						t.Fatalf("status moved to %d on rejected transition", got)
					}
					return
				}
				if err != nil {
					t.Fatalf("err=%v, want success", err)
				}
				if got := f.order(id).Status; got != want {
					t.Fatalf("status=%d, want %d", got, want)
				}
			})
		}
	}
}

func TestPay_Methods(t *testing.T) {
	f := setup(t)

	id := f.create("")
	if err := f.svc.Pay(f.ctx, id, model.PayMethod(3)); !errors.Is(err, errno.ErrValidation) {
		t.Fatalf("unknown method err=%v", err)
	}
	if err := f.svc.Pay(f.ctx, id, model.PayMethodNone); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if got := f.order(id).PayMethod; got != model.PayMethodWechat {
		t.Fatalf("payMethod=%d, want wechat default", got)
	}

	if err := f.svc.Pay(f.ctx, 42, model.PayMethodAlipay); !errors.Is(err, errno.ErrNotFound) {
		t.Fatalf("missing order err=%v, want not found", err)
	}
}

func TestPay_CancelledKeepsPayStatus(t *testing.T) {
	f := setup(t)

	id := f.create("T5")
	if err := f.svc.Pay(f.ctx, id, model.PayMethodAlipay); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if err := f.svc.Cancel(f.ctx, id); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	o := f.order(id)
	if o.Status != model.StatusCancelled || o.PayStatus != model.PayStatusPaid {
		t.Fatalf("status=%d payStatus=%d", o.Status, o.PayStatus)
	}
	if got := f.tableStatus("T5"); got != model.TableFree {
		t.Fatalf("T5 status=%d", got)
	}
}

// SQLite 测试库只有一个连接，这里的并发支付实际是串行执行的
// 读后被改写的分支由 TestWriteTransition_StaleRead 覆盖
func TestPay_Concurrent(t *testing.T) {
	f := setup(t)
	id := f.create("T5")

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.svc.Pay(f.ctx, id, model.PayMethodWechat)
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, errno.ErrInvalidState):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("%d pays succeeded, want exactly 1", ok)
	}
}

func TestWriteTransition_StaleRead(t *testing.T) {
	f := setup(t)
	id := f.create("T5")

	// 先读出待支付状态，再由另一个请求完成支付和取消
	stale := f.order(id)
	if err := f.svc.Pay(f.ctx, id, model.PayMethodAlipay); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if err := f.svc.Cancel(f.ctx, id); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := f.svc.dao.UpdateTableStatus(f.ctx, 1, model.TableOccupied); err != nil {
		t.Fatalf("reoccupy T5: %v", err)
	}

	err := f.svc.dao.Transaction(f.ctx, func(tx *mysql.Dao) error {
		return writeTransition(f.ctx, tx, &stale, transition{
			action:    "timed out",
			allowed:   func(st model.OrderStatus) bool { return st == model.StatusPendingPayment },
			to:        model.StatusCancelled,
			updates:   map[string]interface{}{"pay_status": model.PayStatusUnpaid},
			freeTable: true,
		})
	})
	if !errors.Is(err, errno.ErrInvalidState) || !strings.Contains(err.Error(), "concurrently") {
		t.Fatalf("err=%v, want concurrent state change", err)
	}
	o := f.order(id)
	if o.Status != model.StatusCancelled || o.PayStatus != model.PayStatusPaid {
		t.Fatalf("status=%d payStatus=%d, stale write leaked", o.Status, o.PayStatus)
	}
	if got := f.tableStatus("T5"); got != model.TableOccupied {
		t.Fatalf("T5 status=%d, stale write freed the table", got)
	}
}

func TestCreate_RollsBackWhenLinesFail(t *testing.T) {
	f := setup(t)
	if err := f.db.Migrator().DropTable(&model.OrderDetail{}); err != nil {
		t.Fatalf("drop order_detail: %v", err)
	}

	if _, err := f.svc.Create(f.ctx, CreateParam{UserID: testUser, TableRef: "T5", Lines: cart()}); err == nil {
		t.Fatal("Create succeeded without order_detail table")
	}

	var n int64
	if err := f.db.Model(&model.Order{}).Count(&n).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if n != 0 {
		t.Fatalf("%d orders persisted, want 0", n)
	}
	if got := f.tableStatus("T5"); got != model.TableFree {
		t.Fatalf("T5 status=%d, occupy must roll back", got)
	}
}

func TestTransition_RollsBackWhenTableUpdateFails(t *testing.T) {
	tests := []struct {
		name   string
		before func(f *fixture, id int64)
		action func(s *Service, ctx context.Context, id int64) error
		want   model.OrderStatus
	}{
		{
			name: "complete",
			before: func(f *fixture, id int64) {
				if err := f.svc.Pay(f.ctx, id, model.PayMethodWechat); err != nil {
					f.t.Fatalf("Pay: %v", err)
				}
			},
			action: (*Service).Complete,
			want:   model.StatusPaid,
		},
		{
			name:   "cancel",
			before: func(*fixture, int64) {},
			action: (*Service).Cancel,
			want:   model.StatusPendingPayment,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			id := f.create("T5")
			tt.before(f, id)
			if err := f.db.Migrator().DropTable(&model.TableInfo{}); err != nil {
				t.Fatalf("drop table_info: %v", err)
			}

			err := tt.action(f.svc, f.ctx, id)
			if err == nil || errno.IsBiz(err) {
				t.Fatalf("err=%v, want storage error", err)
			}
			if !errors.Is(err, errno.ErrUpdateFailed) {
				t.Fatalf("err=%v, want ErrUpdateFailed", err)
			}
			if got := f.order(id).Status; got != tt.want {
				t.Fatalf("status=%d, want %d after rollback", got, tt.want)
			}
		})
	}
}

type countingLocker struct {
	mu     sync.Mutex
	locks  int
	unlock int
	err    error
}

func (l *countingLocker) Lock(ctx context.Context, orderId int64) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.locks++
	return func() {
		l.mu.Lock()
		l.unlock++
		l.mu.Unlock()
	}, nil
}

func TestLocker(t *testing.T) {
	l := &countingLocker{}
	f := setup(t, WithLocker(l))

	id := f.create("T5")
	if err := f.svc.Pay(f.ctx, id, model.PayMethodWechat); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	_ = f.svc.Pay(f.ctx, id, model.PayMethodWechat)
	if l.locks != 2 || l.unlock != 2 {
		t.Fatalf("locks=%d unlocks=%d, want 2/2", l.locks, l.unlock)
	}

	l.err = errors.New("redis down")
	if err := f.svc.Complete(f.ctx, id); err == nil || !strings.Contains(err.Error(), "redis down") {
		t.Fatalf("lock failure err=%v", err)
	}
	if got := f.order(id).Status; got != model.StatusPaid {
		t.Fatalf("status=%d after lock failure", got)
	}
}

type fakeNotifier struct {
	sent []int64
	err  error
}

func (n *fakeNotifier) SendPayTimeout(ctx context.Context, orderId int64) error {
	n.sent = append(n.sent, orderId)
	return n.err
}

func TestCreate_PayTimeoutNotifier(t *testing.T) {
	n := &fakeNotifier{}
	f := setup(t, WithPayTimeoutNotifier(n))

	id := f.create("T5")
	if len(n.sent) != 1 || n.sent[0] != id {
		t.Fatalf("sent=%v, want [%d]", n.sent, id)
	}

	n.err = errors.New("broker unavailable")
	if _, err := f.svc.Create(f.ctx, CreateParam{UserID: testUser, Lines: cart()}); err != nil {
		t.Fatalf("send failure must not fail create: %v", err)
	}
}

func TestVerifyOwner(t *testing.T) {
	f := setup(t)
	id := f.create("")

	tests := []struct {
		name    string
		orderId int64
		userId  int64
		want    bool
	}{
		{"owner", id, testUser, true},
		{"other user", id, testUser + 1, false},
		{"no user", id, 0, false},
		{"missing order", id + 1, testUser, false},
	}
	for _, tt := range tests {
		if got := f.svc.VerifyOwner(f.ctx, tt.orderId, tt.userId); got != tt.want {
			t.Errorf("%s: VerifyOwner=%v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestGuard_Verify(t *testing.T) {
	f := setup(t)
	id := f.create("")
	g := NewGuard(f.svc)

	tests := []struct {
		name    string
		ctx     context.Context
		orderId int64
		wantErr error
	}{
		{"owner", auth.WithIdentity(f.ctx, auth.Identity{UserID: testUser, Role: auth.RoleUser}), id, nil},
		{"not logged in", f.ctx, id, errno.ErrValidation},
		{"admin identity is not a user", auth.WithIdentity(f.ctx, auth.Identity{UserID: testUser, Role: auth.RoleAdmin}), id, errno.ErrValidation},
		{"other user", auth.WithIdentity(f.ctx, auth.Identity{UserID: 99, Role: auth.RoleUser}), id, errno.ErrOwnership},
		{"missing order", auth.WithIdentity(f.ctx, auth.Identity{UserID: testUser, Role: auth.RoleUser}), id + 1, errno.ErrOwnership},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Verify(tt.ctx, tt.orderId)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("err=%v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err=%v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenNumber(t *testing.T) {
	now := time.Date(2024, 3, 9, 18, 30, 5, 0, time.Local)
	for i := 0; i < 50; i++ {
		n := GenNumber(now)
		if len(n) != 20 || !strings.HasPrefix(n, "20240309183005") {
			t.Fatalf("GenNumber=%q", n)
		}
		if n[14] == '0' {
			t.Fatalf("suffix %q must be in [100000, 999999]", n[14:])
		}
	}
}
