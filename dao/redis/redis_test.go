package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestKey(t *testing.T) {
	if got := Key("dish", "10"); got != "dinein_order:dish:10" {
		t.Fatalf("Key = %q", got)
	}
}

func TestJSONCache(t *testing.T) {
	mr, c := newClient(t)
	ctx := context.Background()

	type dish struct {
		Name string `json:"name"`
	}
	var out dish
	if err := GetJSON(ctx, c, "k", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("GetJSON on empty cache: err=%v, want miss", err)
	}
	if err := SetJSON(ctx, c, "k", dish{Name: "Mapo Tofu"}, time.Minute); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	if err := GetJSON(ctx, c, "k", &out); err != nil || out.Name != "Mapo Tofu" {
		t.Fatalf("GetJSON: %+v %v", out, err)
	}

	mr.FastForward(2 * time.Minute)
	if err := GetJSON(ctx, c, "k", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("GetJSON after ttl: err=%v, want miss", err)
	}
}

func TestOrderLocker(t *testing.T) {
	_, c := newClient(t)
	locker := NewOrderLocker(c)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, 1)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	// 不同订单互不影响
	unlockOther, err := locker.Lock(ctx, 2)
	if err != nil {
		t.Fatalf("Lock other order: %v", err)
	}
	unlockOther()

	short, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(short, 1); err == nil {
		t.Fatal("second lock on the same order must fail while held")
	}

	unlock()
	unlock2, err := locker.Lock(ctx, 1)
	if err != nil {
		t.Fatalf("Lock after unlock: %v", err)
	}
	unlock2()
}

func TestOrderLocker_ExpiredUnlockLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	mr, c := newClient(t)
	unlock, err := NewOrderLocker(c).Lock(context.Background(), 3)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	// 锁过期后再释放
	mr.FastForward(10 * time.Second)
	unlock()

	entries := logs.FilterMessage("release order lock failed").All()
	if len(entries) != 1 {
		t.Fatalf("got %d warnings, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["orderId"]; got != int64(3) {
		t.Fatalf("orderId field = %v", got)
	}
}
