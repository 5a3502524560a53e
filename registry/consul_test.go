package registry

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/consul/api"
)

func TestServiceID(t *testing.T) {
	if got := ServiceID("dinein_order", "10.0.0.5", 8389); got != "dinein_order-10.0.0.5-8389" {
		t.Fatalf("ServiceID=%q", got)
	}
}

// 用 httptest 模拟 consul agent 接口
func TestRegisterAndDeregister(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
		reg   api.AgentServiceRegistration
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/service/register") {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &reg)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := Init(strings.TrimPrefix(srv.URL, "http://")); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := Reg.RegisterService("dinein_order", "127.0.0.1", 8389, []string{"order"}); err != nil {
		t.Fatalf("RegisterService: %v", err)
	}
	if err := Reg.Deregister(ServiceID("dinein_order", "127.0.0.1", 8389)); err != nil {
		t.Fatalf("Deregister: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{
		"PUT /v1/agent/service/register",
		"PUT /v1/agent/service/deregister/dinein_order-127.0.0.1-8389",
	}
	if len(paths) != len(want) || paths[0] != want[0] || paths[1] != want[1] {
		t.Fatalf("paths=%v, want %v", paths, want)
	}
	if reg.ID != "dinein_order-127.0.0.1-8389" || reg.Port != 8389 || reg.Check == nil || reg.Check.GRPC != "127.0.0.1:8389" {
		t.Fatalf("registration=%+v check=%+v", reg, reg.Check)
	}
}
