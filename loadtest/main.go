// loadtest 并发压测：多个协程对同一订单重复支付，只允许一次成功
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

var (
	addr   = flag.String("addr", "http://127.0.0.1:8080", "服务地址")
	userId = flag.Int64("user", 1, "下单用户ID")
	table  = flag.String("table", "T5", "桌位引用")
	dishId = flag.Int64("dish", 1, "菜品ID")
	n      = flag.Int("n", 5, "并发协程数")
)

var client = &http.Client{Timeout: 5 * time.Second}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func post(path string, body interface{}) (int, envelope, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return 0, envelope{}, err
	}
	req, err := http.NewRequest(http.MethodPost, *addr+path, bytes.NewReader(b))
	if err != nil {
		return 0, envelope{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", strconv.FormatInt(*userId, 10))
	req.Header.Set("X-User-Role", "USER")

	resp, err := client.Do(req)
	if err != nil {
		return 0, envelope{}, err
	}
	defer resp.Body.Close()
	var env envelope
	err = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env, err
}

func createOrder() (int64, error) {
	status, env, err := post("/mini/order/create", map[string]interface{}{
		"tableRef": *table,
		"orderDetails": []map[string]interface{}{
			{"dishId": *dishId, "number": 1, "amount": "10.00"},
		},
	})
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("create order: %d %s", status, env.Msg)
	}
	var data struct {
		Id int64 `json:"id"`
	}
	err = json.Unmarshal(env.Data, &data)
	return data.Id, err
}

// PayOrder 支付一次，记录成功次数和错误次数
func PayOrder(wg *sync.WaitGroup, orderId int64, okCount, errCount *int32, index int) {
	defer wg.Done()
	status, env, err := post("/mini/order/pay", map[string]interface{}{"id": orderId, "payMethod": 1})
	switch {
	case err != nil:
		atomic.AddInt32(errCount, 1)
		log.Printf("[%d] pay failed: %v", index, err)
	case status == http.StatusOK:
		atomic.AddInt32(okCount, 1)
		log.Printf("[%d] pay ok", index)
	case status == http.StatusConflict:
		log.Printf("[%d] pay rejected: %s", index, env.Msg)
	default:
		atomic.AddInt32(errCount, 1)
		log.Printf("[%d] unexpected status %d: %s", index, status, env.Msg)
	}
}

func main() {
	flag.Parse()

	orderId, err := createOrder()
	if err != nil {
		log.Fatalf("create order: %v", err)
	}
	log.Printf("order created: %d", orderId)

	var (
		wg       sync.WaitGroup
		okCount  int32
		errCount int32
	)
	for i := 0; i < *n; i++ {
		wg.Add(1)
		go PayOrder(&wg, orderId, &okCount, &errCount, i)
	}
	wg.Wait()

	fmt.Printf("测试完成，成功支付: %d，错误数: %d\n", atomic.LoadInt32(&okCount), atomic.LoadInt32(&errCount))
	if okCount != 1 {
		log.Fatalf("expected exactly one successful payment")
	}
}
