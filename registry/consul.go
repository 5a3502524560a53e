package registry

import (
	"fmt"

	"github.com/hashicorp/consul/api"
)

// Register 服务注册
type Register interface {
	RegisterService(serviceName, ip string, port int, tags []string) error
	Deregister(serviceID string) error
}

type consul struct {
	client *api.Client
}

// Reg 全局注册中心
var Reg Register

// Init 连接 consul
func Init(addr string) error {
	cfg := api.DefaultConfig()
	cfg.Address = addr
	c, err := api.NewClient(cfg)
	if err != nil {
		return err
	}
	Reg = &consul{client: c}
	return nil
}

// ServiceID 服务实例ID：name-ip-port
func ServiceID(serviceName, ip string, port int) string {
	return fmt.Sprintf("%s-%s-%d", serviceName, ip, port)
}

// RegisterService 注册服务，port 为 gRPC 端口，consul 通过 grpc health 协议做健康检查
func (c *consul) RegisterService(serviceName, ip string, port int, tags []string) error {
	check := &api.AgentServiceCheck{
		GRPC:                           fmt.Sprintf("%s:%d", ip, port),
		Timeout:                        "10s",
		Interval:                       "10s",
		DeregisterCriticalServiceAfter: "1m",
	}
	srv := &api.AgentServiceRegistration{
		ID:      ServiceID(serviceName, ip, port),
		Name:    serviceName,
		Tags:    tags,
		Address: ip,
		Port:    port,
		Check:   check,
	}
	return c.client.Agent().ServiceRegister(srv)
}

// Deregister 注销服务
func (c *consul) Deregister(serviceID string) error {
	return c.client.Agent().ServiceDeregister(serviceID)
}
