package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dinein_order/biz/catalog"
	"dinein_order/biz/order"
	"dinein_order/biz/table"
	"dinein_order/config"
	"dinein_order/dao/mq"
	"dinein_order/dao/mysql"
	"dinein_order/dao/redis"
	"dinein_order/handler"
	"dinein_order/logger"
	"dinein_order/registry"
	"dinein_order/third_party/snowflake"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	var cfn string
	// 0.从命令行获取可能的conf路径
	flag.StringVar(&cfn, "conf", "./conf/config.yaml", "指定配置文件路径")
	flag.Parse()
	// 1. 加载配置文件
	err := config.Init(cfn)
	if err != nil {
		panic(err) // 程序启动时加载配置文件失败直接退出
	}
	// 2. 加载日志
	err = logger.Init(config.Conf.LogConfig, config.Conf.Mode)
	if err != nil {
		panic(err)
	}
	defer zap.L().Sync() // nolint: errcheck
	// 3. 初始化MySQL
	err = mysql.Init(config.Conf.MySQLConfig)
	if err != nil {
		panic(err)
	}
	defer mysql.Close()
	// 4. 初始化snowflake
	err = snowflake.Init(config.Conf.StartTime, config.Conf.MachineID)
	if err != nil {
		panic(err)
	}
	// 5. 初始化Consul
	err = registry.Init(config.Conf.ConsulConfig.Addr)
	if err != nil {
		panic(err)
	}

	// 6. 组装业务层
	dao := mysql.Default()
	var opts []order.Option
	opts = append(opts, order.WithImageURL(imageURL(config.Conf.ImageConfig)))

	rc := config.Conf.RedisConfig
	if rc != nil && (rc.CatalogTTL > 0 || rc.OrderLock) {
		if err = redis.Init(rc); err != nil {
			panic(err)
		}
		defer redis.Close()
		if rc.CatalogTTL > 0 {
			// 缓存只用于展示补全，下单快照始终读库
			menu := catalog.NewCachedCatalog(dao, redis.Client(), time.Duration(rc.CatalogTTL)*time.Second)
			opts = append(opts, order.WithDisplayCatalog(menu))
		}
		if rc.OrderLock {
			opts = append(opts, order.WithLocker(redis.NewOrderLocker(redis.Client())))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	oc := config.Conf.OrderConfig
	payTimeout := oc != nil && oc.PayTimeoutMinutes > 0
	if payTimeout {
		// 7. 支付超时：延迟消息 + 定时扫描兜底
		mqc := config.Conf.RocketMqConfig
		if err = mq.Init(mqc); err != nil {
			panic(err)
		}
		opts = append(opts, order.WithPayTimeoutNotifier(mq.NewPayTimeoutSender(mq.Producer, mqc.Topic.PayTimeOut, oc.PayTimeoutMinutes)))
	}

	orders := order.NewService(dao, catalog.NewResolver(dao), opts...)

	if payTimeout {
		if err = mq.InitConsumer(config.Conf.RocketMqConfig, orders.OrderTimeoutHandle); err != nil {
			panic(err)
		}
		defer mq.Exit()

		interval := time.Duration(oc.ScanIntervalMinutes) * time.Minute
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go orders.StartTimeoutScanner(ctx, interval, time.Duration(oc.PayTimeoutMinutes)*time.Minute)
	}

	// 8. 启动HTTP服务
	r := handler.SetupRouter(config.Conf.Mode, handler.New(orders, table.NewCoordinator(dao)))
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Conf.Port),
		Handler: r,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("http server failed", zap.Error(err))
		}
	}()

	// 9. 启动gRPC健康检查服务，供consul探活
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", config.Conf.GrpcPort))
	if err != nil {
		panic(err)
	}
	s := grpc.NewServer()
	healthSrv := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthSrv)
	go func() {
		if err := s.Serve(lis); err != nil {
			zap.L().Error("grpc server stopped", zap.Error(err))
		}
	}()

	// 注册服务到consul
	err = registry.Reg.RegisterService(config.Conf.Name, config.Conf.IP, config.Conf.GrpcPort, []string{"http", fmt.Sprintf("http_port=%d", config.Conf.Port)})
	if err != nil {
		zap.L().Error("register service failed", zap.Error(err))
	}

	zap.L().Info("service start...", zap.Int("port", config.Conf.Port), zap.Int("grpc_port", config.Conf.GrpcPort))

	// 服务退出时要注销服务
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit // 正常会hang在此处
	zap.L().Info("shutdown service...")

	serviceId := registry.ServiceID(config.Conf.Name, config.Conf.IP, config.Conf.GrpcPort)
	if err := registry.Reg.Deregister(serviceId); err != nil {
		zap.L().Error("deregister service failed", zap.Error(err))
	}
	healthSrv.Shutdown()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("http server shutdown failed", zap.Error(err))
	}
	s.GracefulStop()
}

// imageURL 未配置图片前缀时原样返回库里的路径
func imageURL(cfg *config.ImageConfig) order.ImageURL {
	if cfg == nil {
		return order.ImageURL{}
	}
	return order.ImageURL{BaseURL: cfg.BaseURL}
}
