package config

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf 全局配置变量
var Conf = new(AppConfig)

type AppConfig struct {
	Name      string `mapstructure:"name"`
	Mode      string `mapstructure:"mode"`
	IP        string `mapstructure:"ip"`
	Port      int    `mapstructure:"port"`
	GrpcPort  int    `mapstructure:"grpc_port"`
	StartTime string `mapstructure:"start_time"`
	MachineID int64  `mapstructure:"machine_id"`

	*LogConfig      `mapstructure:"log"`
	*MySQLConfig    `mapstructure:"mysql"`
	*RedisConfig    `mapstructure:"redis"`
	*RocketMqConfig `mapstructure:"rocketmq"`
	*ConsulConfig   `mapstructure:"consul"`
	*OrderConfig    `mapstructure:"order"`
	*ImageConfig    `mapstructure:"image"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DB           string `mapstructure:"dbname"`
	Port         int    `mapstructure:"port"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Password string `mapstructure:"password"`
	Port     int    `mapstructure:"port"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
	// CatalogTTL 菜品快照缓存时间（秒），0 表示不使用缓存
	CatalogTTL int  `mapstructure:"catalog_ttl"`
	OrderLock  bool `mapstructure:"order_lock"`
}

type RocketMqConfig struct {
	Addr    string `mapstructure:"addr"`
	GroupId string `mapstructure:"group_id"`
	Topic   struct {
		PayTimeOut string `mapstructure:"pay_timeout"`
	} `mapstructure:"topic"`
}

type ConsulConfig struct {
	Addr string `mapstructure:"addr"`
}

type OrderConfig struct {
	// PayTimeoutMinutes 未支付订单自动取消时间，0 表示关闭
	PayTimeoutMinutes int `mapstructure:"pay_timeout_minutes"`
	// ScanIntervalMinutes 超时订单扫描间隔
	ScanIntervalMinutes int `mapstructure:"scan_interval_minutes"`
}

type ImageConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// Init 加载配置文件，并监听配置变化
func Init(filePath string) (err error) {
	// .env 文件可选，不存在时忽略
	_ = godotenv.Load()

	viper.SetConfigFile(filePath)
	viper.SetEnvPrefix("SMDC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err != nil {
		return err
	}
	if err = viper.Unmarshal(Conf); err != nil {
		return err
	}

	viper.WatchConfig()
	viper.OnConfigChange(func(in fsnotify.Event) {
		zap.L().Info("config file changed", zap.String("name", in.Name))
		if err := viper.Unmarshal(Conf); err != nil {
			zap.L().Error("viper.Unmarshal failed", zap.Error(err))
		}
	})
	return nil
}
