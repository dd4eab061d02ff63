// internal/service/config.go
package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 进程级配置
type Config struct {
	Ledger LedgerConfig `mapstructure:"Ledger"`
	Cache  CacheConfig  `mapstructure:"Cache"`
	Server ServerConfig `mapstructure:"Server"`
	Poll   PollConfig   `mapstructure:"Poll"`
	Chart  ChartConfig  `mapstructure:"Chart"`
	Log    LogConfig    `mapstructure:"Log"`
	DryRun bool         `mapstructure:"DryRun"` // true 时使用模拟执行器，不发送 secure 调用
}

// LedgerConfig 定义了账本节点 API 的连接信息
type LedgerConfig struct {
	URL      string
	Username string
	Password string
	Session  string // 宿主登录后提供的会话，secure 调用会带上
	Timeout  time.Duration
}

// CacheConfig 响应缓存
type CacheConfig struct {
	TTL           time.Duration
	TokenTTL      time.Duration // 代币元数据变化很慢，单独设置
	Backend       string        // memory 或 redis
	RedisAddr     string
	SweepInterval time.Duration // 0 表示只在读取时惰性过期
}

// ServerConfig 本地 HTTP/WS 服务
type ServerConfig struct {
	Addr string
}

// PollConfig 视图轮询
type PollConfig struct {
	Interval time.Duration
	Market   string // 启动时默认关注的交易对
}

// ChartConfig 图表与指标参数
type ChartConfig struct {
	Location        string // K 线对齐使用的时区，空为本地时区
	SMAPeriod       int
	EMAPeriod       int
	BollingerPeriod int
	BollingerDev    float64
}

// LogConfig 日志
type LogConfig struct {
	Level string
}

const envPrefix = "DEXCORE"

func setDefaults(v *viper.Viper) {
	v.SetDefault("Ledger.URL", "http://localhost:8080")
	v.SetDefault("Ledger.Username", "")
	v.SetDefault("Ledger.Password", "")
	v.SetDefault("Ledger.Session", "")
	v.SetDefault("Ledger.Timeout", 10*time.Second)
	v.SetDefault("Cache.TTL", 15*time.Second)
	v.SetDefault("Cache.TokenTTL", 10*time.Minute)
	v.SetDefault("Cache.Backend", "memory")
	v.SetDefault("Cache.RedisAddr", "localhost:6379")
	v.SetDefault("Cache.SweepInterval", 5*time.Minute)
	v.SetDefault("Server.Addr", "127.0.0.1:9470")
	v.SetDefault("Poll.Interval", 60*time.Second)
	v.SetDefault("Poll.Market", "")
	v.SetDefault("Chart.Location", "")
	v.SetDefault("Chart.SMAPeriod", 20)
	v.SetDefault("Chart.EMAPeriod", 20)
	v.SetDefault("Chart.BollingerPeriod", 20)
	v.SetDefault("Chart.BollingerDev", 2.0)
	v.SetDefault("Log.Level", "info")
	v.SetDefault("DryRun", false)
}

// LoadConfig 读取并解析配置文件 (configPath/config.yaml)，文件不存在时只使用默认值和环境变量
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 环境变量覆盖，例如 DEXCORE_LEDGER_URL; 目录本身也可由 DEXCORE_CONFIG_DIR 指定
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("config_dir", configPath)

	// 设置配置文件的名称、类型和路径
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(v.GetString("config_dir"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查配置的取值范围
func (c *Config) Validate() error {
	if c.Ledger.URL == "" {
		return errors.New("config: Ledger.URL is required")
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unsupported Cache.Backend %q", c.Cache.Backend)
	}
	if c.Poll.Interval < 30*time.Second || c.Poll.Interval > 300*time.Second {
		return fmt.Errorf("config: Poll.Interval %s outside 30s-300s", c.Poll.Interval)
	}
	if c.Chart.SMAPeriod < 2 || c.Chart.EMAPeriod < 2 || c.Chart.BollingerPeriod < 2 {
		return errors.New("config: indicator periods must be >= 2")
	}
	return nil
}

// ChartLocation 解析 K 线对齐时区
func (c *Config) ChartLocation() (*time.Location, error) {
	if c.Chart.Location == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Chart.Location)
}
