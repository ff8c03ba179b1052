package config

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Log           LogConfig           `mapstructure:"log"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Snowflake     SnowflakeConfig     `mapstructure:"snowflake"`
	Cron          CronConfig          `mapstructure:"cron"`
	Moderation    ModerationConfig    `mapstructure:"moderation"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name string     `mapstructure:"name"`
	Mode string     `mapstructure:"mode"`
	Port int        `mapstructure:"port"`
	Cors CorsConfig `mapstructure:"cors"`
}

// CorsConfig 跨域配置
type CorsConfig struct {
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
	ExposedHeaders   []string `mapstructure:"expose_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAgeSeconds    int      `mapstructure:"max_age_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver         string `mapstructure:"driver"` // mysql | postgres | sqlite
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	Database       string `mapstructure:"database"`
	Charset        string `mapstructure:"charset"`
	SSLMode        string `mapstructure:"sslmode"`
	Path           string `mapstructure:"path"` // sqlite 文件路径
	MaxIdleConns   int    `mapstructure:"max_idle_conns"`
	MaxOpenConns   int    `mapstructure:"max_open_conns"`
	LogLevel       string `mapstructure:"log_level"`
	ConnectRetries uint   `mapstructure:"connect_retries"`
}

// DSN 获取数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	switch c.Driver {
	case "postgres":
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			c.Host, c.Port, c.Username, c.Password, c.Database, sslMode)
	case "sqlite":
		if c.Path == "" {
			return "folio.db"
		}
		return c.Path
	default:
		charset := c.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
			c.Username, c.Password, c.Host, c.Port, c.Database, charset)
	}
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// Addr 获取Redis地址
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ElasticsearchConfig Elasticsearch配置
type ElasticsearchConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	URLs     []string `mapstructure:"urls"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	Index    string   `mapstructure:"index"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
	Stdout     bool   `mapstructure:"stdout"`
}

// JWTConfig 会话令牌配置
type JWTConfig struct {
	SecretKey           string `mapstructure:"secret_key"`
	AccessExpireSeconds int    `mapstructure:"access_expire_seconds"`
	BufferSeconds       int    `mapstructure:"buffer_seconds"`
	Issuer              string `mapstructure:"issuer"`
	CookieName          string `mapstructure:"cookie_name"`
	CookieSecure        bool   `mapstructure:"cookie_secure"`
	Blacklist           string `mapstructure:"blacklist"` // memory | redis
}

// Expire 会话有效期
func (c *JWTConfig) Expire() time.Duration {
	return time.Duration(c.AccessExpireSeconds) * time.Second
}

// Buffer 临近过期提示阈值
func (c *JWTConfig) Buffer() time.Duration {
	return time.Duration(c.BufferSeconds) * time.Second
}

// SnowflakeConfig 请求ID生成配置
type SnowflakeConfig struct {
	StartTime string `mapstructure:"start_time"` // 2006-01-02
	MachineID int64  `mapstructure:"machine_id"`
}

// CronConfig 定时任务配置
type CronConfig struct {
	Enabled                bool   `mapstructure:"enabled"`
	Timezone               string `mapstructure:"timezone"`
	CleanupSpec            string `mapstructure:"cleanup_spec"`
	ReadNotificationTTLDay int    `mapstructure:"read_notification_ttl_days"`
}

// ModerationConfig 评论审核配置
type ModerationConfig struct {
	DictPath string   `mapstructure:"dict_path"`
	Words    []string `mapstructure:"words"`
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig *Config
	// 配置Viper实例
	viperInstance *viper.Viper
	mu            sync.RWMutex
	onChange      []func(*Config)
)

// Init 初始化配置
func Init(configPath string) error {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(configPath)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("FOLIO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}

	mu.Lock()
	GlobalConfig = &config
	viperInstance = v
	mu.Unlock()

	// 监听配置文件变化
	v.WatchConfig()
	v.OnConfigChange(func(in fsnotify.Event) {
		var reloaded Config
		if err := v.Unmarshal(&reloaded); err != nil {
			log.Printf("重新加载配置失败: %v", err)
			return
		}
		mu.Lock()
		GlobalConfig = &reloaded
		hooks := append([]func(*Config){}, onChange...)
		mu.Unlock()
		log.Printf("配置文件已更新: %s", in.Name)
		for _, fn := range hooks {
			fn(&reloaded)
		}
	})
	return nil
}

// OnChange 注册配置变更回调
func OnChange(fn func(*Config)) {
	mu.Lock()
	defer mu.Unlock()
	onChange = append(onChange, fn)
}

// Default 返回仅包含默认值的配置，用于测试和命令行工具
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	_ = v.Unmarshal(&config)
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "folio-api")
	v.SetDefault("app.mode", "debug")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.cors.allow_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("app.cors.allow_headers", []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"})
	v.SetDefault("app.cors.max_age_seconds", 43200)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "folio.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.connect_retries", 3)
	v.SetDefault("elasticsearch.index", "posts")
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.secret_key", "change-me")
	v.SetDefault("jwt.access_expire_seconds", 14*24*3600)
	v.SetDefault("jwt.buffer_seconds", 3600)
	v.SetDefault("jwt.issuer", "folio-api")
	v.SetDefault("jwt.cookie_name", "folio_session")
	v.SetDefault("jwt.blacklist", "memory")
	v.SetDefault("snowflake.start_time", "2024-01-01")
	v.SetDefault("snowflake.machine_id", 1)
	v.SetDefault("cron.timezone", "Asia/Shanghai")
	v.SetDefault("cron.cleanup_spec", "0 0 3 * * *")
	v.SetDefault("cron.read_notification_ttl_days", 30)
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return GlobalConfig
}

// GetString 获取字符串配置
func GetString(key string) string {
	return viperInstance.GetString(key)
}
