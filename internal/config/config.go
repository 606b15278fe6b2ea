package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Comment  CommentConfig  `mapstructure:"comment"`
	Mail     MailConfig     `mapstructure:"mail"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Backup   BackupConfig   `mapstructure:"backup"`
	Visit    VisitConfig    `mapstructure:"visit"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name           string     `mapstructure:"name"`
	Mode           string     `mapstructure:"mode"`
	Port           int        `mapstructure:"port"`
	TrustedProxies []string   `mapstructure:"trusted_proxies"`
	Cors           CorsConfig `mapstructure:"cors"`
}

// CorsConfig 跨域配置
type CorsConfig struct {
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
	ExposedHeaders   []string `mapstructure:"expose_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql | postgres | sqlite
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	Charset      string `mapstructure:"charset"`
	SSLMode      string `mapstructure:"sslmode"`
	Path         string `mapstructure:"path"` // sqlite 文件路径
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	LogLevel     string `mapstructure:"log_level"`
}

// DSN 获取数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	switch c.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode)
	case "sqlite":
		return c.Path
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
			c.Username, c.Password, c.Host, c.Port, c.Database, c.Charset)
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

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	ExpireSeconds int    `mapstructure:"expire_seconds"`
	Issuer        string `mapstructure:"issuer"`
}

// AdminConfig 管理员账号，密码使用 bcrypt 哈希保存
type AdminConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
}

// CommentConfig 评论相关配置
type CommentConfig struct {
	RateLimitSeconds int    `mapstructure:"rate_limit_seconds"`
	DefaultStatus    string `mapstructure:"default_status"`
	SensitiveWords   string `mapstructure:"sensitive_words"` // 敏感词文件，每行一个
}

// MailConfig 邮件网关与通知队列配置
type MailConfig struct {
	GatewayURL   string `mapstructure:"gateway_url"`
	GatewayToken string `mapstructure:"gateway_token"`
	FromName     string `mapstructure:"from_name"`
	QueueSize    int    `mapstructure:"queue_size"`
	Workers      int    `mapstructure:"workers"`
}

// StorageConfig 备份存储配置
type StorageConfig struct {
	Type string     `mapstructure:"type"` // s3 | cos
	S3   S3Storage  `mapstructure:"s3"`
	COS  COSStorage `mapstructure:"cos"`
}

// S3Storage S3 默认配置，数据库 settings 中的值优先
type S3Storage struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// COSStorage 腾讯云COS存储配置
type COSStorage struct {
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	BucketURL string `mapstructure:"bucket_url"`
}

// BackupConfig 定时备份配置
type BackupConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"`
	Prefix  string `mapstructure:"prefix"`
}

// VisitConfig 访问统计配置
type VisitConfig struct {
	DedupeSeconds int     `mapstructure:"dedupe_seconds"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig *Config

	mu        sync.RWMutex
	listeners []func(*Config)
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "cmt-rr")
	v.SetDefault("app.mode", "release")
	v.SetDefault("app.port", 8088)
	v.SetDefault("app.cors.allow_origins", []string{"*"})
	v.SetDefault("app.cors.allow_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("app.cors.allow_headers", []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/cmt.db")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.stdout", true)

	v.SetDefault("jwt.expire_seconds", 7*24*3600)
	v.SetDefault("jwt.issuer", "cmt-rr")
	v.SetDefault("admin.username", "admin")

	v.SetDefault("comment.rate_limit_seconds", 10)
	v.SetDefault("comment.default_status", "approved")

	v.SetDefault("mail.from_name", "评论通知")
	v.SetDefault("mail.queue_size", 256)
	v.SetDefault("mail.workers", 2)

	v.SetDefault("storage.type", "s3")
	v.SetDefault("storage.s3.region", "auto")

	v.SetDefault("backup.cron", "0 0 3 * * *")
	v.SetDefault("backup.prefix", "cwd-backup-")

	v.SetDefault("visit.dedupe_seconds", 0)
	v.SetDefault("visit.rate_per_second", 2)
	v.SetDefault("visit.burst", 10)
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", c.Database.Driver)
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("无效的端口: %d", c.App.Port)
	}
	if c.JWT.SecretKey == "" {
		return errors.New("jwt.secret_key 不能为空")
	}
	switch c.Comment.DefaultStatus {
	case "approved", "pending":
	default:
		return fmt.Errorf("无效的评论默认状态: %s", c.Comment.DefaultStatus)
	}
	return nil
}

// Init 初始化配置
func Init(configPath string) error {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(configPath)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("读取配置文件失败: %v", err)
		}
		log.Printf("未找到配置文件，使用默认配置: %v", err)
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("配置校验失败: %v", err)
	}

	mu.Lock()
	GlobalConfig = cfg
	mu.Unlock()

	if v.ConfigFileUsed() != "" {
		v.OnConfigChange(func(in fsnotify.Event) {
			log.Printf("配置文件已变更: %s", in.Name)
			reloaded, err := unmarshal(v)
			if err != nil {
				log.Printf("重新加载配置失败: %v", err)
				return
			}
			mu.Lock()
			GlobalConfig = reloaded
			fns := append([]func(*Config){}, listeners...)
			mu.Unlock()
			for _, fn := range fns {
				fn(reloaded)
			}
		})
		v.WatchConfig()
	}
	return nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %v", err)
	}
	return &cfg, nil
}

// OnChange 注册配置变更回调
func OnChange(fn func(*Config)) {
	mu.Lock()
	defer mu.Unlock()
	listeners = append(listeners, fn)
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return GlobalConfig
}
