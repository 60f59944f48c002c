package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Server modes, matching gin's
const (
	ModeDebug   = "debug"
	ModeRelease = "release"
	ModeTest    = "test"
)

// DevJWTSecret signs tokens in debug mode when no secret is configured
const DevJWTSecret = "societyhub-dev-secret"

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Notify   NotifyConfig   `mapstructure:"notification"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release or test
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver           string        `mapstructure:"driver"` // sqlite3 or postgres
	Path             string        `mapstructure:"path"`
	DSN              string        `mapstructure:"dsn"`
	MaxOpenConns     int           `mapstructure:"max_open_conns"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	FallbackToMemory bool          `mapstructure:"fallback_to_memory"`
	SeedDemo         bool          `mapstructure:"seed_demo_data"`
}

// AuthConfig holds token and password hashing settings
type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

// NotifyConfig selects the notification channels
type NotifyConfig struct {
	Channels []string    `mapstructure:"channels"` // log, lark, redis
	Lark     LarkConfig  `mapstructure:"lark"`
	Redis    RedisConfig `mapstructure:"redis"`
}

// LarkConfig holds Lark API configuration
type LarkConfig struct {
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
}

// RedisConfig holds the redis publisher configuration
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// StorageConfig holds attachment storage configuration
type StorageConfig struct {
	AttachmentDir      string `mapstructure:"attachment_dir"`
	MaxAttachmentBytes int64  `mapstructure:"max_upload_bytes"`
}

// WorkflowConfig tunes the workflow engine
type WorkflowConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads configuration from an optional .env file, the YAML file at
// configPath and environment variables, in increasing order of precedence.
// A missing config file falls back to defaults and the environment.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" && Exists(configPath) {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv exports the variables in path without overriding ones already set
func loadDotEnv(path string) error {
	err := gotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Database defaults
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.path", "data/societyhub.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.connect_timeout", 5*time.Second)
	v.SetDefault("database.fallback_to_memory", true)
	v.SetDefault("database.seed_demo_data", true)

	// Auth defaults
	v.SetDefault("auth.token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)

	// Notification defaults
	v.SetDefault("notification.channels", []string{"log"})
	v.SetDefault("notification.redis.channel", "societyhub:notifications")

	// Storage defaults
	v.SetDefault("storage.attachment_dir", "uploads")
	v.SetDefault("storage.max_upload_bytes", 10<<20)

	v.SetDefault("workflow.max_attempts", 3)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("SOCIETYHUB")
	v.AutomaticEnv()

	// Well-known names without the prefix
	_ = v.BindEnv("server.port", "SOCIETYHUB_SERVER_PORT", "PORT")
	_ = v.BindEnv("auth.jwt_secret", "SOCIETYHUB_AUTH_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("server.mode", "SOCIETYHUB_SERVER_MODE", "GIN_MODE")
	_ = v.BindEnv("database.dsn", "SOCIETYHUB_DATABASE_DSN", "DATABASE_DSN", "DATABASE_URL")
	_ = v.BindEnv("notification.lark.app_id", "SOCIETYHUB_NOTIFICATION_LARK_APP_ID", "LARK_APP_ID")
	_ = v.BindEnv("notification.lark.app_secret", "SOCIETYHUB_NOTIFICATION_LARK_APP_SECRET", "LARK_APP_SECRET")
	_ = v.BindEnv("notification.redis.addr", "SOCIETYHUB_NOTIFICATION_REDIS_ADDR", "REDIS_ADDR")
	_ = v.BindEnv("notification.redis.password", "SOCIETYHUB_NOTIFICATION_REDIS_PASSWORD", "REDIS_PASSWORD")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	switch c.Database.Driver {
	case "sqlite3":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite3")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite3 or postgres, got %q", c.Database.Driver)
	}

	switch c.Server.Mode {
	case ModeDebug, ModeRelease, ModeTest:
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}

	// Validate auth
	if c.Auth.JWTSecret == "" && c.Server.Mode != ModeDebug {
		return fmt.Errorf("auth.jwt_secret is required outside debug mode")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}

	for _, ch := range c.Notify.Channels {
		switch strings.ToLower(ch) {
		case "log":
		case "lark":
			if c.Notify.Lark.AppID == "" || c.Notify.Lark.AppSecret == "" {
				return fmt.Errorf("notification.lark.app_id and notification.lark.app_secret are required for the lark channel")
			}
		case "redis":
			if c.Notify.Redis.Addr == "" {
				return fmt.Errorf("notification.redis.addr is required for the redis channel")
			}
		default:
			return fmt.Errorf("unknown notification channel %q", ch)
		}
	}

	if c.Storage.AttachmentDir == "" {
		return fmt.Errorf("storage.attachment_dir is required")
	}

	return nil
}

// Exists reports whether a config file is present at path
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
