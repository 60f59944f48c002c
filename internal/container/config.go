// Package container provides dependency injection and lifecycle management
// for the SocietyHub service following Clean Architecture principles.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Auth configuration
	Auth AuthConfig

	// Notification channel configuration
	Notification NotificationConfig

	// Storage configuration
	Storage StorageConfig

	// Workflow engine tuning
	Workflow WorkflowConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver is sqlite3 or postgres
	Driver string

	// Path to SQLite database file
	Path string

	// DSN is the PostgreSQL connection string
	DSN string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration

	// ConnectTimeout bounds the initial ping
	ConnectTimeout time.Duration

	// FallbackToMemory switches to the in-memory store when the database cannot be opened
	FallbackToMemory bool

	// SeedDemoData loads the demo societies, users and transactions into an empty store
	SeedDemoData bool
}

// AuthConfig holds token and password settings.
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// NotificationConfig selects and configures notification channels.
type NotificationConfig struct {
	// Channels lists the enabled channels: log, lark, redis
	Channels []string

	LarkAppID     string
	LarkAppSecret string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	// AttachmentDir is the base directory for attachments
	AttachmentDir string

	// MaxUploadBytes caps a single attachment
	MaxUploadBytes int64
}

// WorkflowConfig holds workflow engine settings.
type WorkflowConfig struct {
	// MaxAttempts bounds compare-and-swap retries per operation
	MaxAttempts int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:           "sqlite3",
			Path:             "data/societyhub.db",
			MaxOpenConns:     1,
			MaxIdleConns:     1,
			ConnMaxLifetime:  5 * time.Minute,
			ConnectTimeout:   5 * time.Second,
			FallbackToMemory: true,
			SeedDemoData:     true,
		},
		Auth: AuthConfig{
			TokenTTL:   7 * 24 * time.Hour,
			BcryptCost: 10,
		},
		Notification: NotificationConfig{
			Channels: []string{"log"},
		},
		Storage: StorageConfig{
			AttachmentDir:  "uploads",
			MaxUploadBytes: 10 << 20,
		},
		Workflow: WorkflowConfig{
			MaxAttempts: 3,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Driver == "" {
		return fmt.Errorf("database.driver is required")
	}

	// Validate auth configuration
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}

	// Validate storage configuration
	if c.Storage.AttachmentDir == "" {
		return fmt.Errorf("storage.attachment_dir is required")
	}

	return nil
}
