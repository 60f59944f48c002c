package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8088
  mode: release
  allowed_origins:
    - https://app.societyhub.in
database:
  driver: sqlite3
  path: /tmp/hub.db
auth:
  jwt_secret: file-secret
notification:
  channels: [log, redis]
  redis:
    addr: localhost:6379
storage:
  max_upload_bytes: 1024
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.societyhub.in"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "/tmp/hub.db", cfg.Database.Path)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"log", "redis"}, cfg.Notify.Channels)
	assert.Equal(t, "societyhub:notifications", cfg.Notify.Redis.Channel)
	assert.Equal(t, int64(1024), cfg.Storage.MaxAttachmentBytes)

	// untouched sections keep their defaults
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Database.FallbackToMemory)
	assert.Equal(t, "uploads", cfg.Storage.AttachmentDir)
	assert.Equal(t, 3, cfg.Workflow.MaxAttempts)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  mode: release
auth:
  jwt_secret: file-secret
`)
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Empty(t, cfg.Auth.JWTSecret)

	cc := cfg.ToContainerConfig()
	assert.Equal(t, DevJWTSecret, cc.Auth.JWTSecret)
	assert.NoError(t, cc.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 5000, Mode: ModeRelease},
			Database: DatabaseConfig{Driver: "sqlite3", Path: "hub.db"},
			Auth:     AuthConfig{JWTSecret: "s", TokenTTL: time.Hour},
			Notify:   NotifyConfig{Channels: []string{"log"}},
			Storage:  StorageConfig{AttachmentDir: "uploads"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad mode", func(c *Config) { c.Server.Mode = "prod" }, "server.mode"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }, "database.dsn"},
		{"missing secret in release", func(c *Config) { c.Auth.JWTSecret = "" }, "jwt_secret"},
		{"missing secret in debug", func(c *Config) {
			c.Auth.JWTSecret = ""
			c.Server.Mode = ModeDebug
		}, ""},
		{"unknown channel", func(c *Config) { c.Notify.Channels = []string{"sms"} }, "unknown notification channel"},
		{"lark without credentials", func(c *Config) { c.Notify.Channels = []string{"lark"} }, "lark"},
		{"redis without addr", func(c *Config) { c.Notify.Channels = []string{"redis"} }, "redis.addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestToContainerConfig(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Mode: ModeRelease},
		Database: DatabaseConfig{Driver: "postgres", DSN: "postgres://hub", SeedDemo: true},
		Auth:     AuthConfig{JWTSecret: "secret", TokenTTL: time.Hour, BcryptCost: 4},
		Notify: NotifyConfig{
			Channels: []string{"lark"},
			Lark:     LarkConfig{AppID: "cli_x", AppSecret: "y"},
			Redis:    RedisConfig{Channel: "hub"},
		},
		Storage: StorageConfig{AttachmentDir: "files", MaxAttachmentBytes: 42},
	}

	cc := cfg.ToContainerConfig()
	assert.Equal(t, "postgres://hub", cc.Database.DSN)
	assert.True(t, cc.Database.SeedDemoData)
	assert.Equal(t, "secret", cc.Auth.JWTSecret)
	assert.Equal(t, "cli_x", cc.Notification.LarkAppID)
	assert.Equal(t, "hub", cc.Notification.RedisChannel)
	assert.Equal(t, int64(42), cc.Storage.MaxUploadBytes)
}
