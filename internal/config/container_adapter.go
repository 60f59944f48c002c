package config

import (
	"github.com/garyjia/societyhub/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	secret := c.Auth.JWTSecret
	if secret == "" && c.Server.Mode == ModeDebug {
		secret = DevJWTSecret
	}

	return &container.Config{
		Database: container.DatabaseConfig{
			Driver:           c.Database.Driver,
			Path:             c.Database.Path,
			DSN:              c.Database.DSN,
			MaxOpenConns:     c.Database.MaxOpenConns,
			MaxIdleConns:     c.Database.MaxIdleConns,
			ConnMaxLifetime:  c.Database.ConnMaxLifetime,
			ConnectTimeout:   c.Database.ConnectTimeout,
			FallbackToMemory: c.Database.FallbackToMemory,
			SeedDemoData:     c.Database.SeedDemo,
		},
		Auth: container.AuthConfig{
			JWTSecret:  secret,
			TokenTTL:   c.Auth.TokenTTL,
			BcryptCost: c.Auth.BcryptCost,
		},
		Notification: container.NotificationConfig{
			Channels:      c.Notify.Channels,
			LarkAppID:     c.Notify.Lark.AppID,
			LarkAppSecret: c.Notify.Lark.AppSecret,
			RedisAddr:     c.Notify.Redis.Addr,
			RedisPassword: c.Notify.Redis.Password,
			RedisDB:       c.Notify.Redis.DB,
			RedisChannel:  c.Notify.Redis.Channel,
		},
		Storage: container.StorageConfig{
			AttachmentDir:  c.Storage.AttachmentDir,
			MaxUploadBytes: c.Storage.MaxAttachmentBytes,
		},
		Workflow: container.WorkflowConfig{
			MaxAttempts: c.Workflow.MaxAttempts,
		},
	}
}
