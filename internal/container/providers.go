package container

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/garyjia/societyhub/internal/application/dispatcher"
	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/garyjia/societyhub/internal/application/service"
	"github.com/garyjia/societyhub/internal/application/workflow"
	"github.com/garyjia/societyhub/internal/domain/event"
	"github.com/garyjia/societyhub/internal/infrastructure/notify"
	"github.com/garyjia/societyhub/internal/infrastructure/persistence/memory"
	"github.com/garyjia/societyhub/internal/infrastructure/persistence/seed"
	"github.com/garyjia/societyhub/internal/infrastructure/persistence/sqlstore"
	"github.com/garyjia/societyhub/internal/infrastructure/report"
	"github.com/garyjia/societyhub/internal/infrastructure/storage"
	"github.com/garyjia/societyhub/pkg/auth"
	"github.com/garyjia/societyhub/pkg/database"
	"github.com/garyjia/societyhub/pkg/utils"
	"go.uber.org/zap"
)

// StoreBundle holds the persistence provider selected at startup.
type StoreBundle struct {
	Store port.Store

	// Fallback is true when the SQL store could not be opened and memory is used instead
	Fallback bool
}

// AuthBundle holds token and password components.
type AuthBundle struct {
	Tokens *auth.JWTManager
	Hasher *auth.PasswordHasher
}

// ChannelBundle holds the enabled notification channels and their cleanup hooks.
type ChannelBundle struct {
	Channels []port.NotificationChannel
	closers  []func() error
}

// Close releases channel connections.
func (b *ChannelBundle) Close() error {
	var first error
	for _, closeFn := range b.closers {
		if err := closeFn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ProvideStore opens the SQL store and applies migrations.
// When that fails and FallbackToMemory is set, an in-memory store is returned instead.
func ProvideStore(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*StoreBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	store, err := openSQLStore(ctx, cfg, logger)
	if err == nil {
		return &StoreBundle{Store: store}, nil
	}
	if !cfg.FallbackToMemory {
		return nil, err
	}

	logger.Warn("Database unavailable, falling back to in-memory store",
		zap.String("driver", cfg.Driver),
		zap.Error(err))
	return &StoreBundle{Store: memory.NewStore(logger), Fallback: true}, nil
}

func openSQLStore(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (port.Store, error) {
	if cfg.Driver == database.DriverSQLite && cfg.Path != "" {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := database.New(database.Config{
		Driver:          cfg.Driver,
		Path:            cfg.Path,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnectTimeout:  cfg.ConnectTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return sqlstore.New(db, logger), nil
}

// ProvideAuth creates the JWT manager and password hasher.
func ProvideAuth(cfg *AuthConfig) (*AuthBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("auth config is required")
	}
	return &AuthBundle{
		Tokens: auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL),
		Hasher: auth.NewPasswordHasher(cfg.BcryptCost),
	}, nil
}

// SeedDemoData loads the demo data set into store when it is empty.
func SeedDemoData(ctx context.Context, store port.Store, hasher *auth.PasswordHasher, logger *zap.Logger) error {
	if store == nil || hasher == nil {
		return fmt.Errorf("store and hasher are required")
	}
	return seed.Demo(ctx, store, hasher.Hash, logger)
}

// ProvideChannels builds the configured notification channels.
// A redis channel that cannot connect is skipped with a warning.
func ProvideChannels(ctx context.Context, cfg *NotificationConfig, logger *zap.Logger) (*ChannelBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("notification config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	bundle := &ChannelBundle{}
	for _, name := range cfg.Channels {
		switch strings.ToLower(name) {
		case notify.ChannelLog:
			bundle.Channels = append(bundle.Channels, notify.NewLogChannel(logger))
		case notify.ChannelLark:
			bundle.Channels = append(bundle.Channels, notify.NewLarkChannel(notify.LarkConfig{
				AppID:     cfg.LarkAppID,
				AppSecret: cfg.LarkAppSecret,
			}, logger))
		case notify.ChannelRedis:
			ch, err := notify.NewRedisChannel(ctx, notify.RedisConfig{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
				Topic:    cfg.RedisChannel,
			}, logger)
			if err != nil {
				logger.Warn("Redis notification channel disabled", zap.Error(err))
				continue
			}
			bundle.Channels = append(bundle.Channels, ch)
			bundle.closers = append(bundle.closers, ch.Close)
		default:
			return nil, fmt.Errorf("unknown notification channel %q", name)
		}
	}

	if len(bundle.Channels) == 0 {
		logger.Warn("No notification channel enabled, falling back to log channel")
		bundle.Channels = append(bundle.Channels, notify.NewLogChannel(logger))
	}
	return bundle, nil
}

// ProvideStorage creates the attachment file storage.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (port.FileStorage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return storage.NewLocalFileStorage(cfg.AttachmentDir, logger)
}

// ProvideDispatcher creates the event dispatcher and registers the audit log handler.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	d := dispatcher.NewDispatcher(
		dispatcher.WithLogger(utils.NewKeyValueLogger(logger.Named("dispatcher"))),
	)

	d.SubscribeNamed(dispatcher.AnyEvent, "audit_log", auditLogHandler(logger.Named("audit")))
	return d, nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Store      port.Store
	Auth       *AuthBundle
	Dispatcher dispatcher.Dispatcher
	Channels   []port.NotificationChannel
	Exporter   port.ReportExporter
	Logger     *zap.Logger
}

// ProvideServices creates all application services.
// The notification service is subscribed to the onboarding events.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("auth bundle is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	exporter := deps.Exporter
	if exporter == nil {
		exporter = report.NewXLSXExporter(deps.Logger)
	}

	// Create logger adapter for services
	serviceLogger := utils.NewKeyValueLogger(deps.Logger.Named("service"))

	notification := service.NewNotificationService(deps.Store, deps.Channels, serviceLogger)
	notification.Subscribe(deps.Dispatcher)

	return &ServiceBundle{
		Auth:         service.NewAuthService(deps.Store, deps.Auth.Tokens, deps.Auth.Hasher, serviceLogger),
		Onboarding:   service.NewOnboardingService(deps.Store, deps.Auth.Hasher, deps.Dispatcher, serviceLogger),
		Notification: notification,
		Report:       service.NewReportService(deps.Store, exporter, serviceLogger),
	}, nil
}

// WorkflowDeps holds dependencies required for creating the workflow engine.
type WorkflowDeps struct {
	Store          port.Store
	Notifier       port.TransactionNotifier
	Dispatcher     dispatcher.Dispatcher
	FileStorage    port.FileStorage
	MaxAttempts    int
	MaxUploadBytes int64
	Logger         *zap.Logger
}

// ProvideWorkflowEngine creates the transaction workflow engine.
func ProvideWorkflowEngine(deps *WorkflowDeps) (workflow.WorkflowEngine, error) {
	if deps == nil {
		return nil, fmt.Errorf("workflow dependencies are required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	opts := []workflow.EngineOption{
		workflow.WithLogger(utils.NewKeyValueLogger(deps.Logger.Named("workflow"))),
	}
	if deps.Dispatcher != nil {
		opts = append(opts, workflow.WithDispatcher(deps.Dispatcher))
	}
	if deps.FileStorage != nil {
		opts = append(opts, workflow.WithFileStorage(deps.FileStorage))
	}
	if deps.MaxAttempts > 0 {
		opts = append(opts, workflow.WithMaxAttempts(deps.MaxAttempts))
	}
	if deps.MaxUploadBytes > 0 {
		opts = append(opts, workflow.WithMaxAttachmentBytes(deps.MaxUploadBytes))
	}

	return workflow.NewEngine(deps.Store, deps.Notifier, opts...), nil
}

// auditLogHandler writes one structured line per domain event
func auditLogHandler(logger *zap.Logger) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		if evt == nil {
			return fmt.Errorf("event cannot be nil")
		}
		logger.Info("Domain event",
			zap.String("event_id", evt.ID),
			zap.String("type", evt.Type.String()),
			zap.String("aggregate_id", evt.AggregateID),
			zap.String("actor_id", evt.ActorID),
			zap.Any("payload", redactPayload(evt.Payload)))
		return nil
	}
}

// redactPayload hides credentials before they reach the log
func redactPayload(payload map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		if strings.Contains(k, "password") {
			v = "[redacted]"
		}
		out[k] = v
	}
	return out
}
