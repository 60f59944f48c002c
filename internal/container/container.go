package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/societyhub/internal/application/dispatcher"
	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/garyjia/societyhub/internal/application/service"
	"github.com/garyjia/societyhub/internal/application/workflow"
	"go.uber.org/zap"
)

// Container manages all application dependencies and lifecycle.
// It follows Clean Architecture principles with ordered initialization
// and reverse-order teardown.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	store    port.Store
	fallback bool

	// Infrastructure - External
	auth     *AuthBundle
	channels *ChannelBundle

	// Infrastructure - Storage
	fileStorage port.FileStorage

	// Application
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle
	workflow   workflow.WorkflowEngine

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Auth         service.AuthService
	Onboarding   service.OnboardingService
	Notification service.NotificationService
	Report       service.ReportService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components.
// Components are initialized in dependency order:
// 1. Store (SQL with memory fallback) and demo data
// 2. Auth and notification channels
// 3. Attachment storage
// 4. Event dispatcher
// 5. Application services
// 6. Workflow engine
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	// Step 1: Initialize store
	if err := c.initStore(ctx); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	c.logger.Info("Store initialized",
		zap.String("backend", c.store.Backend()),
		zap.Bool("fallback", c.fallback))

	// Step 2: Initialize auth and notification channels
	if err := c.initExternal(ctx); err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize external clients: %w", err)
	}
	c.logger.Info("Notification channels initialized", zap.Int("count", len(c.channels.Channels)))

	// Step 3: Initialize storage
	fileStorage, err := ProvideStorage(&c.config.Storage, c.logger)
	if err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.fileStorage = fileStorage
	c.logger.Info("Storage initialized", zap.String("dir", c.config.Storage.AttachmentDir))

	// Step 4: Initialize dispatcher
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.dispatcher = disp

	// Step 5: Initialize application services
	services, err := ProvideServices(&ServiceDeps{
		Store:      c.store,
		Auth:       c.auth,
		Dispatcher: c.dispatcher,
		Channels:   c.channels.Channels,
		Logger:     c.logger,
	})
	if err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.services = services
	c.logger.Info("Application services initialized")

	// Step 6: Initialize workflow engine
	engine, err := ProvideWorkflowEngine(&WorkflowDeps{
		Store:          c.store,
		Notifier:       c.services.Notification,
		Dispatcher:     c.dispatcher,
		FileStorage:    c.fileStorage,
		MaxAttempts:    c.config.Workflow.MaxAttempts,
		MaxUploadBytes: c.config.Storage.MaxUploadBytes,
		Logger:         c.logger,
	})
	if err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize workflow engine: %w", err)
	}
	c.workflow = engine
	c.logger.Info("Workflow engine initialized")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")
	errs := c.teardown()

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors: %w", len(errs), errs[0])
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// teardown releases whatever has been initialized, last component first
func (c *Container) teardown() []error {
	var errs []error

	// Step 1: Close dispatcher, waiting for async handlers
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
		c.dispatcher = nil
	}

	// Step 2: Close notification channels
	if c.channels != nil {
		if err := c.channels.Close(); err != nil {
			c.logger.Error("Failed to close notification channels", zap.Error(err))
			errs = append(errs, fmt.Errorf("close channels: %w", err))
		}
		c.channels = nil
	}

	// Step 3: Close store
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.logger.Error("Failed to close store", zap.Error(err))
			errs = append(errs, fmt.Errorf("close store: %w", err))
		} else {
			c.logger.Info("Store closed")
		}
		c.store = nil
	}

	return errs
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	// Check database
	if c.store != nil {
		if err := c.store.Ping(ctx); err != nil {
			status.Components["database"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			msg := "backend: " + c.store.Backend()
			if c.fallback {
				msg += " (fallback)"
			}
			status.Components["database"] = ComponentHealth{Healthy: true, Message: msg}
		}
	} else {
		status.Components["database"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	// Check dispatcher
	if c.dispatcher != nil {
		status.Components["dispatcher"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["dispatcher"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	// Channels are reported but never fail the check
	if c.channels != nil {
		names := make([]string, 0, len(c.channels.Channels))
		for _, ch := range c.channels.Channels {
			names = append(names, ch.Name())
		}
		status.Components["notification"] = ComponentHealth{
			Healthy: true,
			Message: fmt.Sprintf("channels: %v", names),
		}
	}

	return status
}

// initStore opens the store and loads demo data when configured.
func (c *Container) initStore(ctx context.Context) error {
	bundle, err := ProvideStore(ctx, &c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.store = bundle.Store
	c.fallback = bundle.Fallback

	authBundle, err := ProvideAuth(&c.config.Auth)
	if err != nil {
		c.teardown()
		return err
	}
	c.auth = authBundle

	if c.config.Database.SeedDemoData || c.fallback {
		if err := SeedDemoData(ctx, c.store, c.auth.Hasher, c.logger); err != nil {
			c.teardown()
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}
	return nil
}

// initExternal builds the notification channels.
func (c *Container) initExternal(ctx context.Context) error {
	channels, err := ProvideChannels(ctx, &c.config.Notification, c.logger)
	if err != nil {
		return err
	}
	c.channels = channels
	return nil
}

// Getters for accessing container components

// Store returns the persistence provider.
func (c *Container) Store() port.Store {
	return c.store
}

// FileStorage returns the attachment storage.
func (c *Container) FileStorage() port.FileStorage {
	return c.fileStorage
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// WorkflowEngine returns the workflow engine.
func (c *Container) WorkflowEngine() workflow.WorkflowEngine {
	return c.workflow
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Channels returns the enabled notification channels.
func (c *Container) Channels() []port.NotificationChannel {
	if c.channels == nil {
		return nil
	}
	return c.channels.Channels
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}
