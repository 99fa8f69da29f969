package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/garyjia/hr-approvals/internal/application/port"
	"github.com/garyjia/hr-approvals/internal/config"
	"github.com/garyjia/hr-approvals/internal/domain/entity"
	httpapi "github.com/garyjia/hr-approvals/internal/interfaces/http"
	"github.com/garyjia/hr-approvals/internal/worker"
	"github.com/garyjia/hr-approvals/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components start in dependency order and stop in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger
	clock  port.Clock

	db           *database.DB
	txManager    port.TransactionManager
	repositories *RepositoryBundle
	directory    port.EmployeeDirectory
	employees    port.EmployeeWriter
	redis        *redis.Client
	services     *ServiceBundle
	workers      *worker.Manager
	httpServer   *httpapi.Server

	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// Option customizes a Container
type Option func(*Container)

// WithClock overrides the wall clock used for deadlines and timestamps
func WithClock(clock port.Clock) Option {
	return func(c *Container) { c.clock = clock }
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
func NewContainer(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Container{config: cfg, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start initializes all components:
// 1. Database, migrations and repositories
// 2. Employee directory and its optional cache
// 3. Application services
// 4. Background workers
// 5. HTTP server (served by the caller via HTTPServer().Start)
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

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"database", c.initDatabase},
		{"directory", c.initDirectory},
		{"services", c.initServices},
		{"workers", c.initWorkers},
		{"http server", c.initHTTP},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			c.teardown()
			return fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
		c.logger.Info("Component initialized", zap.String("component", step.name))
	}

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

// teardown releases whatever has been initialized so far
func (c *Container) teardown() []error {
	var errs []error

	if c.httpServer != nil {
		if err := c.httpServer.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop http server: %w", err))
		}
		c.httpServer = nil
	}
	if c.workers != nil {
		c.workers.StopAll()
		c.logger.Info("Workers stopped")
		c.workers = nil
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.logger.Error("Failed to close redis client", zap.Error(err))
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
		c.redis = nil
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
		c.db = nil
	}
	return errs
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{Overall: true, Components: make(map[string]ComponentHealth)}
	set := func(name string, healthy bool, msg string) {
		status.Components[name] = ComponentHealth{Healthy: healthy, Message: msg}
		if !healthy {
			status.Overall = false
		}
	}

	switch {
	case c.db == nil:
		set("database", false, "not initialized")
	default:
		if err := c.db.PingContext(ctx); err != nil {
			set("database", false, fmt.Sprintf("ping failed: %v", err))
		} else {
			set("database", true, "")
		}
	}

	if c.redis != nil {
		if err := c.redis.Ping(ctx).Err(); err != nil {
			set("cache", false, fmt.Sprintf("ping failed: %v", err))
		} else {
			set("cache", true, "")
		}
	}

	if c.workers == nil {
		set("workers", false, "not initialized")
	} else {
		set("workers", true, fmt.Sprintf("worker count: %d", c.workers.Count()))
	}
	return status
}

func (c *Container) initDatabase(ctx context.Context) error {
	bundle, err := ProvideDatabase(ctx, c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.db = bundle.DB
	c.txManager = bundle.TxManager
	c.repositories = ProvideRepositories(bundle.TxManager, c.logger)
	return nil
}

func (c *Container) initDirectory(ctx context.Context) error {
	bundle, err := ProvideDirectory(ctx, c.config.Redis, c.repositories.Employees, c.logger)
	if err != nil {
		return err
	}
	c.directory = bundle.Directory
	c.employees = bundle.Writer
	c.redis = bundle.Redis
	return nil
}

func (c *Container) initServices(ctx context.Context) error {
	services, err := ProvideServices(&ServiceDeps{
		Repos:     c.repositories,
		TxManager: c.txManager,
		Directory: c.directory,
		Workflow:  c.config.Workflow,
		Clock:     c.clock,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	c.services = services
	return nil
}

func (c *Container) initWorkers(ctx context.Context) error {
	c.workers = ProvideWorkers(c.services.Approval, c.config.Workflow, c.logger)
	return c.workers.StartAll(ctx)
}

func (c *Container) initHTTP(ctx context.Context) error {
	srv := c.config.Server
	c.httpServer = httpapi.NewServer(httpapi.ServerConfig{
		Host:            srv.Host,
		Port:            srv.Port,
		Mode:            srv.Mode,
		ReadTimeout:     srv.ReadTimeout,
		WriteTimeout:    srv.WriteTimeout,
		ShutdownTimeout: srv.ShutdownTimeout,
	}, c.services.Approval, c.db, c.logger)
	return nil
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Directory returns the employee directory the workflow routes against.
func (c *Container) Directory() port.EmployeeDirectory {
	return c.directory
}

// CreateEmployee adds a directory record through the candidate cache, so the
// new employee can be routed requests immediately.
func (c *Container) CreateEmployee(ctx context.Context, emp *entity.Employee) error {
	if c.employees == nil {
		return fmt.Errorf("container not started")
	}
	return c.employees.CreateEmployee(ctx, emp)
}

// HTTPServer returns the HTTP adapter.
func (c *Container) HTTPServer() *httpapi.Server {
	return c.httpServer
}

// Workers returns the worker manager.
func (c *Container) Workers() *worker.Manager {
	return c.workers
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}
