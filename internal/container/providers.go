// Package container wires the approval workflow's dependencies and owns
// their lifecycle.
package container

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/garyjia/hr-approvals/internal/application/port"
	"github.com/garyjia/hr-approvals/internal/application/service"
	"github.com/garyjia/hr-approvals/internal/config"
	"github.com/garyjia/hr-approvals/internal/infrastructure/cache"
	"github.com/garyjia/hr-approvals/internal/infrastructure/persistence/repository"
	"github.com/garyjia/hr-approvals/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/hr-approvals/internal/notification"
	"github.com/garyjia/hr-approvals/internal/worker"
	"github.com/garyjia/hr-approvals/migrations"
	"github.com/garyjia/hr-approvals/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB        *database.DB
	TxManager *sqlite.DB
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Requests      port.RequestRepository
	Employees     *repository.EmployeeRepository
	Notifications port.NotificationRepository
}

// DirectoryBundle is the employee directory seen by the workflow, the writer
// that keeps it fresh and the Redis client behind its cache when one is
// configured.
type DirectoryBundle struct {
	Directory port.EmployeeDirectory
	Writer    port.EmployeeWriter
	Redis     *redis.Client
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Repos     *RepositoryBundle
	TxManager port.TransactionManager
	Directory port.EmployeeDirectory
	Workflow  config.WorkflowConfig
	Clock     port.Clock
	Logger    *zap.Logger
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Approval  service.ApprovalService
	Notifier  port.Notifier
	Scheduler *service.EscalationScheduler
}

// ProvideDatabase opens the database and applies pending migrations.
func ProvideDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		BusyTimeout:     cfg.BusyTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	applied, err := database.NewMigrator(db, logger).Run(ctx, migrations.FS)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Database migrations complete", zap.Int("applied", applied))

	return &DatabaseBundle{DB: db, TxManager: sqlite.NewDB(db.DB, logger)}, nil
}

// ProvideRepositories creates all repositories over the transaction manager.
func ProvideRepositories(tx *sqlite.DB, logger *zap.Logger) *RepositoryBundle {
	return &RepositoryBundle{
		Requests:      repository.NewRequestRepository(tx, logger),
		Employees:     repository.NewEmployeeRepository(tx, logger),
		Notifications: repository.NewNotificationRepository(tx, logger),
	}
}

// ProvideDirectory fronts the employee repository with the Redis candidate
// cache when redis.addr is set.
func ProvideDirectory(ctx context.Context, cfg config.RedisConfig, employees *repository.EmployeeRepository, logger *zap.Logger) (*DirectoryBundle, error) {
	if !cfg.Enabled() {
		logger.Info("Candidate cache disabled")
		return &DirectoryBundle{Directory: employees, Writer: employees}, nil
	}

	client, err := cache.NewRedisClient(ctx, cache.RedisOptions{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Candidate cache enabled", zap.String("addr", cfg.Addr), zap.Duration("ttl", cfg.CandidateTTL))

	dir := cache.NewCachedDirectory(employees, cache.NewRedisStore(client), cfg.CandidateTTL, logger)
	return &DirectoryBundle{Directory: dir, Writer: dir, Redis: client}, nil
}

// ProvideServices creates the notifier, scheduler and approval service.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = service.SystemClock()
	}

	notifier := notification.NewInboxNotifier(deps.Repos.Notifications, deps.TxManager, clock, deps.Logger)
	scheduler := service.NewEscalationScheduler(clock, deps.Workflow.DeadlineHours)

	approvals, err := service.NewApprovalService(service.Deps{
		Requests:  deps.Repos.Requests,
		Directory: deps.Directory,
		Notifier:  notifier,
		Scheduler: scheduler,
		Policies:  service.DefaultPolicies(deps.Workflow.AttendanceFallback()),
		Logger:    deps.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create approval service: %w", err)
	}

	return &ServiceBundle{Approval: approvals, Notifier: notifier, Scheduler: scheduler}, nil
}

// ProvideWorkers registers the background workers without starting them.
func ProvideWorkers(approvals service.ApprovalService, cfg config.WorkflowConfig, logger *zap.Logger) *worker.Manager {
	manager := worker.NewManager(logger)
	manager.Register(worker.NewOverdueSweeper(approvals, cfg.SweepInterval, logger))
	return manager
}
