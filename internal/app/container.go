// Package app wires the application's dependencies.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	billingApp "github.com/hourjungle/billingcore/internal/billing/application"
	billingDomain "github.com/hourjungle/billingcore/internal/billing/domain"
	billingPersistence "github.com/hourjungle/billingcore/internal/billing/infrastructure/persistence"
	remindersApp "github.com/hourjungle/billingcore/internal/reminders/application"
	remindersDomain "github.com/hourjungle/billingcore/internal/reminders/domain"
	"github.com/hourjungle/billingcore/internal/reminders/infrastructure/messaging"
	remindersPersistence "github.com/hourjungle/billingcore/internal/reminders/infrastructure/persistence"
	"github.com/hourjungle/billingcore/internal/shared/infrastructure/cache"
	"github.com/hourjungle/billingcore/internal/shared/infrastructure/eventbus"
	"github.com/hourjungle/billingcore/pkg/config"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database
	DB *pgxpool.Pool

	// Redis
	RedisClient *redis.Client
	Cache       cache.Store

	// Repositories
	ContractRepo billingDomain.ContractRepository
	PaymentRepo  billingDomain.PaymentRepository
	TaskRepo     remindersDomain.Repository

	// Publishers
	EventPublisher eventbus.Publisher

	// Services
	SummaryService *billingApp.SummaryService
	Scheduler      *remindersApp.Scheduler
	Dispatcher     *remindersApp.Dispatcher
	TaskService    *remindersApp.TaskService
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	// Connect to PostgreSQL
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	c.DB = pool
	logger.Info("connected to database")

	// Connect to Redis; the summary cache falls back to memory in development
	c.Cache = cache.NewMemoryStore()
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			if !cfg.IsDevelopment() {
				pool.Close()
				return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			logger.Warn("invalid Redis URL, summary cache will use in-memory fallback", "error", err)
		} else {
			redisClient := redis.NewClient(opt)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				if !cfg.IsDevelopment() {
					pool.Close()
					return nil, fmt.Errorf("failed to connect to Redis: %w", err)
				}
				logger.Warn("Redis not available, summary cache will use in-memory fallback", "error", err)
			} else {
				c.RedisClient = redisClient
				c.Cache = cache.NewRedisStore(redisClient)
				logger.Info("connected to Redis")
			}
		}
	}

	// Create repositories
	c.ContractRepo = billingPersistence.NewPostgresContractRepository(pool)
	c.PaymentRepo = billingPersistence.NewPostgresPaymentRepository(pool)
	c.TaskRepo = remindersPersistence.NewPostgresTaskRepository(pool)

	// Create event publisher
	c.EventPublisher = eventbus.NewNoopPublisher(logger)
	if cfg.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			if !cfg.IsDevelopment() {
				pool.Close()
				return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
		} else {
			c.EventPublisher = publisher
		}
	}

	// Create services
	c.SummaryService = billingApp.NewSummaryService(c.ContractRepo, c.PaymentRepo, c.Cache, logger)
	c.Scheduler = remindersApp.NewScheduler(c.ContractRepo, c.TaskRepo, c.EventPublisher, logger)
	c.Dispatcher = remindersApp.NewDispatcher(
		c.TaskRepo,
		messaging.NewLogMessenger(logger),
		c.EventPublisher,
		logger,
		remindersApp.DefaultDispatcherConfig(),
	)
	c.TaskService = remindersApp.NewTaskService(c.TaskRepo, c.EventPublisher, logger)

	return c, nil
}

// Close releases all held resources.
func (c *Container) Close() {
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis client", "error", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
	c.Logger.Info("container closed")
}
