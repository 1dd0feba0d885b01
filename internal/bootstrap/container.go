// Package bootstrap wires stores, caches and services from configuration.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/claims-service/internal/cache"
	"github.com/spec-kit/claims-service/internal/config"
	"github.com/spec-kit/claims-service/internal/events"
	"github.com/spec-kit/claims-service/internal/observability"
	"github.com/spec-kit/claims-service/internal/persistence"
	"github.com/spec-kit/claims-service/internal/repository"
	"github.com/spec-kit/claims-service/internal/repository/memory"
	"github.com/spec-kit/claims-service/internal/service"
	"github.com/spec-kit/claims-service/internal/worker"
)

// Container holds everything a process needs to serve claims.
type Container struct {
	Postgres      *persistence.Postgres
	Redis         *persistence.Redis
	Repos         repository.Set
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Notifications *service.NotificationService

	Claims      *service.ClaimService
	Assignments *service.AssignmentService
	Areas       *service.AreaService
	Trace       *service.TraceService
}

// New connects the configured stores and builds the services on top of them.
// Without a Postgres DSN every repository is served from memory.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	var repos repository.Set
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				pg.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		repos = repository.NewPostgresSet(pool)
	} else {
		repos = memory.NewStore().Set()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	names := cache.NewAreaNames(redis.Client, repos.Areas, logger, cache.WithTTL(cfg.Cache.AreaNameTTL()))

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	notifications := worker.StartNotificationWorker(dispatcher, logger, cfg.Notification)

	trace := service.NewTraceService(service.TraceDependencies{
		ClaimRepo:   repos.Claims,
		EventRepo:   repos.Events,
		Names:       names,
		Dispatcher:  dispatcher,
		Logger:      logger,
		SearchLimit: cfg.Audit.SearchLimit,
	})

	return &Container{
		Postgres:      pg,
		Redis:         redis,
		Repos:         repos,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Notifications: notifications,
		Trace:         trace,
		Claims: service.NewClaimService(service.ClaimDependencies{
			ClaimRepo:      repos.Claims,
			ClientRepo:     repos.Clients,
			CommentRepo:    repos.Comments,
			AttachmentRepo: repos.Attachments,
			Recorder:       trace,
			Logger:         logger,
			Metrics:        metrics,
		}),
		Assignments: service.NewAssignmentService(service.AssignmentDependencies{
			ClaimRepo:      repos.Claims,
			AreaRepo:       repos.Areas,
			AssignmentRepo: repos.Assignments,
			Names:          names,
			Recorder:       trace,
			Logger:         logger,
			Metrics:        metrics,
		}),
		Areas: service.NewAreaService(service.AreaDependencies{
			AreaRepo:       repos.Areas,
			AssignmentRepo: repos.Assignments,
			ClaimRepo:      repos.Claims,
			Logger:         logger,
		}),
	}, nil
}

// Close releases store connections.
func (c *Container) Close() {
	c.Redis.Close()
	c.Postgres.Close()
}
