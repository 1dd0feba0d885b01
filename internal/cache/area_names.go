// Package cache holds read-through caches in front of the primary store.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/claims-service/internal/repository"
)

const (
	defaultNamespace = "claims"
	defaultTTL       = 5 * time.Minute
)

// Option configures AreaNames.
type Option func(*AreaNames)

// WithNamespace sets the key prefix.
func WithNamespace(ns string) Option {
	return func(a *AreaNames) {
		if ns != "" {
			a.namespace = ns
		}
	}
}

// WithTTL sets how long a cached name lives.
func WithTTL(ttl time.Duration) Option {
	return func(a *AreaNames) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// AreaNames resolves area and sub-area display names, caching them in Redis.
// A nil client or any Redis failure falls through to the repository.
type AreaNames struct {
	client    *redis.Client
	areas     repository.AreaRepository
	logger    *zap.Logger
	namespace string
	ttl       time.Duration
}

// NewAreaNames builds the cache. client may be nil.
func NewAreaNames(client *redis.Client, areas repository.AreaRepository, logger *zap.Logger, opts ...Option) *AreaNames {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &AreaNames{
		client:    client,
		areas:     areas,
		logger:    logger,
		namespace: defaultNamespace,
		ttl:       defaultTTL,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *AreaNames) areaKey(id string) string {
	return a.namespace + ":area-name:" + id
}

func (a *AreaNames) subAreaKey(id string) string {
	return a.namespace + ":subarea-name:" + id
}

// AreaName returns the name of an area. Missing areas yield repository.ErrNotFound.
func (a *AreaNames) AreaName(ctx context.Context, id string) (string, error) {
	return a.lookup(ctx, a.areaKey(id), func() (string, error) {
		area, err := a.areas.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return area.Name, nil
	})
}

// SubAreaName returns the name of a sub-area.
func (a *AreaNames) SubAreaName(ctx context.Context, id string) (string, error) {
	return a.lookup(ctx, a.subAreaKey(id), func() (string, error) {
		subArea, err := a.areas.GetSubArea(ctx, id)
		if err != nil {
			return "", err
		}
		return subArea.Name, nil
	})
}

func (a *AreaNames) lookup(ctx context.Context, key string, load func() (string, error)) (string, error) {
	if a.client != nil {
		name, err := a.client.Get(ctx, key).Result()
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, redis.Nil) {
			a.logger.Warn("area name cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	name, err := load()
	if err != nil {
		return "", err
	}

	if a.client != nil {
		if err := a.client.Set(ctx, key, name, a.ttl).Err(); err != nil {
			a.logger.Warn("area name cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return name, nil
}
