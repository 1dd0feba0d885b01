package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/claims-service/internal/domain"
	"github.com/spec-kit/claims-service/internal/repository"
	"github.com/spec-kit/claims-service/internal/repository/memory"
)

func seedAreas(t *testing.T) (repository.AreaRepository, *domain.Area, *domain.SubArea) {
	t.Helper()
	areas := memory.NewStore().Set().Areas
	ctx := context.Background()
	area := &domain.Area{Name: "Soporte", IsActive: true}
	require.NoError(t, areas.Create(ctx, area))
	sub := &domain.SubArea{AreaID: area.ID, Name: "Nivel 1", IsActive: true}
	require.NoError(t, areas.CreateSubArea(ctx, sub))
	return areas, area, sub
}

func TestAreaNamesWithoutRedis(t *testing.T) {
	areas, area, sub := seedAreas(t)
	names := NewAreaNames(nil, areas, nil)
	ctx := context.Background()

	name, err := names.AreaName(ctx, area.ID)
	require.NoError(t, err)
	assert.Equal(t, "Soporte", name)

	name, err = names.SubAreaName(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nivel 1", name)

	_, err = names.AreaName(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAreaNamesFallsBackWhenRedisUnreachable(t *testing.T) {
	areas, area, _ := seedAreas(t)
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 50 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })

	names := NewAreaNames(client, areas, zap.NewNop(), WithNamespace("test"), WithTTL(time.Second))
	name, err := names.AreaName(context.Background(), area.ID)
	require.NoError(t, err)
	assert.Equal(t, "Soporte", name)
}

func TestKeysUseNamespace(t *testing.T) {
	names := NewAreaNames(nil, nil, nil, WithNamespace("x"), WithNamespace(""))
	assert.Equal(t, "x:area-name:1", names.areaKey("1"))
	assert.Equal(t, "x:subarea-name:2", names.subAreaKey("2"))
	assert.Equal(t, defaultTTL, names.ttl)
}
