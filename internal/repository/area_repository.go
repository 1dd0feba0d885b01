package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/claims-service/internal/domain"
)

// AreaRepository manages areas and their sub-areas.
type AreaRepository interface {
	Create(ctx context.Context, area *domain.Area) error
	GetByID(ctx context.Context, id string) (*domain.Area, error)
	ListActive(ctx context.Context) ([]domain.Area, error)
	CreateSubArea(ctx context.Context, subArea *domain.SubArea) error
	GetSubArea(ctx context.Context, id string) (*domain.SubArea, error)
	ListSubAreas(ctx context.Context, areaID string) ([]domain.SubArea, error)
}

type areaRepository struct {
	pool *pgxpool.Pool
}

// NewAreaRepository builds the repository.
func NewAreaRepository(pool *pgxpool.Pool) AreaRepository {
	return &areaRepository{pool: pool}
}

func (r *areaRepository) Create(ctx context.Context, area *domain.Area) error {
	const query = `
        INSERT INTO areas (name, description, is_active)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		area.Name,
		area.Description,
		area.IsActive,
	).Scan(&area.ID, &area.CreatedAt, &area.UpdatedAt)
	return mapError(err)
}

func (r *areaRepository) GetByID(ctx context.Context, id string) (*domain.Area, error) {
	const query = `
        SELECT id, name, description, is_active, created_at, updated_at
        FROM areas WHERE id=$1`
	var area domain.Area
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&area.ID,
		&area.Name,
		&area.Description,
		&area.IsActive,
		&area.CreatedAt,
		&area.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &area, nil
}

func (r *areaRepository) ListActive(ctx context.Context) ([]domain.Area, error) {
	const query = `
        SELECT id, name, description, is_active, created_at, updated_at
        FROM areas WHERE is_active = TRUE ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Area
	for rows.Next() {
		var area domain.Area
		if err := rows.Scan(&area.ID, &area.Name, &area.Description, &area.IsActive, &area.CreatedAt, &area.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, area)
	}
	return result, rows.Err()
}

func (r *areaRepository) CreateSubArea(ctx context.Context, subArea *domain.SubArea) error {
	const query = `
        INSERT INTO sub_areas (area_id, name, description, is_active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		subArea.AreaID,
		subArea.Name,
		subArea.Description,
		subArea.IsActive,
	).Scan(&subArea.ID, &subArea.CreatedAt, &subArea.UpdatedAt)
	return mapError(err)
}

func (r *areaRepository) GetSubArea(ctx context.Context, id string) (*domain.SubArea, error) {
	const query = `
        SELECT id, area_id, name, description, is_active, created_at, updated_at
        FROM sub_areas WHERE id=$1`
	subArea, err := scanSubArea(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return subArea, nil
}

func (r *areaRepository) ListSubAreas(ctx context.Context, areaID string) ([]domain.SubArea, error) {
	const query = `
        SELECT id, area_id, name, description, is_active, created_at, updated_at
        FROM sub_areas WHERE area_id=$1 AND is_active = TRUE ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, areaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SubArea
	for rows.Next() {
		subArea, err := scanSubArea(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *subArea)
	}
	return result, rows.Err()
}

func scanSubArea(row pgx.Row) (*domain.SubArea, error) {
	var subArea domain.SubArea
	if err := row.Scan(
		&subArea.ID,
		&subArea.AreaID,
		&subArea.Name,
		&subArea.Description,
		&subArea.IsActive,
		&subArea.CreatedAt,
		&subArea.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &subArea, nil
}
