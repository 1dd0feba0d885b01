package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/claims-service/internal/domain"
)

// ClientRepository gives read access to clients and projects, plus the
// writes needed to seed them.
type ClientRepository interface {
	CreateClient(ctx context.Context, client *domain.Client) error
	GetClient(ctx context.Context, id string) (*domain.Client, error)
	CreateProject(ctx context.Context, project *domain.Project) error
	GetProject(ctx context.Context, id string) (*domain.Project, error)
}

type clientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository returns a Postgres-backed implementation.
func NewClientRepository(pool *pgxpool.Pool) ClientRepository {
	return &clientRepository{pool: pool}
}

func (r *clientRepository) CreateClient(ctx context.Context, client *domain.Client) error {
	const query = `
        INSERT INTO clients (name, email, is_active)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		client.Name,
		client.Email,
		client.IsActive,
	).Scan(&client.ID, &client.CreatedAt, &client.UpdatedAt)
	return mapError(err)
}

func (r *clientRepository) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	const query = `
        SELECT id, name, email, is_active, created_at, updated_at
        FROM clients WHERE id=$1`
	var client domain.Client
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&client.ID,
		&client.Name,
		&client.Email,
		&client.IsActive,
		&client.CreatedAt,
		&client.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &client, nil
}

func (r *clientRepository) CreateProject(ctx context.Context, project *domain.Project) error {
	const query = `
        INSERT INTO projects (client_id, name, type)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		project.ClientID,
		project.Name,
		project.Type,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
	return mapError(err)
}

func (r *clientRepository) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	const query = `
        SELECT id, client_id, name, type, created_at, updated_at
        FROM projects WHERE id=$1`
	var project domain.Project
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&project.ID,
		&project.ClientID,
		&project.Name,
		&project.Type,
		&project.CreatedAt,
		&project.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &project, nil
}
