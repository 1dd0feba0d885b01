package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/claims-service/internal/domain"
)

// ClaimFilter captures listing parameters.
type ClaimFilter struct {
	ClientID  *string
	ProjectID *string
	Statuses  []domain.ClaimStatus
	Limit     int
	Offset    int
}

// ClaimRepository encapsulates claim persistence.
type ClaimRepository interface {
	Create(ctx context.Context, claim *domain.Claim) error
	// Update persists the editable fields and claim.Status, only if the stored
	// status is still expected. Otherwise it returns ErrStale.
	Update(ctx context.Context, claim *domain.Claim, expected domain.ClaimStatus) error
	// UpdateStatus moves the claim to next only if it is still in expected.
	UpdateStatus(ctx context.Context, id string, expected, next domain.ClaimStatus) (*domain.Claim, error)
	GetByID(ctx context.Context, id string) (*domain.Claim, error)
	List(ctx context.Context, filter ClaimFilter) ([]domain.Claim, error)
	Delete(ctx context.Context, id string) error
}

type claimRepository struct {
	pool *pgxpool.Pool
}

// NewClaimRepository instantiates repository.
func NewClaimRepository(pool *pgxpool.Pool) ClaimRepository {
	return &claimRepository{pool: pool}
}

const claimColumns = `id, title, description, type, priority, severity, status, client_id, project_id, created_at, updated_at`

func (r *claimRepository) Create(ctx context.Context, claim *domain.Claim) error {
	const query = `
        INSERT INTO claims (title, description, type, priority, severity, status, client_id, project_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		claim.Title,
		claim.Description,
		claim.Type,
		claim.Priority,
		claim.Severity,
		claim.Status,
		claim.ClientID,
		claim.ProjectID,
	).Scan(&claim.ID, &claim.CreatedAt, &claim.UpdatedAt)
	return mapError(err)
}

func (r *claimRepository) Update(ctx context.Context, claim *domain.Claim, expected domain.ClaimStatus) error {
	const query = `
        UPDATE claims SET title=$1, description=$2, type=$3, priority=$4, severity=$5,
            client_id=$6, project_id=$7, status=$8, updated_at=NOW()
        WHERE id=$9 AND status=$10
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		claim.Title,
		claim.Description,
		claim.Type,
		claim.Priority,
		claim.Severity,
		claim.ClientID,
		claim.ProjectID,
		claim.Status,
		claim.ID,
		expected,
	).Scan(&claim.UpdatedAt)
	if err == nil {
		return nil
	}
	if mapError(err) != ErrNotFound {
		return mapError(err)
	}
	if _, getErr := r.GetByID(ctx, claim.ID); getErr != nil {
		return getErr
	}
	return ErrStale
}

func (r *claimRepository) UpdateStatus(ctx context.Context, id string, expected, next domain.ClaimStatus) (*domain.Claim, error) {
	query := `UPDATE claims SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3 RETURNING ` + claimColumns
	claim, err := scanClaim(r.pool.QueryRow(ctx, query, next, id, expected))
	if err == nil {
		return claim, nil
	}
	if mapError(err) != ErrNotFound {
		return nil, mapError(err)
	}
	// Distinguish a missing claim from one whose status moved underneath us.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStale
}

func (r *claimRepository) GetByID(ctx context.Context, id string) (*domain.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE id=$1`
	claim, err := scanClaim(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return claim, nil
}

func (r *claimRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM claims WHERE id=$1`, id)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *claimRepository) List(ctx context.Context, filter ClaimFilter) ([]domain.Claim, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("client_id=$%d", len(args)))
	}
	if filter.ProjectID != nil {
		args = append(args, *filter.ProjectID)
		clauses = append(clauses, fmt.Sprintf("project_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM claims WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		claimColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *claim)
	}
	return result, rows.Err()
}

func scanClaim(row pgx.Row) (*domain.Claim, error) {
	var claim domain.Claim
	if err := row.Scan(
		&claim.ID,
		&claim.Title,
		&claim.Description,
		&claim.Type,
		&claim.Priority,
		&claim.Severity,
		&claim.Status,
		&claim.ClientID,
		&claim.ProjectID,
		&claim.CreatedAt,
		&claim.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &claim, nil
}
