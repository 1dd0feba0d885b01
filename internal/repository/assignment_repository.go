package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/claims-service/internal/domain"
)

// AssignmentRepository persists area assignments. ReplaceCurrent and
// ClearCurrent are atomic per claim, so at most one assignment of a claim is
// ever current.
type AssignmentRepository interface {
	// GetCurrent returns ErrNotFound when the claim has no current assignment.
	GetCurrent(ctx context.Context, claimID string) (*domain.AreaAssignment, error)
	// ReplaceCurrent retires the claim's current assignment and inserts
	// assignment as the new current one.
	ReplaceCurrent(ctx context.Context, assignment *domain.AreaAssignment) error
	// ClearCurrent retires the current assignment without a replacement and
	// reports how many rows were retired.
	ClearCurrent(ctx context.Context, claimID string) (int64, error)
	// ListByClaim returns the claim's assignments newest first.
	ListByClaim(ctx context.Context, claimID string) ([]domain.AreaAssignment, error)
	// ListCurrentByArea returns current assignments of an area, newest first.
	// Without includeSubAreas only assignments to the area itself are returned.
	ListCurrentByArea(ctx context.Context, areaID string, includeSubAreas bool) ([]domain.AreaAssignment, error)
}

type assignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository builds repository.
func NewAssignmentRepository(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

const assignmentColumns = `id, claim_id, area_id, sub_area_id, assigned_by, notes, assigned_at, is_current`

func (r *assignmentRepository) GetCurrent(ctx context.Context, claimID string) (*domain.AreaAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM area_assignments WHERE claim_id=$1 AND is_current`
	assignment, err := scanAssignment(r.pool.QueryRow(ctx, query, claimID))
	if err != nil {
		return nil, mapError(err)
	}
	return assignment, nil
}

func (r *assignmentRepository) ReplaceCurrent(ctx context.Context, assignment *domain.AreaAssignment) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockClaim(ctx, tx, assignment.ClaimID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE area_assignments SET is_current=FALSE WHERE claim_id=$1 AND is_current`,
			assignment.ClaimID,
		); err != nil {
			return err
		}
		const insert = `
            INSERT INTO area_assignments (claim_id, area_id, sub_area_id, assigned_by, notes, is_current)
            VALUES ($1,$2,$3,$4,$5,TRUE)
            RETURNING id, assigned_at`
		return tx.QueryRow(ctx, insert,
			assignment.ClaimID,
			assignment.AreaID,
			assignment.SubAreaID,
			assignment.AssignedBy,
			assignment.Notes,
		).Scan(&assignment.ID, &assignment.AssignedAt)
	})
	if err != nil {
		return mapError(err)
	}
	assignment.IsCurrent = true
	return nil
}

func (r *assignmentRepository) ClearCurrent(ctx context.Context, claimID string) (int64, error) {
	var affected int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockClaim(ctx, tx, claimID); err != nil {
			return err
		}
		cmd, err := tx.Exec(ctx,
			`UPDATE area_assignments SET is_current=FALSE WHERE claim_id=$1 AND is_current`,
			claimID,
		)
		if err != nil {
			return err
		}
		affected = cmd.RowsAffected()
		return nil
	})
	return affected, mapError(err)
}

func (r *assignmentRepository) ListByClaim(ctx context.Context, claimID string) ([]domain.AreaAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM area_assignments WHERE claim_id=$1 ORDER BY assigned_at DESC`
	rows, err := r.pool.Query(ctx, query, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func (r *assignmentRepository) ListCurrentByArea(ctx context.Context, areaID string, includeSubAreas bool) ([]domain.AreaAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM area_assignments WHERE area_id=$1 AND is_current`
	if !includeSubAreas {
		query += ` AND sub_area_id IS NULL`
	}
	query += ` ORDER BY assigned_at DESC`
	rows, err := r.pool.Query(ctx, query, areaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

// lockClaim serializes assignment writes for one claim.
func lockClaim(ctx context.Context, tx pgx.Tx, claimID string) error {
	var id string
	return tx.QueryRow(ctx, `SELECT id FROM claims WHERE id=$1 FOR UPDATE`, claimID).Scan(&id)
}

func scanAssignment(row pgx.Row) (*domain.AreaAssignment, error) {
	var a domain.AreaAssignment
	if err := row.Scan(
		&a.ID,
		&a.ClaimID,
		&a.AreaID,
		&a.SubAreaID,
		&a.AssignedBy,
		&a.Notes,
		&a.AssignedAt,
		&a.IsCurrent,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAssignments(rows pgx.Rows) ([]domain.AreaAssignment, error) {
	var result []domain.AreaAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}
