package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/claims-service/internal/domain"
)

// AuditEventFilter captures search parameters over the audit trail.
type AuditEventFilter struct {
	ClaimID     *string
	ActionType  *domain.ActionType
	User        *string
	AreaID      *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
}

// AuditEventRepository stores audit entries. Entries are append-only.
type AuditEventRepository interface {
	Create(ctx context.Context, event *domain.AuditEvent) error
	// ListByClaim returns events oldest first.
	ListByClaim(ctx context.Context, claimID string) ([]domain.AuditEvent, error)
	// Search returns events newest first, at most filter.Limit of them.
	Search(ctx context.Context, filter AuditEventFilter) ([]domain.AuditEvent, error)
}

type auditEventRepository struct {
	pool *pgxpool.Pool
}

// NewAuditEventRepository builds repository.
func NewAuditEventRepository(pool *pgxpool.Pool) AuditEventRepository {
	return &auditEventRepository{pool: pool}
}

const auditColumns = `id, claim_id, action_type, action_label, actor, old_value, new_value, area_id, sub_area_id, details, metadata, created_at`

func (r *auditEventRepository) Create(ctx context.Context, event *domain.AuditEvent) error {
	const query = `
        INSERT INTO claim_history (claim_id, action_type, action_label, actor, old_value, new_value, area_id, sub_area_id, details, metadata)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at`
	metadata := event.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	err := r.pool.QueryRow(ctx, query,
		event.ClaimID,
		event.ActionType,
		event.ActionLabel,
		event.User,
		event.OldValue,
		event.NewValue,
		event.AreaID,
		event.SubAreaID,
		event.Details,
		metadata,
	).Scan(&event.ID, &event.CreatedAt)
	return mapError(err)
}

func (r *auditEventRepository) ListByClaim(ctx context.Context, claimID string) ([]domain.AuditEvent, error) {
	// seq breaks ties between events written within the same clock tick.
	query := `SELECT ` + auditColumns + ` FROM claim_history WHERE claim_id=$1 ORDER BY created_at ASC, seq ASC`
	rows, err := r.pool.Query(ctx, query, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditEvents(rows)
}

func (r *auditEventRepository) Search(ctx context.Context, filter AuditEventFilter) ([]domain.AuditEvent, error) {
	where, args := auditSearchWhere(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`SELECT %s FROM claim_history WHERE %s ORDER BY created_at DESC, seq DESC LIMIT %d`,
		auditColumns, where, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditEvents(rows)
}

// auditSearchWhere builds the WHERE body and its positional arguments. The
// user filter is a literal case-insensitive substring match: % and _ in the
// input carry no pattern meaning.
func auditSearchWhere(filter AuditEventFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ClaimID != nil {
		args = append(args, *filter.ClaimID)
		clauses = append(clauses, fmt.Sprintf("claim_id=$%d", len(args)))
	}
	if filter.ActionType != nil {
		args = append(args, *filter.ActionType)
		clauses = append(clauses, fmt.Sprintf("action_type=$%d", len(args)))
	}
	if filter.User != nil && strings.TrimSpace(*filter.User) != "" {
		args = append(args, strings.ToLower(strings.TrimSpace(*filter.User)))
		clauses = append(clauses, fmt.Sprintf("strpos(LOWER(actor), $%d) > 0", len(args)))
	}
	if filter.AreaID != nil {
		args = append(args, *filter.AreaID)
		clauses = append(clauses, fmt.Sprintf("area_id=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func scanAuditEvents(rows pgx.Rows) ([]domain.AuditEvent, error) {
	var result []domain.AuditEvent
	for rows.Next() {
		var event domain.AuditEvent
		if err := rows.Scan(
			&event.ID,
			&event.ClaimID,
			&event.ActionType,
			&event.ActionLabel,
			&event.User,
			&event.OldValue,
			&event.NewValue,
			&event.AreaID,
			&event.SubAreaID,
			&event.Details,
			&event.Metadata,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
