package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/claims-service/internal/domain"
)

// CommentRepository manages claim comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByClaim(ctx context.Context, claimID string) ([]domain.Comment, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO claim_comments (claim_id, author, body)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		comment.ClaimID,
		comment.Author,
		comment.Body,
	).Scan(&comment.ID, &comment.CreatedAt)
	return mapError(err)
}

func (r *commentRepository) ListByClaim(ctx context.Context, claimID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, claim_id, author, body, created_at
        FROM claim_comments WHERE claim_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.ClaimID,
			&comment.Author,
			&comment.Body,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
