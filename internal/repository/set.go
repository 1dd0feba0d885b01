package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Set bundles every repository the services need.
type Set struct {
	Claims      ClaimRepository
	Clients     ClientRepository
	Areas       AreaRepository
	Assignments AssignmentRepository
	Events      AuditEventRepository
	Comments    CommentRepository
	Attachments AttachmentRepository
}

// NewPostgresSet wires Postgres-backed repositories over one pool.
func NewPostgresSet(pool *pgxpool.Pool) Set {
	return Set{
		Claims:      NewClaimRepository(pool),
		Clients:     NewClientRepository(pool),
		Areas:       NewAreaRepository(pool),
		Assignments: NewAssignmentRepository(pool),
		Events:      NewAuditEventRepository(pool),
		Comments:    NewCommentRepository(pool),
		Attachments: NewAttachmentRepository(pool),
	}
}
