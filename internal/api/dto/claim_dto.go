package dto

import (
	"time"

	"github.com/spec-kit/claims-service/internal/domain"
)

// CreateClaimRequest payload.
type CreateClaimRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Type        domain.ClaimType     `json:"type"`
	Priority    domain.ClaimPriority `json:"priority"`
	Severity    domain.ClaimSeverity `json:"severity"`
	ClientID    string               `json:"client_id"`
	ProjectID   *string              `json:"project_id"`
	Attachments []string             `json:"attachments"`
}

// UpdateClaimRequest patches a claim. Omitted fields stay unchanged.
type UpdateClaimRequest struct {
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	Type        *domain.ClaimType     `json:"type"`
	Priority    *domain.ClaimPriority `json:"priority"`
	Severity    *domain.ClaimSeverity `json:"severity"`
	Status      *domain.ClaimStatus   `json:"status"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status            domain.ClaimStatus `json:"status"`
	Reason            string             `json:"reason"`
	ResolutionDetails string             `json:"resolution_details"`
	ClosureNotes      string             `json:"closure_notes"`
	InternalNotes     string             `json:"internal_notes"`
}

type ResolveClaimRequest struct {
	ResolutionDetails string `json:"resolution_details"`
}

type CloseClaimRequest struct {
	ClosureNotes string `json:"closure_notes"`
}

// ReopenClaimRequest payload. Status defaults to ABIERTO.
type ReopenClaimRequest struct {
	Status domain.ClaimStatus `json:"status"`
	Reason string             `json:"reason"`
}

type CommentRequest struct {
	Comment string `json:"comment"`
}

type AttachmentRequest struct {
	FileName string `json:"file_name"`
}

// ClaimResponse represents a claim.
type ClaimResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Type        domain.ClaimType     `json:"type"`
	Priority    domain.ClaimPriority `json:"priority"`
	Severity    domain.ClaimSeverity `json:"severity"`
	Status      domain.ClaimStatus   `json:"status"`
	StatusLabel string               `json:"status_label"`
	ClientID    string               `json:"client_id"`
	ProjectID   *string              `json:"project_id"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

type CommentResponse struct {
	ID        string    `json:"id"`
	ClaimID   string    `json:"claim_id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID        string    `json:"id"`
	ClaimID   string    `json:"claim_id"`
	FileName  string    `json:"file_name"`
	Path      string    `json:"path"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// ActionCheckResponse answers GET /claims/:id/validate-action/:action.
type ActionCheckResponse struct {
	Action  string `json:"action"`
	Allowed bool   `json:"allowed"`
	Message string `json:"message,omitempty"`
}

// StatusInfoResponse describes one status.
type StatusInfoResponse struct {
	Value       domain.ClaimStatus `json:"value"`
	Label       string             `json:"label"`
	Description string             `json:"description"`
}

type TransitionResponse struct {
	Status         domain.ClaimStatus `json:"status"`
	Label          string             `json:"label"`
	Description    string             `json:"description"`
	RequiredFields []string           `json:"required_fields"`
}

type TransitionsResponse struct {
	Current     StatusInfoResponse   `json:"current"`
	Transitions []TransitionResponse `json:"transitions"`
}
