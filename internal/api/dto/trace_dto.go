package dto

import (
	"time"

	"github.com/spec-kit/claims-service/internal/domain"
)

// RecordEventRequest appends an audit event directly.
type RecordEventRequest struct {
	ClaimID     string            `json:"claim_id"`
	ActionType  domain.ActionType `json:"action_type"`
	ActionLabel string            `json:"action_label"`
	OldValue    *string           `json:"old_value"`
	NewValue    *string           `json:"new_value"`
	AreaID      *string           `json:"area_id"`
	SubAreaID   *string           `json:"sub_area_id"`
	Details     string            `json:"details"`
	Metadata    map[string]any    `json:"metadata"`
}

// AuditEventResponse represents one audit trail entry.
type AuditEventResponse struct {
	ID          string            `json:"id"`
	ClaimID     string            `json:"claim_id"`
	ActionType  domain.ActionType `json:"action_type"`
	ActionLabel string            `json:"action_label"`
	User        string            `json:"user"`
	OldValue    *string           `json:"old_value"`
	NewValue    *string           `json:"new_value"`
	AreaID      *string           `json:"area_id"`
	SubAreaID   *string           `json:"sub_area_id"`
	Details     string            `json:"details"`
	Metadata    map[string]any    `json:"metadata"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TimelineEventResponse is an audit event with resolved area names.
type TimelineEventResponse struct {
	AuditEventResponse
	Area    *NamedRef `json:"area"`
	SubArea *NamedRef `json:"sub_area"`
}

type ClaimHeaderResponse struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Status    domain.ClaimStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

type TraceSummaryResponse struct {
	TotalEvents   int                    `json:"total_events"`
	StatusChanges int                    `json:"status_changes"`
	Assignments   int                    `json:"assignments"`
	CurrentStatus domain.ClaimStatus     `json:"current_status"`
	LastAction    *TimelineEventResponse `json:"last_action"`
}

type ClaimTraceResponse struct {
	Claim    ClaimHeaderResponse     `json:"claim"`
	Timeline []TimelineEventResponse `json:"timeline"`
	Summary  TraceSummaryResponse    `json:"summary"`
}

// TraceStatsResponse reports durations in milliseconds. Missing milestones are null.
type TraceStatsResponse struct {
	TotalEvents         int                          `json:"total_events"`
	StatusChanges       int                          `json:"status_changes"`
	AssignmentCount     int                          `json:"assignment_count"`
	TimeInStatusMs      map[domain.ClaimStatus]int64 `json:"time_in_status_ms"`
	FirstResponseTimeMs *int64                       `json:"first_response_time_ms"`
	ResolutionTimeMs    *int64                       `json:"resolution_time_ms"`
}
