package events

import (
	"time"

	"github.com/spec-kit/claims-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventClaimCreated       EventType = "claim_created"
	EventClaimStatusChanged EventType = "claim_status_changed"
	EventClaimRouted        EventType = "claim_routed"
	EventClaimCommented     EventType = "claim_commented"
	EventClaimFileAttached  EventType = "claim_file_attached"
	EventClaimFieldChanged  EventType = "claim_field_changed"
	EventClaimClosed        EventType = "claim_closed"
)

// TypeForAction maps an audit action to the notification it triggers.
func TypeForAction(action domain.ActionType) EventType {
	switch action {
	case domain.ActionCreated:
		return EventClaimCreated
	case domain.ActionStatusChanged, domain.ActionResolved, domain.ActionReopened:
		return EventClaimStatusChanged
	case domain.ActionAssigned, domain.ActionReassigned:
		return EventClaimRouted
	case domain.ActionCommented:
		return EventClaimCommented
	case domain.ActionFileAttached:
		return EventClaimFileAttached
	case domain.ActionPriorityChanged, domain.ActionSeverityChanged:
		return EventClaimFieldChanged
	case domain.ActionClosed:
		return EventClaimClosed
	default:
		return EventClaimFieldChanged
	}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	ClaimID   string    `json:"claim_id"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// AuditRecordedPayload carries the audit entry that triggered the event.
type AuditRecordedPayload struct {
	ActionType  domain.ActionType `json:"action_type"`
	ActionLabel string            `json:"action_label"`
	OldValue    *string           `json:"old_value,omitempty"`
	NewValue    *string           `json:"new_value,omitempty"`
	AreaID      *string           `json:"area_id,omitempty"`
	SubAreaID   *string           `json:"sub_area_id,omitempty"`
}

// FromAuditEvent builds the notification for a stored audit entry.
func FromAuditEvent(e domain.AuditEvent) Event {
	return Event{
		ID:        e.ID,
		Type:      TypeForAction(e.ActionType),
		ClaimID:   e.ClaimID,
		Actor:     e.User,
		Timestamp: e.CreatedAt,
		Payload: AuditRecordedPayload{
			ActionType:  e.ActionType,
			ActionLabel: e.ActionLabel,
			OldValue:    e.OldValue,
			NewValue:    e.NewValue,
			AreaID:      e.AreaID,
			SubAreaID:   e.SubAreaID,
		},
	}
}
