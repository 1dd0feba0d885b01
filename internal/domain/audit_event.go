package domain

import "time"

// ActionType captures what kind of action an audit event records.
type ActionType string

const (
	ActionCreated         ActionType = "CREATED"
	ActionAssigned        ActionType = "ASSIGNED"
	ActionReassigned      ActionType = "REASSIGNED"
	ActionStatusChanged   ActionType = "STATUS_CHANGED"
	ActionCommented       ActionType = "COMMENTED"
	ActionFileAttached    ActionType = "FILE_ATTACHED"
	ActionResolved        ActionType = "RESOLVED"
	ActionReopened        ActionType = "REOPENED"
	ActionPriorityChanged ActionType = "PRIORITY_CHANGED"
	ActionSeverityChanged ActionType = "SEVERITY_CHANGED"
	ActionClosed          ActionType = "CLOSED"
)

func (a ActionType) Valid() bool {
	switch a {
	case ActionCreated, ActionAssigned, ActionReassigned, ActionStatusChanged,
		ActionCommented, ActionFileAttached, ActionResolved, ActionReopened,
		ActionPriorityChanged, ActionSeverityChanged, ActionClosed:
		return true
	}
	return false
}

// AuditEvent is an immutable audit trail entry for a claim.
type AuditEvent struct {
	ID          string
	ClaimID     string
	ActionType  ActionType
	ActionLabel string
	User        string
	OldValue    *string
	NewValue    *string
	AreaID      *string
	SubAreaID   *string
	Details     string
	Metadata    map[string]any
	CreatedAt   time.Time
}
