package domain

import "time"

// ClaimStatus enumerates lifecycle states for claims.
type ClaimStatus string

const (
	ClaimStatusOpen          ClaimStatus = "ABIERTO"
	ClaimStatusInProgress    ClaimStatus = "EN_PROCESO"
	ClaimStatusWaitingClient ClaimStatus = "ESPERANDO_CLIENTE"
	ClaimStatusResolved      ClaimStatus = "RESUELTO"
	ClaimStatusClosed        ClaimStatus = "CERRADO"
	ClaimStatusCancelled     ClaimStatus = "CANCELADO"
)

// ClaimType classifies the nature of a claim.
type ClaimType string

const (
	ClaimTypeError       ClaimType = "error"
	ClaimTypeFeature     ClaimType = "feature"
	ClaimTypeInquiry     ClaimType = "consulta"
	ClaimTypeIncident    ClaimType = "incidente"
	ClaimTypeImprovement ClaimType = "mejora"
	ClaimTypeOther       ClaimType = "otro"
)

// ClaimPriority enumerates urgency.
type ClaimPriority string

const (
	ClaimPriorityHigh   ClaimPriority = "alta"
	ClaimPriorityMedium ClaimPriority = "media"
	ClaimPriorityLow    ClaimPriority = "baja"
)

// ClaimSeverity enumerates business impact.
type ClaimSeverity string

const (
	ClaimSeverityCritical ClaimSeverity = "critica"
	ClaimSeverityHigh     ClaimSeverity = "alta"
	ClaimSeverityMedium   ClaimSeverity = "media"
	ClaimSeverityLow      ClaimSeverity = "baja"
)

// Claim is the aggregate for customer-reported issues.
type Claim struct {
	ID          string
	Title       string
	Description string
	Type        ClaimType
	Priority    ClaimPriority
	Severity    ClaimSeverity
	Status      ClaimStatus
	ClientID    string
	ProjectID   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t ClaimType) Valid() bool {
	switch t {
	case ClaimTypeError, ClaimTypeFeature, ClaimTypeInquiry, ClaimTypeIncident, ClaimTypeImprovement, ClaimTypeOther:
		return true
	}
	return false
}

func (p ClaimPriority) Valid() bool {
	switch p {
	case ClaimPriorityHigh, ClaimPriorityMedium, ClaimPriorityLow:
		return true
	}
	return false
}

func (s ClaimSeverity) Valid() bool {
	switch s {
	case ClaimSeverityCritical, ClaimSeverityHigh, ClaimSeverityMedium, ClaimSeverityLow:
		return true
	}
	return false
}

func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimStatusOpen, ClaimStatusInProgress, ClaimStatusWaitingClient,
		ClaimStatusResolved, ClaimStatusClosed, ClaimStatusCancelled:
		return true
	}
	return false
}
