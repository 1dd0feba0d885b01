package dto

import (
	"time"

	"github.com/spec-kit/claims-service/internal/domain"
)

type CreateAreaRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CreateSubAreaRequest struct {
	AreaID      string `json:"area_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AssignRequest routes a claim to an area.
type AssignRequest struct {
	ClaimID   string  `json:"claim_id"`
	AreaID    string  `json:"area_id"`
	SubAreaID *string `json:"sub_area_id"`
	Notes     *string `json:"notes"`
}

// ReassignRequest moves a claim to another sub-area of its current area.
type ReassignRequest struct {
	ClaimID   string  `json:"claim_id"`
	SubAreaID string  `json:"sub_area_id"`
	Notes     *string `json:"notes"`
}

type UnassignRequest struct {
	ClaimID string  `json:"claim_id"`
	Reason  *string `json:"reason"`
}

// NamedRef is an id with its display name.
type NamedRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AreaResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	IsActive    bool              `json:"is_active"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	SubAreas    []SubAreaResponse `json:"sub_areas,omitempty"`
}

type SubAreaResponse struct {
	ID          string    `json:"id"`
	AreaID      string    `json:"area_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AssignmentResponse represents one routing fact.
type AssignmentResponse struct {
	ID         string    `json:"id"`
	ClaimID    string    `json:"claim_id"`
	Area       NamedRef  `json:"area"`
	SubArea    *NamedRef `json:"sub_area"`
	AssignedBy string    `json:"assigned_by"`
	Notes      *string   `json:"notes"`
	AssignedAt time.Time `json:"assigned_at"`
	IsCurrent  bool      `json:"is_current"`
}

// AreaClaimResponse is a claim currently routed to an area.
type AreaClaimResponse struct {
	Claim      ClaimResponse `json:"claim"`
	SubAreaID  *string       `json:"sub_area_id"`
	AssignedBy string        `json:"assigned_by"`
	AssignedAt time.Time     `json:"assigned_at"`
}

type SubAreaCountResponse struct {
	SubArea NamedRef `json:"sub_area"`
	Count   int      `json:"count"`
}

type AreaStatResponse struct {
	Area             NamedRef                   `json:"area"`
	TotalAssignments int                        `json:"total_assignments"`
	StatusCounts     map[domain.ClaimStatus]int `json:"status_counts"`
	SubAreaCounts    []SubAreaCountResponse     `json:"sub_area_counts"`
}
