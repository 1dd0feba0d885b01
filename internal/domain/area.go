package domain

import "time"

// Area represents a high-level organizational unit claims are routed to.
type Area struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SubArea represents a sub-group under an area.
type SubArea struct {
	ID          string
	AreaID      string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AreaAssignment is a routing fact linking a claim to an area and optional sub-area.
// At most one assignment per claim has IsCurrent set.
type AreaAssignment struct {
	ID         string
	ClaimID    string
	AreaID     string
	SubAreaID  *string
	AssignedBy string
	Notes      *string
	AssignedAt time.Time
	IsCurrent  bool
}
