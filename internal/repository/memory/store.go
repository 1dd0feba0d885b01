// Package memory provides an in-memory implementation of the repository
// interfaces, used by tests and by deployments started without a Postgres DSN.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/claims-service/internal/domain"
	"github.com/spec-kit/claims-service/internal/repository"
)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

type memoryState struct {
	claims      map[string]domain.Claim
	clients     map[string]domain.Client
	projects    map[string]domain.Project
	areas       map[string]domain.Area
	subAreas    map[string]domain.SubArea
	assignments []domain.AreaAssignment
	events      []domain.AuditEvent
	comments    []domain.Comment
	attachments []domain.Attachment
}

// Store keeps every table behind one mutex. Timestamps it issues are strictly
// increasing, which gives audit events a total order per claim.
type Store struct {
	mu    sync.RWMutex
	state memoryState
	now   func() time.Time
	last  time.Time
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		state: memoryState{
			claims:   make(map[string]domain.Claim),
			clients:  make(map[string]domain.Client),
			projects: make(map[string]domain.Project),
			areas:    make(map[string]domain.Area),
			subAreas: make(map[string]domain.SubArea),
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set exposes the store through the repository interfaces.
func (s *Store) Set() repository.Set {
	return repository.Set{
		Claims:      &claimRepository{store: s},
		Clients:     &clientRepository{store: s},
		Areas:       &areaRepository{store: s},
		Assignments: &assignmentRepository{store: s},
		Events:      &auditEventRepository{store: s},
		Comments:    &commentRepository{store: s},
		Attachments: &attachmentRepository{store: s},
	}
}

// tick must be called with the write lock held.
func (s *Store) tick() time.Time {
	now := s.now().UTC()
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now
}

func newID() string {
	return uuid.NewString()
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneClaim(c domain.Claim) domain.Claim {
	c.ProjectID = cloneString(c.ProjectID)
	return c
}

func cloneAssignment(a domain.AreaAssignment) domain.AreaAssignment {
	a.SubAreaID = cloneString(a.SubAreaID)
	a.Notes = cloneString(a.Notes)
	return a
}

func cloneEvent(e domain.AuditEvent) domain.AuditEvent {
	e.OldValue = cloneString(e.OldValue)
	e.NewValue = cloneString(e.NewValue)
	e.AreaID = cloneString(e.AreaID)
	e.SubAreaID = cloneString(e.SubAreaID)
	e.Metadata = cloneMetadata(e.Metadata)
	return e
}
