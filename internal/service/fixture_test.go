package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/claims-service/internal/domain"
	"github.com/spec-kit/claims-service/internal/events"
	"github.com/spec-kit/claims-service/internal/observability"
	"github.com/spec-kit/claims-service/internal/repository"
	"github.com/spec-kit/claims-service/internal/repository/memory"
	apperrors "github.com/spec-kit/claims-service/pkg/util/errorutil"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixtureConfig struct {
	recorder func(EventRecorder) EventRecorder
	claims      func(repository.ClaimRepository) repository.ClaimRepository
	attachments func(repository.AttachmentRepository) repository.AttachmentRepository
}

type fixtureOption func(*fixtureConfig)

func withRecorder(wrap func(EventRecorder) EventRecorder) fixtureOption {
	return func(c *fixtureConfig) { c.recorder = wrap }
}

func withClaimRepo(wrap func(repository.ClaimRepository) repository.ClaimRepository) fixtureOption {
	return func(c *fixtureConfig) { c.claims = wrap }
}

func withAttachmentRepo(wrap func(repository.AttachmentRepository) repository.AttachmentRepository) fixtureOption {
	return func(c *fixtureConfig) { c.attachments = wrap }
}

type fixture struct {
	set         repository.Set
	clock       *fakeClock
	metrics     *observability.Metrics
	dispatcher  events.Dispatcher
	trace       *TraceService
	claims      *ClaimService
	assignments *AssignmentService
	areas       *AreaService
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	cfg := fixtureConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	set := memory.NewStore(memory.WithClock(clock.Now)).Set()
	if cfg.claims != nil {
		set.Claims = cfg.claims(set.Claims)
	}
	if cfg.attachments != nil {
		set.Attachments = cfg.attachments(set.Attachments)
	}
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	trace := NewTraceService(TraceDependencies{
		ClaimRepo:  set.Claims,
		EventRepo:  set.Events,
		Names:      NewRepositoryAreaNames(set.Areas),
		Dispatcher: dispatcher,
	})
	var recorder EventRecorder = trace
	if cfg.recorder != nil {
		recorder = cfg.recorder(trace)
	}

	return &fixture{
		set:        set,
		clock:      clock,
		metrics:    metrics,
		dispatcher: dispatcher,
		trace:      trace,
		claims: NewClaimService(ClaimDependencies{
			ClaimRepo:      set.Claims,
			ClientRepo:     set.Clients,
			CommentRepo:    set.Comments,
			AttachmentRepo: set.Attachments,
			Recorder:       recorder,
			Metrics:        metrics,
		}),
		assignments: NewAssignmentService(AssignmentDependencies{
			ClaimRepo:      set.Claims,
			AreaRepo:       set.Areas,
			AssignmentRepo: set.Assignments,
			Recorder:       recorder,
			Metrics:        metrics,
		}),
		areas: NewAreaService(AreaDependencies{
			AreaRepo:       set.Areas,
			AssignmentRepo: set.Assignments,
			ClaimRepo:      set.Claims,
		}),
	}
}

func (f *fixture) client(t *testing.T) *domain.Client {
	t.Helper()
	client := &domain.Client{Name: "Acme", Email: "ops@acme.test", IsActive: true}
	require.NoError(t, f.set.Clients.CreateClient(context.Background(), client))
	return client
}

func (f *fixture) claim(t *testing.T) *domain.Claim {
	t.Helper()
	claim, err := f.claims.Create(context.Background(), CreateClaimInput{
		Title:       "Login fails",
		Description: "Users cannot sign in",
		Type:        domain.ClaimTypeError,
		Priority:    domain.ClaimPriorityHigh,
		Severity:    domain.ClaimSeverityHigh,
		ClientID:    f.client(t).ID,
	}, "ana")
	require.NoError(t, err)
	return claim
}

// claimIn creates a claim and moves it straight to st in the store.
func (f *fixture) claimIn(t *testing.T, st domain.ClaimStatus) *domain.Claim {
	t.Helper()
	claim := f.claim(t)
	if st == domain.ClaimStatusOpen {
		return claim
	}
	updated, err := f.set.Claims.UpdateStatus(context.Background(), claim.ID, domain.ClaimStatusOpen, st)
	require.NoError(t, err)
	return updated
}

func (f *fixture) area(t *testing.T, name string, subAreas ...string) (*domain.Area, []domain.SubArea) {
	t.Helper()
	ctx := context.Background()
	area, err := f.areas.CreateArea(ctx, CreateAreaInput{Name: name})
	require.NoError(t, err)
	subs := make([]domain.SubArea, 0, len(subAreas))
	for _, sub := range subAreas {
		created, err := f.areas.CreateSubArea(ctx, CreateSubAreaInput{AreaID: area.ID, Name: sub})
		require.NoError(t, err)
		subs = append(subs, *created)
	}
	return area, subs
}

func (f *fixture) events(t *testing.T, claimID string) []domain.AuditEvent {
	t.Helper()
	history, err := f.set.Events.ListByClaim(context.Background(), claimID)
	require.NoError(t, err)
	return history
}

func (f *fixture) currentCount(t *testing.T, claimID string) int {
	t.Helper()
	history, err := f.set.Assignments.ListByClaim(context.Background(), claimID)
	require.NoError(t, err)
	n := 0
	for _, a := range history {
		if a.IsCurrent {
			n++
		}
	}
	return n
}

func countAction(history []domain.AuditEvent, action domain.ActionType) int {
	n := 0
	for _, e := range history {
		if e.ActionType == action {
			n++
		}
	}
	return n
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, code), "want %s, got %v", code, err)
}

type failingRecorder struct{}

func (failingRecorder) RecordEvent(context.Context, EventInput) (*domain.AuditEvent, error) {
	return nil, errors.New("audit store unavailable")
}

type failingStatusRepo struct {
	repository.ClaimRepository
}

func (failingStatusRepo) UpdateStatus(context.Context, string, domain.ClaimStatus, domain.ClaimStatus) (*domain.Claim, error) {
	return nil, errors.New("connection reset")
}

type failingUpdateRepo struct {
	repository.ClaimRepository
}

func (failingUpdateRepo) Update(context.Context, *domain.Claim, domain.ClaimStatus) error {
	return errors.New("connection reset")
}

// failingAttachmentRepo rejects attachments whose name is in reject.
type failingAttachmentRepo struct {
	repository.AttachmentRepository
	reject map[string]bool
}

func (r failingAttachmentRepo) Create(ctx context.Context, attachment *domain.Attachment) error {
	if r.reject[attachment.FileName] {
		return errors.New("disk full")
	}
	return r.AttachmentRepository.Create(ctx, attachment)
}

func ptr[T any](v T) *T {
	return &v
}
