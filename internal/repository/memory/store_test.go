package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/claims-service/internal/domain"
	"github.com/spec-kit/claims-service/internal/repository"
)

func seedClaim(t *testing.T, set repository.Set) *domain.Claim {
	t.Helper()
	ctx := context.Background()
	client := &domain.Client{Name: "Acme", Email: "ops@acme.test", IsActive: true}
	require.NoError(t, set.Clients.CreateClient(ctx, client))
	claim := &domain.Claim{
		Title:    "Login fails",
		Type:     domain.ClaimTypeError,
		Priority: domain.ClaimPriorityHigh,
		Severity: domain.ClaimSeverityHigh,
		Status:   domain.ClaimStatusOpen,
		ClientID: client.ID,
	}
	require.NoError(t, set.Claims.Create(ctx, claim))
	return claim
}

func TestTimestampsStrictlyIncrease(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewStore(WithClock(func() time.Time { return fixed }))
	set := store.Set()
	claim := seedClaim(t, set)

	ctx := context.Background()
	var prev time.Time
	for i := 0; i < 5; i++ {
		event := &domain.AuditEvent{ClaimID: claim.ID, ActionType: domain.ActionCommented, User: "u"}
		require.NoError(t, set.Events.Create(ctx, event))
		assert.True(t, event.CreatedAt.After(prev))
		prev = event.CreatedAt
	}
}

func TestUpdateStatusComparesAndSets(t *testing.T) {
	set := NewStore().Set()
	claim := seedClaim(t, set)
	ctx := context.Background()

	updated, err := set.Claims.UpdateStatus(ctx, claim.ID, domain.ClaimStatusOpen, domain.ClaimStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimStatusInProgress, updated.Status)

	_, err = set.Claims.UpdateStatus(ctx, claim.ID, domain.ClaimStatusOpen, domain.ClaimStatusCancelled)
	assert.ErrorIs(t, err, repository.ErrStale)

	_, err = set.Claims.UpdateStatus(ctx, "missing", domain.ClaimStatusOpen, domain.ClaimStatusCancelled)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateWritesFieldsAndStatusTogether(t *testing.T) {
	set := NewStore().Set()
	claim := seedClaim(t, set)
	ctx := context.Background()

	edit := *claim
	edit.Title = "Login fails on mobile"
	edit.Status = domain.ClaimStatusInProgress
	require.NoError(t, set.Claims.Update(ctx, &edit, domain.ClaimStatusOpen))

	stale := *claim
	stale.Title = "overwritten"
	stale.Status = domain.ClaimStatusCancelled
	assert.ErrorIs(t, set.Claims.Update(ctx, &stale, domain.ClaimStatusOpen), repository.ErrStale)

	stored, err := set.Claims.GetByID(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, "Login fails on mobile", stored.Title)
	assert.Equal(t, domain.ClaimStatusInProgress, stored.Status)

	missing := domain.Claim{ID: "missing"}
	assert.ErrorIs(t, set.Claims.Update(ctx, &missing, domain.ClaimStatusOpen), repository.ErrNotFound)
}

func TestReplaceCurrentKeepsSingleCurrent(t *testing.T) {
	set := NewStore().Set()
	claim := seedClaim(t, set)
	ctx := context.Background()

	area := &domain.Area{Name: "Soporte", IsActive: true}
	require.NoError(t, set.Areas.Create(ctx, area))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a := &domain.AreaAssignment{ClaimID: claim.ID, AreaID: area.ID, AssignedBy: "u"}
			assert.NoError(t, set.Assignments.ReplaceCurrent(ctx, a))
		}()
	}
	wg.Wait()

	history, err := set.Assignments.ListByClaim(ctx, claim.ID)
	require.NoError(t, err)
	require.Len(t, history, 20)
	current := 0
	for _, a := range history {
		if a.IsCurrent {
			current++
		}
	}
	assert.Equal(t, 1, current)
	assert.True(t, history[0].IsCurrent, "newest assignment is the current one")

	cleared, err := set.Assignments.ClearCurrent(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	_, err = set.Assignments.GetCurrent(ctx, claim.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAreaNamesAreUnique(t *testing.T) {
	set := NewStore().Set()
	ctx := context.Background()

	area := &domain.Area{Name: "Soporte", IsActive: true}
	require.NoError(t, set.Areas.Create(ctx, area))
	err := set.Areas.Create(ctx, &domain.Area{Name: "soporte", IsActive: true})
	assert.True(t, errors.Is(err, repository.ErrDuplicate))

	sub := &domain.SubArea{AreaID: area.ID, Name: "Nivel 1", IsActive: true}
	require.NoError(t, set.Areas.CreateSubArea(ctx, sub))
	err = set.Areas.CreateSubArea(ctx, &domain.SubArea{AreaID: area.ID, Name: "Nivel 1", IsActive: true})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	other := &domain.Area{Name: "Desarrollo", IsActive: true}
	require.NoError(t, set.Areas.Create(ctx, other))
	require.NoError(t, set.Areas.CreateSubArea(ctx, &domain.SubArea{AreaID: other.ID, Name: "Nivel 1", IsActive: true}))

	areas, err := set.Areas.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, areas, 2)
	assert.Equal(t, "Desarrollo", areas[0].Name)
}

func TestSearchFiltersNewestFirst(t *testing.T) {
	set := NewStore().Set()
	claim := seedClaim(t, set)
	ctx := context.Background()

	users := []string{"Ana", "bob", "ANA.perez"}
	for _, u := range users {
		require.NoError(t, set.Events.Create(ctx, &domain.AuditEvent{ClaimID: claim.ID, ActionType: domain.ActionCommented, User: u}))
	}

	user := "ana"
	found, err := set.Events.Search(ctx, repository.AuditEventFilter{User: &user})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "ANA.perez", found[0].User)
	assert.Equal(t, "Ana", found[1].User)

	limited, err := set.Events.Search(ctx, repository.AuditEventFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestReturnedEventsAreDetached(t *testing.T) {
	set := NewStore().Set()
	claim := seedClaim(t, set)
	ctx := context.Background()

	require.NoError(t, set.Events.Create(ctx, &domain.AuditEvent{
		ClaimID:    claim.ID,
		ActionType: domain.ActionCreated,
		User:       "u",
		Metadata:   map[string]any{"k": "v"},
	}))
	events, err := set.Events.ListByClaim(ctx, claim.ID)
	require.NoError(t, err)
	events[0].Metadata["k"] = "tampered"

	again, err := set.Events.ListByClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, "v", again[0].Metadata["k"])
}

func TestDeleteKeepsAuditEvents(t *testing.T) {
	set := NewStore().Set()
	claim := seedClaim(t, set)
	ctx := context.Background()

	require.NoError(t, set.Events.Create(ctx, &domain.AuditEvent{ClaimID: claim.ID, ActionType: domain.ActionClosed, User: "u"}))
	require.NoError(t, set.Comments.Create(ctx, &domain.Comment{ClaimID: claim.ID, Author: "u", Body: "hola"}))
	require.NoError(t, set.Claims.Delete(ctx, claim.ID))

	_, err := set.Claims.GetByID(ctx, claim.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	comments, err := set.Comments.ListByClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
	events, err := set.Events.ListByClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	assert.ErrorIs(t, set.Claims.Delete(ctx, claim.ID), repository.ErrNotFound)
}
