package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/claims-service/internal/domain"
	"github.com/spec-kit/claims-service/internal/events"
	apperrors "github.com/spec-kit/claims-service/pkg/util/errorutil"
)

func TestClaimLifecycleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.claim(t)
	area, _ := f.area(t, "Soporte")

	_, err := f.assignments.AssignToArea(ctx, AssignInput{ClaimID: claim.ID, AreaID: area.ID, AssignedBy: "lead"})
	require.NoError(t, err)
	stored, err := f.claims.Get(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimStatusInProgress, stored.Status)
	assert.Equal(t, 1, countAction(f.events(t, claim.ID), domain.ActionAssigned))

	resolved, err := f.claims.ChangeStatus(ctx, claim.ID, ChangeStatusInput{
		NewStatus:         domain.ClaimStatusResolved,
		ResolutionDetails: "fixed",
	}, "tech")
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimStatusResolved, resolved.Status)

	_, err = f.claims.ChangeStatus(ctx, claim.ID, ChangeStatusInput{NewStatus: domain.ClaimStatusClosed}, "tech")
	assertCode(t, err, apperrors.CodeMissingRequiredField)

	_, err = f.claims.ChangeStatus(ctx, claim.ID, ChangeStatusInput{
		NewStatus:    domain.ClaimStatusClosed,
		ClosureNotes: "done",
	}, "tech")
	require.NoError(t, err)

	trace, err := f.trace.GetClaimTrace(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, ClaimHeader{ID: claim.ID, Title: "Login fails", Status: domain.ClaimStatusClosed, CreatedAt: claim.CreatedAt}, trace.Claim)

	actions := make([]domain.ActionType, len(trace.Timeline))
	for i, e := range trace.Timeline {
		actions[i] = e.ActionType
	}
	assert.Equal(t, []domain.ActionType{
		domain.ActionCreated,
		domain.ActionAssigned,
		domain.ActionStatusChanged,
		domain.ActionStatusChanged,
	}, actions)
	for i := 1; i < len(trace.Timeline); i++ {
		assert.True(t, trace.Timeline[i].CreatedAt.After(trace.Timeline[i-1].CreatedAt))
	}

	require.NotNil(t, trace.Timeline[1].Area)
	assert.Equal(t, "Soporte", trace.Timeline[1].Area.Name)
	assert.Nil(t, trace.Timeline[1].SubArea)
	assert.Equal(t, "EN_PROCESO", *trace.Timeline[2].OldValue)
	assert.Equal(t, "RESUELTO", *trace.Timeline[2].NewValue)
	assert.Equal(t, "Estado cambiado de RESUELTO a CERRADO por tech", trace.Timeline[3].ActionLabel)

	assert.Equal(t, 4, trace.Summary.TotalEvents)
	assert.Equal(t, 2, trace.Summary.StatusChanges)
	assert.Equal(t, 1, trace.Summary.Assignments)
	assert.Equal(t, domain.ClaimStatusClosed, trace.Summary.CurrentStatus)
	require.NotNil(t, trace.Summary.LastAction)
	assert.Equal(t, trace.Timeline[3].ID, trace.Summary.LastAction.ID)
}

func TestTraceStatsTiming(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.claim(t)
	area, _ := f.area(t, "Soporte")

	f.clock.Advance(10 * time.Minute)
	_, err := f.assignments.AssignToArea(ctx, AssignInput{ClaimID: claim.ID, AreaID: area.ID})
	require.NoError(t, err)

	f.clock.Advance(30 * time.Minute)
	_, err = f.claims.Resolve(ctx, claim.ID, "fixed", "tech")
	require.NoError(t, err)

	stats, err := f.trace.GetTraceStats(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalEvents)
	assert.Equal(t, 1, stats.StatusChanges)
	assert.Equal(t, 1, stats.AssignmentCount)

	tolerance := float64(time.Millisecond)
	require.NotNil(t, stats.FirstResponseTime)
	assert.InDelta(t, float64(10*time.Minute), float64(*stats.FirstResponseTime), tolerance)
	require.NotNil(t, stats.ResolutionTime)
	assert.InDelta(t, float64(40*time.Minute), float64(*stats.ResolutionTime), tolerance)

	assert.InDelta(t, float64(10*time.Minute), float64(stats.TimeInStatus[domain.ClaimStatusOpen]), tolerance)
	assert.InDelta(t, float64(30*time.Minute), float64(stats.TimeInStatus[domain.ClaimStatusInProgress]), tolerance)
	assert.NotContains(t, stats.TimeInStatus, domain.ClaimStatusResolved)
}

func TestTraceStatsWithoutAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.claim(t)

	f.clock.Advance(time.Hour)
	_, err := f.claims.ChangeStatus(ctx, claim.ID, ChangeStatusInput{NewStatus: domain.ClaimStatusCancelled, Reason: "duplicado"}, "ana")
	require.NoError(t, err)

	stats, err := f.trace.GetTraceStats(ctx, claim.ID)
	require.NoError(t, err)
	assert.Nil(t, stats.FirstResponseTime)
	assert.Nil(t, stats.ResolutionTime)
	assert.InDelta(t, float64(time.Hour), float64(stats.TimeInStatus[domain.ClaimStatusOpen]), float64(time.Millisecond))
}

func TestRecordEventValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.claim(t)

	tests := []struct {
		name  string
		input EventInput
		code  string
	}{
		{"malformed claim", EventInput{ClaimID: "x", ActionType: domain.ActionCommented}, apperrors.CodeInvalidReference},
		{"unknown claim", EventInput{ClaimID: uuid.NewString(), ActionType: domain.ActionCommented}, apperrors.CodeNotFound},
		{"unknown action", EventInput{ClaimID: claim.ID, ActionType: "DELETED"}, apperrors.CodeValidation},
		{"malformed area", EventInput{ClaimID: claim.ID, ActionType: domain.ActionAssigned, AreaID: ptr("a1")}, apperrors.CodeInvalidReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.trace.RecordEvent(ctx, tt.input)
			assertCode(t, err, tt.code)
		})
	}
	assert.Len(t, f.events(t, claim.ID), 1)
}

func TestRecordEventLabels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.claim(t)

	tests := []struct {
		input EventInput
		label string
	}{
		{EventInput{ActionType: domain.ActionPriorityChanged, User: "ana", OldValue: ptr("alta"), NewValue: ptr("baja")}, "Prioridad cambiada de alta a baja por ana"},
		{EventInput{ActionType: domain.ActionSeverityChanged, User: "ana", OldValue: ptr("baja"), NewValue: ptr("critica")}, "Criticidad cambiada de baja a critica por ana"},
		{EventInput{ActionType: domain.ActionResolved}, "Resuelto por system"},
		{EventInput{ActionType: domain.ActionReopened, User: "ana"}, "Reabierto por ana"},
		{EventInput{ActionType: domain.ActionCommented, User: "ana", Label: "Nota interna"}, "Nota interna"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			tt.input.ClaimID = claim.ID
			event, err := f.trace.RecordEvent(ctx, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.label, event.ActionLabel)
			assert.NotNil(t, event.Metadata)
		})
	}
}

func TestRecordEventPublishesNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var received []events.Event
	f.dispatcher.Subscribe(events.EventClaimCommented, func(_ context.Context, e events.Event) error {
		received = append(received, e)
		return nil
	})
	f.dispatcher.Subscribe(events.EventClaimCreated, func(context.Context, events.Event) error {
		return errors.New("smtp down")
	})

	claim := f.claim(t)
	_, err := f.claims.AddComment(ctx, claim.ID, "hola", "cliente")
	require.NoError(t, err)

	require.Len(t, received, 1)
	assert.Equal(t, claim.ID, received[0].ClaimID)
	assert.Equal(t, "cliente", received[0].Actor)
	payload, ok := received[0].Payload.(events.AuditRecordedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.ActionCommented, payload.ActionType)
	assert.Len(t, f.events(t, claim.ID), 2)
}

func TestSearchEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.claim(t)
	second := f.claim(t)
	area, _ := f.area(t, "Soporte")

	_, err := f.claims.AddComment(ctx, first.ID, "primer comentario", "Luis.Gomez")
	require.NoError(t, err)
	_, err = f.assignments.AssignToArea(ctx, AssignInput{ClaimID: second.ID, AreaID: area.ID, AssignedBy: "lead"})
	require.NoError(t, err)

	byUser, err := f.trace.SearchEvents(ctx, EventFilter{User: "LUIS"})
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, domain.ActionCommented, byUser[0].ActionType)

	created, err := f.trace.SearchEvents(ctx, EventFilter{ActionType: domain.ActionCreated})
	require.NoError(t, err)
	assert.Len(t, created, 2)

	byClaim, err := f.trace.SearchEvents(ctx, EventFilter{ClaimID: first.ID})
	require.NoError(t, err)
	require.Len(t, byClaim, 2)
	assert.Equal(t, domain.ActionCommented, byClaim[0].ActionType, "newest first")

	byArea, err := f.trace.SearchEvents(ctx, EventFilter{AreaID: area.ID})
	require.NoError(t, err)
	require.Len(t, byArea, 1)
	assert.Equal(t, second.ID, byArea[0].ClaimID)

	from := f.clock.Now().Add(time.Hour)
	none, err := f.trace.SearchEvents(ctx, EventFilter{From: &from})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	to := from.Add(-2 * time.Hour)
	_, err = f.trace.SearchEvents(ctx, EventFilter{From: &from, To: &to})
	assertCode(t, err, apperrors.CodeValidation)
	_, err = f.trace.SearchEvents(ctx, EventFilter{ActionType: "DELETED"})
	assertCode(t, err, apperrors.CodeValidation)
	_, err = f.trace.SearchEvents(ctx, EventFilter{ClaimID: "nope"})
	assertCode(t, err, apperrors.CodeInvalidReference)
}

func TestSearchEventsIsCapped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.claim(t)
	for i := 0; i < 110; i++ {
		_, err := f.claims.AddComment(ctx, claim.ID, "ping", "bot")
		require.NoError(t, err)
	}

	found, err := f.trace.SearchEvents(ctx, EventFilter{ClaimID: claim.ID})
	require.NoError(t, err)
	assert.Len(t, found, 100)

	small := NewTraceService(TraceDependencies{ClaimRepo: f.set.Claims, EventRepo: f.set.Events, SearchLimit: 5})
	found, err = small.SearchEvents(ctx, EventFilter{ClaimID: claim.ID})
	require.NoError(t, err)
	assert.Len(t, found, 5)

	huge := NewTraceService(TraceDependencies{ClaimRepo: f.set.Claims, EventRepo: f.set.Events, SearchLimit: 1000})
	found, err = huge.SearchEvents(ctx, EventFilter{ClaimID: claim.ID})
	require.NoError(t, err)
	assert.Len(t, found, 100)
}

func TestGetClaimTraceUnknownClaim(t *testing.T) {
	f := newFixture(t)
	_, err := f.trace.GetClaimTrace(context.Background(), uuid.NewString())
	assertCode(t, err, apperrors.CodeNotFound)
	_, err = f.trace.GetTraceStats(context.Background(), "bad")
	assertCode(t, err, apperrors.CodeInvalidReference)
}
