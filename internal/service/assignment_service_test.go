package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/claims-service/internal/domain"
	apperrors "github.com/spec-kit/claims-service/pkg/util/errorutil"
)

func TestAssignToAreaForcesInProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.claim(t)
	area, subs := f.area(t, "Soporte", "Nivel 1")

	view, err := f.assignments.AssignToArea(ctx, AssignInput{
		ClaimID:    claim.ID,
		AreaID:     area.ID,
		SubAreaID:  &subs[0].ID,
		AssignedBy: "lead",
		Notes:      ptr("urgente"),
	})
	require.NoError(t, err)
	assert.True(t, view.IsCurrent)
	assert.Equal(t, "Soporte", view.Area.Name)
	require.NotNil(t, view.SubArea)
	assert.Equal(t, "Nivel 1", view.SubArea.Name)

	stored, err := f.claims.Get(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimStatusInProgress, stored.Status)

	history := f.events(t, claim.ID)
	require.Len(t, history, 2)
	assigned := history[1]
	assert.Equal(t, domain.ActionAssigned, assigned.ActionType)
	assert.Equal(t, "Soporte - Nivel 1", *assigned.NewValue)
	assert.Nil(t, assigned.OldValue)
	assert.Equal(t, "Reclamo asignado al área: Soporte", assigned.Details)
	assert.Equal(t, "Asignado a Soporte - Nivel 1 por lead", assigned.ActionLabel)
	assert.Equal(t, "urgente", assigned.Metadata["notes"])
	assert.Equal(t, "ABIERTO", assigned.Metadata[metaStatusChangedFrom])
	assert.Equal(t, "EN_PROCESO", assigned.Metadata[metaStatusChangedTo])
	assert.Equal(t, area.ID, *assigned.AreaID)
	assert.Equal(t, 0, countAction(history, domain.ActionStatusChanged))
}

func TestAssignAgainRecordsReassignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.claim(t)
	support, subs := f.area(t, "Soporte", "Nivel 1")
	dev, _ := f.area(t, "Desarrollo")

	first, err := f.assignments.AssignToArea(ctx, AssignInput{ClaimID: claim.ID, AreaID: support.ID, SubAreaID: &subs[0].ID})
	require.NoError(t, err)
	_, err = f.assignments.AssignToArea(ctx, AssignInput{ClaimID: claim.ID, AreaID: dev.ID, AssignedBy: "lead"})
	require.NoError(t, err)

	history := f.events(t, claim.ID)
	last := history[len(history)-1]
	assert.Equal(t, domain.ActionReassigned, last.ActionType)
	assert.Equal(t, "Soporte - Nivel 1", *last.OldValue)
	assert.Equal(t, "Desarrollo", *last.NewValue)
	assert.Equal(t, "Reclamo reasignado de Soporte - Nivel 1 a Desarrollo", last.Details)
	assert.Equal(t, first.ID, last.Metadata["previousAssignmentId"])
	assert.NotContains(t, last.Metadata, metaStatusChangedTo)
	assert.Equal(t, 1, f.currentCount(t, claim.ID))
}

func TestAssignToAreaValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.claim(t)
	support, _ := f.area(t, "Soporte")
	_, devSubs := f.area(t, "Desarrollo", "Backend")

	tests := []struct {
		name  string
		input AssignInput
		code  string
	}{
		{"malformed claim", AssignInput{ClaimID: "c1", AreaID: support.ID}, apperrors.CodeInvalidReference},
		{"malformed area", AssignInput{ClaimID: claim.ID, AreaID: "a1"}, apperrors.CodeInvalidReference},
		{"unknown claim", AssignInput{ClaimID: uuid.NewString(), AreaID: support.ID}, apperrors.CodeNotFound},
		{"unknown area", AssignInput{ClaimID: claim.ID, AreaID: uuid.NewString()}, apperrors.CodeNotFound},
		{"unknown sub-area", AssignInput{ClaimID: claim.ID, AreaID: support.ID, SubAreaID: ptr(uuid.NewString())}, apperrors.CodeNotFound},
		{"foreign sub-area", AssignInput{ClaimID: claim.ID, AreaID: support.ID, SubAreaID: &devSubs[0].ID}, apperrors.CodeConstraintViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.assignments.AssignToArea(ctx, tt.input)
			assertCode(t, err, tt.code)
		})
	}
	assert.Equal(t, 0, f.currentCount(t, claim.ID))
	assert.Len(t, f.events(t, claim.ID), 1)
}

func TestAssignRequiresPermission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	area, _ := f.area(t, "Soporte")

	for _, st := range []domain.ClaimStatus{domain.ClaimStatusWaitingClient, domain.ClaimStatusResolved, domain.ClaimStatusClosed, domain.ClaimStatusCancelled} {
		t.Run(string(st), func(t *testing.T) {
			claim := f.claimIn(t, st)
			_, err := f.assignments.AssignToArea(ctx, AssignInput{ClaimID: claim.ID, AreaID: area.ID})
			assertCode(t, err, apperrors.CodeActionNotAllowed)
			assert.Equal(t, 0, f.currentCount(t, claim.ID))
		})
	}
}

func TestReassignWithinArea(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.claim(t)
	support, subs := f.area(t, "Soporte", "Nivel 1", "Nivel 2")
	_, devSubs := f.area(t, "Desarrollo", "Backend")

	_, err := f.assignments.ReassignWithinArea(ctx, ReassignInput{ClaimID: claim.ID, SubAreaID: subs[0].ID})
	assertCode(t, err, apperrors.CodeConstraintViolation)

	_, err = f.assignments.AssignToArea(ctx, AssignInput{ClaimID: claim.ID, AreaID: support.ID})
	require.NoError(t, err)

	_, err = f.assignments.ReassignWithinArea(ctx, ReassignInput{ClaimID: claim.ID, SubAreaID: devSubs[0].ID})
	assertCode(t, err, apperrors.CodeConstraintViolation)

	view, err := f.assignments.ReassignWithinArea(ctx, ReassignInput{
		ClaimID:    claim.ID,
		SubAreaID:  subs[1].ID,
		AssignedBy: "lead",
		Notes:      ptr("segundo nivel"),
	})
	require.NoError(t, err)
	assert.Equal(t, support.ID, view.AreaID)
	assert.Equal(t, "Nivel 2", view.SubArea.Name)

	history := f.events(t, claim.ID)
	last := history[len(history)-1]
	assert.Equal(t, domain.ActionReassigned, last.ActionType)
	assert.Equal(t, "Soporte - Sin subárea", *last.OldValue)
	assert.Equal(t, "Soporte - Nivel 2", *last.NewValue)
	assert.Equal(t, "Reasignación interna dentro del área Soporte", last.Details)
	assert.Equal(t, true, last.Metadata["isInternalReassignment"])
	assert.Equal(t, "segundo nivel", last.Metadata["notes"])
	assert.NotContains(t, last.Metadata, "previousSubAreaId")
	assert.Equal(t, 1, f.currentCount(t, claim.ID))

	_, err = f.assignments.ReassignWithinArea(ctx, ReassignInput{ClaimID: claim.ID, SubAreaID: subs[0].ID})
	require.NoError(t, err)
	history = f.events(t, claim.ID)
	assert.Equal(t, subs[1].ID, history[len(history)-1].Metadata["previousSubAreaId"])
}

func TestUnassign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.claim(t)
	area, subs := f.area(t, "Soporte", "Nivel 1")

	_, err := f.assignments.Unassign(ctx, claim.ID, "lead", nil)
	assertCode(t, err, apperrors.CodeConstraintViolation)

	_, err = f.assignments.AssignToArea(ctx, AssignInput{ClaimID: claim.ID, AreaID: area.ID, SubAreaID: &subs[0].ID})
	require.NoError(t, err)

	result, err := f.assignments.Unassign(ctx, claim.ID, "lead", ptr("duplicado"))
	require.NoError(t, err)
	assert.False(t, result.Previous.IsCurrent)
	assert.Equal(t, "Soporte", result.Previous.Area.Name)

	current, err := f.assignments.CurrentAssignment(ctx, claim.ID)
	require.NoError(t, err)
	assert.Nil(t, current)
	assert.Equal(t, 0, f.currentCount(t, claim.ID))

	history := f.events(t, claim.ID)
	last := history[len(history)-1]
	assert.Equal(t, domain.ActionReassigned, last.ActionType)
	assert.Equal(t, "Soporte - Nivel 1", *last.OldValue)
	assert.Equal(t, "Sin asignar", *last.NewValue)
	assert.Equal(t, "duplicado", last.Details)
	assert.Equal(t, area.ID, last.Metadata["previousAreaId"])
	assert.Equal(t, subs[0].ID, last.Metadata["previousSubAreaId"])
	assert.Equal(t, true, last.Metadata["isUnassignment"])

	stored, err := f.claims.Get(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimStatusInProgress, stored.Status)

	_, err = f.assignments.Unassign(ctx, claim.ID, "lead", nil)
	assertCode(t, err, apperrors.CodeConstraintViolation)
}

func TestSingleCurrentAssignmentAcrossOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.claim(t)
	support, subs := f.area(t, "Soporte", "Nivel 1", "Nivel 2")
	dev, _ := f.area(t, "Desarrollo")

	steps := []func() error{
		func() error {
			_, err := f.assignments.AssignToArea(ctx, AssignInput{ClaimID: claim.ID, AreaID: support.ID})
			return err
		},
		func() error {
			_, err := f.assignments.ReassignWithinArea(ctx, ReassignInput{ClaimID: claim.ID, SubAreaID: subs[0].ID})
			return err
		},
		func() error {
			_, err := f.assignments.ReassignWithinArea(ctx, ReassignInput{ClaimID: claim.ID, SubAreaID: subs[1].ID})
			return err
		},
		func() error {
			_, err := f.assignments.AssignToArea(ctx, AssignInput{ClaimID: claim.ID, AreaID: dev.ID})
			return err
		},
		func() error {
			_, err := f.assignments.Unassign(ctx, claim.ID, "", nil)
			return err
		},
		func() error {
			_, err := f.assignments.AssignToArea(ctx, AssignInput{ClaimID: claim.ID, AreaID: support.ID, SubAreaID: &subs[1].ID})
			return err
		},
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		assert.LessOrEqual(t, f.currentCount(t, claim.ID), 1, "step %d", i)
	}

	history, err := f.assignments.AssignmentHistory(ctx, claim.ID)
	require.NoError(t, err)
	require.Len(t, history, 5)
	assert.True(t, history[0].IsCurrent)
	assert.Equal(t, "Nivel 2", history[0].SubArea.Name)
	for _, h := range history[1:] {
		assert.False(t, h.IsCurrent)
	}
}

func TestConcurrentAssignKeepsSingleCurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.claim(t)

	var areaIDs []string
	for _, name := range []string{"Soporte", "Desarrollo", "Infraestructura", "Calidad"} {
		area, _ := f.area(t, name)
		areaIDs = append(areaIDs, area.ID)
	}

	var wg sync.WaitGroup
	for i := 0; i < 24; i++ {
		wg.Add(1)
		go func(areaID string) {
			defer wg.Done()
			// Losers of the status race surface a conflict.
			_, _ = f.assignments.AssignToArea(ctx, AssignInput{ClaimID: claim.ID, AreaID: areaID})
		}(areaIDs[i%len(areaIDs)])
	}
	wg.Wait()

	assert.Equal(t, 1, f.currentCount(t, claim.ID))
	stored, err := f.claims.Get(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimStatusInProgress, stored.Status)
}

func TestCurrentAssignmentResolvesNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.claim(t)
	area, subs := f.area(t, "Soporte", "Nivel 1")

	_, err := f.assignments.CurrentAssignment(ctx, uuid.NewString())
	assertCode(t, err, apperrors.CodeNotFound)

	_, err = f.assignments.AssignToArea(ctx, AssignInput{ClaimID: claim.ID, AreaID: area.ID, SubAreaID: &subs[0].ID})
	require.NoError(t, err)

	current, err := f.assignments.CurrentAssignment(ctx, claim.ID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, NamedRef{ID: area.ID, Name: "Soporte"}, current.Area)
	assert.Equal(t, &NamedRef{ID: subs[0].ID, Name: "Nivel 1"}, current.SubArea)
	assert.Equal(t, "system", current.AssignedBy)
}
