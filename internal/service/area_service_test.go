package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/claims-service/internal/domain"
	apperrors "github.com/spec-kit/claims-service/pkg/util/errorutil"
)

func TestCreateAreaRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.area(t, "Soporte")

	_, err := f.areas.CreateArea(ctx, CreateAreaInput{Name: "soporte"})
	assertCode(t, err, apperrors.CodeConstraintViolation)
	_, err = f.areas.CreateArea(ctx, CreateAreaInput{Name: " "})
	assertCode(t, err, apperrors.CodeValidation)

	areas, err := f.areas.ListAreas(ctx)
	require.NoError(t, err)
	assert.Len(t, areas, 1)
}

func TestSubAreaNamesAreUniquePerArea(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	support, _ := f.area(t, "Soporte", "Nivel 1")
	dev, _ := f.area(t, "Desarrollo")

	_, err := f.areas.CreateSubArea(ctx, CreateSubAreaInput{AreaID: support.ID, Name: "Nivel 1"})
	assertCode(t, err, apperrors.CodeConstraintViolation)

	_, err = f.areas.CreateSubArea(ctx, CreateSubAreaInput{AreaID: dev.ID, Name: "Nivel 1"})
	require.NoError(t, err)

	_, err = f.areas.CreateSubArea(ctx, CreateSubAreaInput{AreaID: uuid.NewString(), Name: "Nivel 1"})
	assertCode(t, err, apperrors.CodeNotFound)
	_, err = f.areas.CreateSubArea(ctx, CreateSubAreaInput{AreaID: "x", Name: "Nivel 1"})
	assertCode(t, err, apperrors.CodeInvalidReference)

	detail, err := f.areas.GetArea(ctx, support.ID)
	require.NoError(t, err)
	assert.Equal(t, "Soporte", detail.Name)
	require.Len(t, detail.SubAreas, 1)

	subs, err := f.areas.ListSubAreas(ctx, dev.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestClaimsByAreaAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	support, subs := f.area(t, "Soporte", "Nivel 1", "Nivel 2")
	dev, _ := f.area(t, "Desarrollo")

	direct := f.claim(t)
	routed := f.claim(t)
	moved := f.claim(t)

	for _, in := range []AssignInput{
		{ClaimID: direct.ID, AreaID: support.ID},
		{ClaimID: routed.ID, AreaID: support.ID, SubAreaID: &subs[1].ID},
		{ClaimID: moved.ID, AreaID: support.ID, SubAreaID: &subs[0].ID},
		{ClaimID: moved.ID, AreaID: dev.ID},
	} {
		_, err := f.assignments.AssignToArea(ctx, in)
		require.NoError(t, err)
	}
	_, err := f.claims.ChangeStatus(ctx, routed.ID, ChangeStatusInput{NewStatus: domain.ClaimStatusWaitingClient}, "tech")
	require.NoError(t, err)

	onlyArea, err := f.areas.ClaimsByArea(ctx, support.ID, false)
	require.NoError(t, err)
	require.Len(t, onlyArea, 1)
	assert.Equal(t, direct.ID, onlyArea[0].Claim.ID)

	withSubs, err := f.areas.ClaimsByArea(ctx, support.ID, true)
	require.NoError(t, err)
	require.Len(t, withSubs, 2)
	assert.Equal(t, routed.ID, withSubs[0].Claim.ID, "newest assignment first")

	stats, err := f.areas.AreaStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	byName := map[string]AreaStat{}
	for _, s := range stats {
		byName[s.Area.Name] = s
	}
	supportStats := byName["Soporte"]
	assert.Equal(t, 2, supportStats.TotalAssignments)
	assert.Equal(t, map[domain.ClaimStatus]int{
		domain.ClaimStatusInProgress:    1,
		domain.ClaimStatusWaitingClient: 1,
	}, supportStats.StatusCounts)
	require.Len(t, supportStats.SubAreaCounts, 2)
	assert.Equal(t, "Nivel 2", supportStats.SubAreaCounts[0].SubArea.Name)
	assert.Equal(t, 1, supportStats.SubAreaCounts[0].Count)
	assert.Equal(t, 0, supportStats.SubAreaCounts[1].Count)

	assert.Equal(t, 1, byName["Desarrollo"].TotalAssignments)
	assert.Empty(t, byName["Desarrollo"].SubAreaCounts)

	_, err = f.areas.ClaimsByArea(ctx, uuid.NewString(), true)
	assertCode(t, err, apperrors.CodeNotFound)
}
