package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/claims-service/internal/domain"
	"github.com/spec-kit/claims-service/internal/observability"
	"github.com/spec-kit/claims-service/internal/repository"
	"github.com/spec-kit/claims-service/internal/status"
	apperrors "github.com/spec-kit/claims-service/pkg/util/errorutil"
)

const (
	unassignedValue       = "Sin asignar"
	noSubAreaValue        = "Sin subárea"
	metaStatusChangedTo   = "statusChangedTo"
	metaStatusChangedFrom = "statusChangedFrom"
)

// AssignmentService routes claims to areas and sub-areas.
type AssignmentService struct {
	claims      repository.ClaimRepository
	areas       repository.AreaRepository
	assignments repository.AssignmentRepository
	names       AreaNameResolver
	audit       auditWriter
}

// AssignmentDependencies bundles collaborators for the assignment service.
type AssignmentDependencies struct {
	ClaimRepo      repository.ClaimRepository
	AreaRepo       repository.AreaRepository
	AssignmentRepo repository.AssignmentRepository
	Names          AreaNameResolver
	Recorder       EventRecorder
	Logger         *zap.Logger
	Metrics        *observability.Metrics
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	names := deps.Names
	if names == nil {
		names = NewRepositoryAreaNames(deps.AreaRepo)
	}
	return &AssignmentService{
		claims:      deps.ClaimRepo,
		areas:       deps.AreaRepo,
		assignments: deps.AssignmentRepo,
		names:       names,
		audit:       newAuditWriter(deps.Recorder, deps.Logger, deps.Metrics),
	}
}

// AssignInput routes a claim to an area and optional sub-area.
type AssignInput struct {
	ClaimID    string
	AreaID     string
	SubAreaID  *string
	AssignedBy string
	Notes      *string
}

// ReassignInput moves a claim to another sub-area of its current area.
type ReassignInput struct {
	ClaimID    string
	SubAreaID  string
	AssignedBy string
	Notes      *string
}

// AssignmentView is an assignment with its target names resolved.
type AssignmentView struct {
	domain.AreaAssignment
	Area    NamedRef
	SubArea *NamedRef
}

// UnassignResult describes the assignment that was retired.
type UnassignResult struct {
	Previous AssignmentView
}

// AssignToArea replaces the claim's current assignment and forces the claim
// into EN_PROCESO. It records ASSIGNED for a first assignment and REASSIGNED
// when one already existed.
func (s *AssignmentService) AssignToArea(ctx context.Context, input AssignInput) (*AssignmentView, error) {
	if err := requireID("claimId", input.ClaimID); err != nil {
		return nil, err
	}
	if err := requireID("areaId", input.AreaID); err != nil {
		return nil, err
	}
	subAreaID := trimmedPtr(input.SubAreaID)
	if err := requireOptionalID("subAreaId", subAreaID); err != nil {
		return nil, err
	}
	assignedBy := actorOrSystem(input.AssignedBy)

	claim, err := s.claims.GetByID(ctx, input.ClaimID)
	if err != nil {
		return nil, mapRepoError(err, "claim", map[string]any{"claimId": input.ClaimID})
	}
	area, err := s.areas.GetByID(ctx, input.AreaID)
	if err != nil {
		return nil, mapRepoError(err, "area", map[string]any{"areaId": input.AreaID})
	}
	if !area.IsActive {
		return nil, apperrors.NewConstraintViolation("area is inactive", map[string]any{"areaId": area.ID})
	}
	var subArea *domain.SubArea
	if subAreaID != nil {
		subArea, err = s.subAreaOf(ctx, *subAreaID, area.ID)
		if err != nil {
			return nil, err
		}
	}

	previous, err := s.current(ctx, claim.ID)
	if err != nil {
		return nil, err
	}
	action := status.ActionAssign
	if previous != nil {
		action = status.ActionReassign
	}
	if !status.CanPerformAction(claim.Status, action) {
		return nil, apperrors.NewActionNotAllowed(string(action), string(claim.Status))
	}

	assignment := &domain.AreaAssignment{
		ClaimID:    claim.ID,
		AreaID:     area.ID,
		SubAreaID:  subAreaID,
		AssignedBy: assignedBy,
		Notes:      trimmedPtr(input.Notes),
	}
	if err := s.assignments.ReplaceCurrent(ctx, assignment); err != nil {
		return nil, mapRepoError(err, "claim", map[string]any{"claimId": claim.ID})
	}

	// Routing means work has started.
	var statusErr error
	meta := metadata{}.setOptional("notes", assignment.Notes)
	if claim.Status != domain.ClaimStatusInProgress {
		if _, statusErr = s.claims.UpdateStatus(ctx, claim.ID, claim.Status, domain.ClaimStatusInProgress); statusErr == nil {
			meta.set(metaStatusChangedFrom, string(claim.Status))
			meta.set(metaStatusChangedTo, string(domain.ClaimStatusInProgress))
		}
	}

	view := &AssignmentView{
		AreaAssignment: *assignment,
		Area:           NamedRef{ID: area.ID, Name: area.Name},
	}
	if subArea != nil {
		view.SubArea = &NamedRef{ID: subArea.ID, Name: subArea.Name}
	}
	newValue := routeLabel(area.Name, subAreaName(subArea))

	event := EventInput{
		ClaimID:    claim.ID,
		ActionType: domain.ActionAssigned,
		User:       assignedBy,
		NewValue:   &newValue,
		AreaID:     &area.ID,
		SubAreaID:  subAreaID,
		Details:    fmt.Sprintf("Reclamo asignado al área: %s", area.Name),
		Metadata:   meta,
	}
	if previous != nil {
		prevArea, prevSub := s.namesOf(ctx, *previous)
		oldValue := routeLabel(prevArea, prevSub)
		event.ActionType = domain.ActionReassigned
		event.OldValue = &oldValue
		event.Details = fmt.Sprintf("Reclamo reasignado de %s a %s", oldValue, newValue)
		meta.set("previousAssignmentId", previous.ID)
	}
	s.audit.record(ctx, event)

	if statusErr != nil {
		return nil, mapRepoError(statusErr, "claim", map[string]any{"claimId": claim.ID})
	}
	return view, nil
}

// ReassignWithinArea moves the claim between sub-areas of its current area.
// Cross-area moves go through AssignToArea. Claim status is not changed.
func (s *AssignmentService) ReassignWithinArea(ctx context.Context, input ReassignInput) (*AssignmentView, error) {
	if err := requireID("claimId", input.ClaimID); err != nil {
		return nil, err
	}
	if err := requireID("subAreaId", input.SubAreaID); err != nil {
		return nil, err
	}
	assignedBy := actorOrSystem(input.AssignedBy)

	claim, err := s.claims.GetByID(ctx, input.ClaimID)
	if err != nil {
		return nil, mapRepoError(err, "claim", map[string]any{"claimId": input.ClaimID})
	}
	subArea, err := s.areas.GetSubArea(ctx, input.SubAreaID)
	if err != nil {
		return nil, mapRepoError(err, "sub-area", map[string]any{"subAreaId": input.SubAreaID})
	}
	area, err := s.areas.GetByID(ctx, subArea.AreaID)
	if err != nil {
		return nil, mapRepoError(err, "area", map[string]any{"areaId": subArea.AreaID})
	}

	current, err := s.current(ctx, claim.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperrors.NewConstraintViolation("claim has no current assignment", map[string]any{"claimId": claim.ID})
	}
	if current.AreaID != subArea.AreaID {
		return nil, apperrors.NewConstraintViolation("sub-area belongs to a different area than the current assignment", map[string]any{
			"currentAreaId": current.AreaID,
			"subAreaId":     subArea.ID,
			"subAreaAreaId": subArea.AreaID,
		})
	}
	if !status.CanPerformAction(claim.Status, status.ActionReassign) {
		return nil, apperrors.NewActionNotAllowed(string(status.ActionReassign), string(claim.Status))
	}

	assignment := &domain.AreaAssignment{
		ClaimID:    claim.ID,
		AreaID:     area.ID,
		SubAreaID:  &subArea.ID,
		AssignedBy: assignedBy,
		Notes:      trimmedPtr(input.Notes),
	}
	if err := s.assignments.ReplaceCurrent(ctx, assignment); err != nil {
		return nil, mapRepoError(err, "claim", map[string]any{"claimId": claim.ID})
	}

	prevArea, prevSub := s.namesOf(ctx, *current)
	if prevSub == "" {
		prevSub = noSubAreaValue
	}
	oldValue := prevArea + " - " + prevSub
	newValue := area.Name + " - " + subArea.Name
	s.audit.record(ctx, EventInput{
		ClaimID:    claim.ID,
		ActionType: domain.ActionReassigned,
		User:       assignedBy,
		OldValue:   &oldValue,
		NewValue:   &newValue,
		AreaID:     &area.ID,
		SubAreaID:  &subArea.ID,
		Details:    fmt.Sprintf("Reasignación interna dentro del área %s", area.Name),
		Metadata: metadata{}.
			setOptional("notes", assignment.Notes).
			setOptional("previousSubAreaId", current.SubAreaID).
			set("isInternalReassignment", true),
	})

	return &AssignmentView{
		AreaAssignment: *assignment,
		Area:           NamedRef{ID: area.ID, Name: area.Name},
		SubArea:        &NamedRef{ID: subArea.ID, Name: subArea.Name},
	}, nil
}

// Unassign retires the current assignment without a replacement.
func (s *AssignmentService) Unassign(ctx context.Context, claimID, unassignedBy string, reason *string) (*UnassignResult, error) {
	if err := requireID("claimId", claimID); err != nil {
		return nil, err
	}
	unassignedBy = actorOrSystem(unassignedBy)
	reason = trimmedPtr(reason)

	claim, err := s.claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, mapRepoError(err, "claim", map[string]any{"claimId": claimID})
	}
	current, err := s.current(ctx, claim.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperrors.NewConstraintViolation("claim has no current assignment", map[string]any{"claimId": claim.ID})
	}

	cleared, err := s.assignments.ClearCurrent(ctx, claim.ID)
	if err != nil {
		return nil, mapRepoError(err, "claim", map[string]any{"claimId": claim.ID})
	}
	if cleared == 0 {
		return nil, apperrors.NewConstraintViolation("claim has no current assignment", map[string]any{"claimId": claim.ID})
	}

	areaName, subName := s.namesOf(ctx, *current)
	oldValue := routeLabel(areaName, subName)
	newValue := unassignedValue
	s.audit.record(ctx, EventInput{
		ClaimID:    claim.ID,
		ActionType: domain.ActionReassigned,
		User:       unassignedBy,
		OldValue:   &oldValue,
		NewValue:   &newValue,
		Details:    derefOr(reason, "Reclamo desasignado del área"),
		Metadata: metadata{}.
			setOptional("reason", reason).
			set("previousAreaId", current.AreaID).
			setOptional("previousSubAreaId", current.SubAreaID).
			set("isUnassignment", true),
	})

	current.IsCurrent = false
	return &UnassignResult{Previous: s.view(ctx, *current)}, nil
}

// CurrentAssignment returns the claim's current assignment, or nil when the
// claim is not routed anywhere.
func (s *AssignmentService) CurrentAssignment(ctx context.Context, claimID string) (*AssignmentView, error) {
	if err := requireID("claimId", claimID); err != nil {
		return nil, err
	}
	if _, err := s.claims.GetByID(ctx, claimID); err != nil {
		return nil, mapRepoError(err, "claim", map[string]any{"claimId": claimID})
	}
	current, err := s.current(ctx, claimID)
	if err != nil || current == nil {
		return nil, err
	}
	view := s.view(ctx, *current)
	return &view, nil
}

// AssignmentHistory returns every assignment of the claim, newest first.
func (s *AssignmentService) AssignmentHistory(ctx context.Context, claimID string) ([]AssignmentView, error) {
	if err := requireID("claimId", claimID); err != nil {
		return nil, err
	}
	if _, err := s.claims.GetByID(ctx, claimID); err != nil {
		return nil, mapRepoError(err, "claim", map[string]any{"claimId": claimID})
	}
	history, err := s.assignments.ListByClaim(ctx, claimID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	views := make([]AssignmentView, 0, len(history))
	for _, a := range history {
		views = append(views, s.view(ctx, a))
	}
	return views, nil
}

func (s *AssignmentService) current(ctx context.Context, claimID string) (*domain.AreaAssignment, error) {
	current, err := s.assignments.GetCurrent(ctx, claimID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return current, nil
}

func (s *AssignmentService) subAreaOf(ctx context.Context, subAreaID, areaID string) (*domain.SubArea, error) {
	subArea, err := s.areas.GetSubArea(ctx, subAreaID)
	if err != nil {
		return nil, mapRepoError(err, "sub-area", map[string]any{"subAreaId": subAreaID})
	}
	if subArea.AreaID != areaID {
		return nil, apperrors.NewConstraintViolation("sub-area does not belong to area", map[string]any{
			"areaId":    areaID,
			"subAreaId": subAreaID,
		})
	}
	if !subArea.IsActive {
		return nil, apperrors.NewConstraintViolation("sub-area is inactive", map[string]any{"subAreaId": subAreaID})
	}
	return subArea, nil
}

// namesOf resolves display names for an existing assignment. A name that can
// no longer be resolved falls back to the id.
func (s *AssignmentService) namesOf(ctx context.Context, a domain.AreaAssignment) (string, string) {
	areaName, err := s.names.AreaName(ctx, a.AreaID)
	if err != nil {
		areaName = a.AreaID
	}
	if a.SubAreaID == nil {
		return areaName, ""
	}
	subName, err := s.names.SubAreaName(ctx, *a.SubAreaID)
	if err != nil {
		subName = *a.SubAreaID
	}
	return areaName, subName
}

func (s *AssignmentService) view(ctx context.Context, a domain.AreaAssignment) AssignmentView {
	areaName, subName := s.namesOf(ctx, a)
	view := AssignmentView{
		AreaAssignment: a,
		Area:           NamedRef{ID: a.AreaID, Name: areaName},
	}
	if a.SubAreaID != nil {
		view.SubArea = &NamedRef{ID: *a.SubAreaID, Name: subName}
	}
	return view
}

// routeLabel formats a routing target as "Area" or "Area - SubArea".
func routeLabel(area, subArea string) string {
	if strings.TrimSpace(subArea) == "" {
		return area
	}
	return area + " - " + subArea
}

func subAreaName(sub *domain.SubArea) string {
	if sub == nil {
		return ""
	}
	return sub.Name
}
