package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/claims-service/internal/domain"
	"github.com/spec-kit/claims-service/internal/events"
	"github.com/spec-kit/claims-service/internal/repository"
	"github.com/spec-kit/claims-service/internal/status"
	apperrors "github.com/spec-kit/claims-service/pkg/util/errorutil"
)

const defaultSearchLimit = 100

// AreaNameResolver looks up display names for routing targets.
type AreaNameResolver interface {
	AreaName(ctx context.Context, id string) (string, error)
	SubAreaName(ctx context.Context, id string) (string, error)
}

// TraceService owns the audit trail: recording, reconstruction and timing stats.
type TraceService struct {
	claims      repository.ClaimRepository
	events      repository.AuditEventRepository
	names       AreaNameResolver
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	searchLimit int
}

// TraceDependencies bundles collaborators for the trace service.
type TraceDependencies struct {
	ClaimRepo   repository.ClaimRepository
	EventRepo   repository.AuditEventRepository
	Names       AreaNameResolver
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	SearchLimit int
}

// NewTraceService constructs the service.
func NewTraceService(deps TraceDependencies) *TraceService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := deps.SearchLimit
	if limit <= 0 || limit > defaultSearchLimit {
		limit = defaultSearchLimit
	}
	return &TraceService{
		claims:      deps.ClaimRepo,
		events:      deps.EventRepo,
		names:       deps.Names,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		searchLimit: limit,
	}
}

// NamedRef is an id with its resolved display name.
type NamedRef struct {
	ID   string
	Name string
}

// ClaimHeader identifies the claim a trace belongs to.
type ClaimHeader struct {
	ID        string
	Title     string
	Status    domain.ClaimStatus
	CreatedAt time.Time
}

// TimelineEvent is an audit event enriched with area names.
type TimelineEvent struct {
	domain.AuditEvent
	Area    *NamedRef
	SubArea *NamedRef
}

// TraceSummary aggregates a timeline.
type TraceSummary struct {
	TotalEvents   int
	StatusChanges int
	Assignments   int
	CurrentStatus domain.ClaimStatus
	LastAction    *TimelineEvent
}

// ClaimTrace is the full history of one claim.
type ClaimTrace struct {
	Claim    ClaimHeader
	Timeline []TimelineEvent
	Summary  TraceSummary
}

// TraceStats holds timing metrics derived from a claim's events.
// FirstResponseTime and ResolutionTime are nil when the milestone never happened.
type TraceStats struct {
	TotalEvents       int
	StatusChanges     int
	AssignmentCount   int
	TimeInStatus      map[domain.ClaimStatus]time.Duration
	FirstResponseTime *time.Duration
	ResolutionTime    *time.Duration
}

// EventFilter narrows SearchEvents. Zero values are ignored.
type EventFilter struct {
	ClaimID    string
	ActionType domain.ActionType
	User       string
	AreaID     string
	From       *time.Time
	To         *time.Time
}

// RecordEvent validates and appends one audit event, then publishes it.
func (s *TraceService) RecordEvent(ctx context.Context, input EventInput) (*domain.AuditEvent, error) {
	if err := requireID("claimId", input.ClaimID); err != nil {
		return nil, err
	}
	if !input.ActionType.Valid() {
		return nil, apperrors.NewValidationError("unknown action type", map[string]any{"actionType": input.ActionType})
	}
	if _, err := s.claims.GetByID(ctx, input.ClaimID); err != nil {
		return nil, mapRepoError(err, "claim", map[string]any{"claimId": input.ClaimID})
	}
	if err := requireOptionalID("areaId", input.AreaID); err != nil {
		return nil, err
	}
	if err := requireOptionalID("subAreaId", input.SubAreaID); err != nil {
		return nil, err
	}

	input.User = actorOrSystem(input.User)
	label := strings.TrimSpace(input.Label)
	if label == "" {
		label = actionLabel(input)
	}

	event := &domain.AuditEvent{
		ClaimID:     input.ClaimID,
		ActionType:  input.ActionType,
		ActionLabel: label,
		User:        input.User,
		OldValue:    input.OldValue,
		NewValue:    input.NewValue,
		AreaID:      input.AreaID,
		SubAreaID:   input.SubAreaID,
		Details:     input.Details,
		Metadata:    input.Metadata,
	}
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, mapRepoError(err, "audit event", nil)
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.Publish(ctx, events.FromAuditEvent(*event)); err != nil {
			s.logger.Warn("audit notification failed", zap.String("event_id", event.ID), zap.Error(err))
		}
	}
	return event, nil
}

// GetClaimTrace returns the claim's events oldest first with area names resolved.
func (s *TraceService) GetClaimTrace(ctx context.Context, claimID string) (*ClaimTrace, error) {
	claim, history, err := s.loadHistory(ctx, claimID)
	if err != nil {
		return nil, err
	}

	timeline, err := s.enrich(ctx, history)
	if err != nil {
		return nil, err
	}

	summary := TraceSummary{
		TotalEvents:   len(timeline),
		CurrentStatus: claim.Status,
	}
	for _, e := range timeline {
		switch e.ActionType {
		case domain.ActionStatusChanged:
			summary.StatusChanges++
		case domain.ActionAssigned, domain.ActionReassigned:
			summary.Assignments++
		}
	}
	if len(timeline) > 0 {
		last := timeline[len(timeline)-1]
		summary.LastAction = &last
	}

	return &ClaimTrace{
		Claim: ClaimHeader{
			ID:        claim.ID,
			Title:     claim.Title,
			Status:    claim.Status,
			CreatedAt: claim.CreatedAt,
		},
		Timeline: timeline,
		Summary:  summary,
	}, nil
}

// GetTraceStats derives timing metrics. Time in a status is measured from the
// event that entered it to the event that left it, the first status starting
// at claim creation. The status the claim is still in is not reported.
func (s *TraceService) GetTraceStats(ctx context.Context, claimID string) (*TraceStats, error) {
	claim, history, err := s.loadHistory(ctx, claimID)
	if err != nil {
		return nil, err
	}

	stats := &TraceStats{
		TotalEvents:  len(history),
		TimeInStatus: make(map[domain.ClaimStatus]time.Duration),
	}

	current := domain.ClaimStatusOpen
	enteredAt := claim.CreatedAt
	for _, e := range history {
		switch e.ActionType {
		case domain.ActionStatusChanged:
			stats.StatusChanges++
		case domain.ActionAssigned, domain.ActionReassigned:
			stats.AssignmentCount++
		}

		if e.ActionType == domain.ActionAssigned && stats.FirstResponseTime == nil {
			d := e.CreatedAt.Sub(claim.CreatedAt)
			stats.FirstResponseTime = &d
		}

		next, ok := statusEntered(e)
		if !ok {
			continue
		}
		if stats.ResolutionTime == nil && (e.ActionType == domain.ActionResolved || next == domain.ClaimStatusResolved) {
			d := e.CreatedAt.Sub(claim.CreatedAt)
			stats.ResolutionTime = &d
		}
		if next == current {
			continue
		}
		stats.TimeInStatus[current] += e.CreatedAt.Sub(enteredAt)
		current = next
		enteredAt = e.CreatedAt
	}
	return stats, nil
}

// SearchEvents returns matching events newest first, at most the configured
// page size. There is no offset; callers page by narrowing the time range.
func (s *TraceService) SearchEvents(ctx context.Context, filter EventFilter) ([]domain.AuditEvent, error) {
	repoFilter := repository.AuditEventFilter{
		CreatedFrom: filter.From,
		CreatedTo:   filter.To,
		Limit:       s.searchLimit,
	}
	if filter.ClaimID != "" {
		if err := requireID("claimId", filter.ClaimID); err != nil {
			return nil, err
		}
		repoFilter.ClaimID = &filter.ClaimID
	}
	if filter.AreaID != "" {
		if err := requireID("areaId", filter.AreaID); err != nil {
			return nil, err
		}
		repoFilter.AreaID = &filter.AreaID
	}
	if filter.ActionType != "" {
		if !filter.ActionType.Valid() {
			return nil, apperrors.NewValidationError("unknown action type", map[string]any{"actionType": filter.ActionType})
		}
		repoFilter.ActionType = &filter.ActionType
	}
	if u := strings.TrimSpace(filter.User); u != "" {
		repoFilter.User = &u
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, apperrors.NewValidationError("from must not be after to", nil)
	}

	found, err := s.events.Search(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if found == nil {
		found = []domain.AuditEvent{}
	}
	return found, nil
}

func (s *TraceService) loadHistory(ctx context.Context, claimID string) (*domain.Claim, []domain.AuditEvent, error) {
	if err := requireID("claimId", claimID); err != nil {
		return nil, nil, err
	}
	claim, err := s.claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, nil, mapRepoError(err, "claim", map[string]any{"claimId": claimID})
	}
	history, err := s.events.ListByClaim(ctx, claimID)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	return claim, history, nil
}

func (s *TraceService) enrich(ctx context.Context, history []domain.AuditEvent) ([]TimelineEvent, error) {
	areaNames := map[string]*NamedRef{}
	subAreaNames := map[string]*NamedRef{}

	resolve := func(cache map[string]*NamedRef, id string, lookup func(context.Context, string) (string, error)) (*NamedRef, error) {
		if ref, ok := cache[id]; ok {
			return ref, nil
		}
		name, err := lookup(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			cache[id] = nil
			return nil, nil
		}
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		ref := &NamedRef{ID: id, Name: name}
		cache[id] = ref
		return ref, nil
	}

	timeline := make([]TimelineEvent, 0, len(history))
	for _, e := range history {
		item := TimelineEvent{AuditEvent: e}
		if s.names != nil && e.AreaID != nil {
			ref, err := resolve(areaNames, *e.AreaID, s.names.AreaName)
			if err != nil {
				return nil, err
			}
			item.Area = ref
		}
		if s.names != nil && e.SubAreaID != nil {
			ref, err := resolve(subAreaNames, *e.SubAreaID, s.names.SubAreaName)
			if err != nil {
				return nil, err
			}
			item.SubArea = ref
		}
		timeline = append(timeline, item)
	}
	return timeline, nil
}

// statusEntered reports the status an event moved the claim into. Assignment
// events carry it in metadata because routing forces EN_PROCESO without a
// separate STATUS_CHANGED entry.
func statusEntered(e domain.AuditEvent) (domain.ClaimStatus, bool) {
	switch e.ActionType {
	case domain.ActionStatusChanged:
		if e.NewValue == nil {
			return "", false
		}
		return status.Parse(*e.NewValue)
	case domain.ActionAssigned, domain.ActionReassigned:
		raw, ok := e.Metadata[metaStatusChangedTo].(string)
		if !ok {
			return "", false
		}
		return status.Parse(raw)
	case domain.ActionResolved:
		return domain.ClaimStatusResolved, true
	}
	return "", false
}

func actionLabel(in EventInput) string {
	oldValue := derefOr(in.OldValue, "")
	newValue := derefOr(in.NewValue, "")
	switch in.ActionType {
	case domain.ActionCreated:
		return fmt.Sprintf("Reclamo creado por %s", in.User)
	case domain.ActionAssigned:
		return fmt.Sprintf("Asignado a %s por %s", newValue, in.User)
	case domain.ActionReassigned:
		return fmt.Sprintf("Reasignado de %s a %s por %s", oldValue, newValue, in.User)
	case domain.ActionStatusChanged:
		return fmt.Sprintf("Estado cambiado de %s a %s por %s", oldValue, newValue, in.User)
	case domain.ActionCommented:
		return fmt.Sprintf("Comentario agregado por %s", in.User)
	case domain.ActionFileAttached:
		return fmt.Sprintf("Archivo adjuntado por %s", in.User)
	case domain.ActionResolved:
		return fmt.Sprintf("Resuelto por %s", in.User)
	case domain.ActionReopened:
		return fmt.Sprintf("Reabierto por %s", in.User)
	case domain.ActionPriorityChanged:
		return fmt.Sprintf("Prioridad cambiada de %s a %s por %s", oldValue, newValue, in.User)
	case domain.ActionSeverityChanged:
		return fmt.Sprintf("Criticidad cambiada de %s a %s por %s", oldValue, newValue, in.User)
	case domain.ActionClosed:
		return fmt.Sprintf("Cerrado por %s", in.User)
	default:
		return fmt.Sprintf("Acción %s realizada por %s", in.ActionType, in.User)
	}
}
