package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/claims-service/internal/api/dto"
	"github.com/spec-kit/claims-service/internal/auth"
	"github.com/spec-kit/claims-service/internal/domain"
	"github.com/spec-kit/claims-service/internal/service"
	apperrors "github.com/spec-kit/claims-service/pkg/util/errorutil"
)

// TracingHandler exposes the audit trail.
type TracingHandler struct {
	service *service.TraceService
}

// NewTracingHandler constructs handler.
func NewTracingHandler(traceService *service.TraceService) *TracingHandler {
	return &TracingHandler{service: traceService}
}

// ClaimTrace GET /tracing/claim/:claimId.
func (h *TracingHandler) ClaimTrace(c *fiber.Ctx) error {
	trace, err := h.service.GetClaimTrace(c.UserContext(), c.Params("claimId"))
	if err != nil {
		return err
	}
	resp := dto.ClaimTraceResponse{
		Claim: dto.ClaimHeaderResponse{
			ID:        trace.Claim.ID,
			Title:     trace.Claim.Title,
			Status:    trace.Claim.Status,
			CreatedAt: trace.Claim.CreatedAt,
		},
		Timeline: make([]dto.TimelineEventResponse, 0, len(trace.Timeline)),
		Summary: dto.TraceSummaryResponse{
			TotalEvents:   trace.Summary.TotalEvents,
			StatusChanges: trace.Summary.StatusChanges,
			Assignments:   trace.Summary.Assignments,
			CurrentStatus: trace.Summary.CurrentStatus,
		},
	}
	for i := range trace.Timeline {
		resp.Timeline = append(resp.Timeline, timelineEventResponse(&trace.Timeline[i]))
	}
	if last := trace.Summary.LastAction; last != nil {
		item := timelineEventResponse(last)
		resp.Summary.LastAction = &item
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ClaimStats GET /tracing/claim/:claimId/stats.
func (h *TracingHandler) ClaimStats(c *fiber.Ctx) error {
	stats, err := h.service.GetTraceStats(c.UserContext(), c.Params("claimId"))
	if err != nil {
		return err
	}
	resp := dto.TraceStatsResponse{
		TotalEvents:         stats.TotalEvents,
		StatusChanges:       stats.StatusChanges,
		AssignmentCount:     stats.AssignmentCount,
		TimeInStatusMs:      make(map[domain.ClaimStatus]int64, len(stats.TimeInStatus)),
		FirstResponseTimeMs: millis(stats.FirstResponseTime),
		ResolutionTimeMs:    millis(stats.ResolutionTime),
	}
	for st, d := range stats.TimeInStatus {
		resp.TimeInStatusMs[st] = d.Milliseconds()
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Search GET /tracing/search.
func (h *TracingHandler) Search(c *fiber.Ctx) error {
	from, err := parseTime("from", c.Query("from"))
	if err != nil {
		return err
	}
	to, err := parseTime("to", c.Query("to"))
	if err != nil {
		return err
	}
	found, err := h.service.SearchEvents(c.UserContext(), service.EventFilter{
		ClaimID:    c.Query("claim_id"),
		ActionType: domain.ActionType(c.Query("action_type")),
		User:       c.Query("user"),
		AreaID:     c.Query("area_id"),
		From:       from,
		To:         to,
	})
	if err != nil {
		return err
	}
	items := make([]dto.AuditEventResponse, 0, len(found))
	for i := range found {
		items = append(items, auditEventResponse(&found[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// RecordEvent POST /tracing/event. The acting user comes from the request identity.
func (h *TracingHandler) RecordEvent(c *fiber.Ctx) error {
	var req dto.RecordEventRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	event, err := h.service.RecordEvent(c.UserContext(), service.EventInput{
		ClaimID:    req.ClaimID,
		ActionType: req.ActionType,
		User:       auth.ActorFromContext(c),
		OldValue:   req.OldValue,
		NewValue:   req.NewValue,
		AreaID:     req.AreaID,
		SubAreaID:  req.SubAreaID,
		Details:    req.Details,
		Metadata:   req.Metadata,
		Label:      req.ActionLabel,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": auditEventResponse(event)})
}

func parseTime(field, val string) (*time.Time, error) {
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid timestamp, expected RFC3339", map[string]any{"field": field, "value": val})
	}
	return &t, nil
}

func millis(d *time.Duration) *int64 {
	if d == nil {
		return nil
	}
	ms := d.Milliseconds()
	return &ms
}

func auditEventResponse(e *domain.AuditEvent) dto.AuditEventResponse {
	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return dto.AuditEventResponse{
		ID:          e.ID,
		ClaimID:     e.ClaimID,
		ActionType:  e.ActionType,
		ActionLabel: e.ActionLabel,
		User:        e.User,
		OldValue:    e.OldValue,
		NewValue:    e.NewValue,
		AreaID:      e.AreaID,
		SubAreaID:   e.SubAreaID,
		Details:     e.Details,
		Metadata:    metadata,
		CreatedAt:   e.CreatedAt,
	}
}

func timelineEventResponse(e *service.TimelineEvent) dto.TimelineEventResponse {
	return dto.TimelineEventResponse{
		AuditEventResponse: auditEventResponse(&e.AuditEvent),
		Area:               namedRefPtr(e.Area),
		SubArea:            namedRefPtr(e.SubArea),
	}
}
