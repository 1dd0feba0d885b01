package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/claims-service/internal/domain"
	"github.com/spec-kit/claims-service/internal/observability"
)

// EventInput describes an audit event to record. Label is synthesized when
// empty and User defaults to "system".
type EventInput struct {
	ClaimID    string
	ActionType domain.ActionType
	User       string
	OldValue   *string
	NewValue   *string
	AreaID     *string
	SubAreaID  *string
	Details    string
	Metadata   map[string]any
	Label      string
}

// EventRecorder appends audit events. Lifecycle services depend on this
// interface only, so a queued writer can replace TraceService as long as it
// keeps per-claim order.
type EventRecorder interface {
	RecordEvent(ctx context.Context, input EventInput) (*domain.AuditEvent, error)
}

// auditWriter records the event describing a mutation that has already
// committed. A failed write is logged at error level and counted, never
// returned: the business change is not rolled back for a missing audit row.
type auditWriter struct {
	recorder EventRecorder
	logger   *zap.Logger
	metrics  *observability.Metrics
}

func newAuditWriter(recorder EventRecorder, logger *zap.Logger, metrics *observability.Metrics) auditWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return auditWriter{recorder: recorder, logger: logger, metrics: metrics}
}

func (w auditWriter) record(ctx context.Context, input EventInput) {
	if w.recorder == nil {
		return
	}
	if _, err := w.recorder.RecordEvent(ctx, input); err != nil {
		w.logger.Error("audit event not recorded",
			zap.String("claim_id", input.ClaimID),
			zap.String("action_type", string(input.ActionType)),
			zap.String("user", input.User),
			zap.Error(err))
		w.metrics.RecordAuditFailure(string(input.ActionType))
	}
}
