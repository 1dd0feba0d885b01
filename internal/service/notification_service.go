package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/claims-service/internal/config"
	"github.com/spec-kit/claims-service/internal/events"
)

type channel uint8

const (
	channelEmail channel = 1 << iota
	channelWebhook
)

// notificationRoutes decides which channels hear about each claim event.
var notificationRoutes = map[events.EventType]channel{
	events.EventClaimCreated:       channelEmail | channelWebhook,
	events.EventClaimStatusChanged: channelWebhook,
	events.EventClaimRouted:        channelWebhook,
	events.EventClaimCommented:     channelEmail,
	events.EventClaimFileAttached:  channelWebhook,
	events.EventClaimFieldChanged:  channelWebhook,
	events.EventClaimClosed:        channelEmail | channelWebhook,
}

// NotificationService turns recorded audit events into outbound
// notifications. Delivery is stubbed: each send is a debug log line.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to every routed event type.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for eventType := range notificationRoutes {
		n.dispatcher.Subscribe(eventType, n.handle)
	}
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_type", string(event.Type)),
		zap.String("claim_id", event.ClaimID),
		zap.String("actor", event.Actor),
	}
	if payload, ok := event.Payload.(events.AuditRecordedPayload); ok {
		fields = append(fields, zap.String("action", string(payload.ActionType)), zap.String("label", payload.ActionLabel))
	}
	n.logger.Info("claim notification", fields...)

	route := notificationRoutes[event.Type]
	if route&channelEmail != 0 {
		n.sendEmail(ctx, event)
	}
	if route&channelWebhook != 0 {
		n.sendWebhook(ctx, event)
	}
	return nil
}

func (n *NotificationService) sendEmail(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("email notification queued",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("claim_id", event.ClaimID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhook(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("webhook notification queued",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("claim_id", event.ClaimID),
		zap.String("event_type", string(event.Type)))
}
