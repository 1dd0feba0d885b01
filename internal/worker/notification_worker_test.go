package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/claims-service/internal/config"
	"github.com/spec-kit/claims-service/internal/domain"
	"github.com/spec-kit/claims-service/internal/events"
)

func TestWorkerDeliversAuditNotifications(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher()
	StartNotificationWorker(dispatcher, zap.New(core), config.NotificationConfig{
		EmailFrom:  "claims@example.test",
		WebhookURL: "http://hooks.example.test",
	})

	event := events.FromAuditEvent(domain.AuditEvent{
		ID:         "evt-1",
		ClaimID:    "claim-1",
		ActionType: domain.ActionCreated,
		User:       "ana",
		CreatedAt:  time.Now(),
	})
	require.NoError(t, dispatcher.Publish(context.Background(), event))

	assert.Equal(t, 1, logs.FilterMessage("claim notification").Len())
	assert.Equal(t, 1, logs.FilterMessage("email notification queued").Len())
	assert.Equal(t, 1, logs.FilterMessage("webhook notification queued").Len())
}

func TestWorkerSkipsUnconfiguredChannels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher()
	StartNotificationWorker(dispatcher, zap.New(core), config.NotificationConfig{})

	event := events.FromAuditEvent(domain.AuditEvent{ClaimID: "claim-1", ActionType: domain.ActionClosed, User: "ana"})
	require.NoError(t, dispatcher.Publish(context.Background(), event))

	assert.Equal(t, 1, logs.FilterMessage("claim notification").Len())
	assert.Zero(t, logs.FilterMessage("email notification queued").Len())
	assert.Zero(t, logs.FilterMessage("webhook notification queued").Len())
}

func TestWorkerRoutesCommentsToEmailOnly(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher()
	StartNotificationWorker(dispatcher, zap.New(core), config.NotificationConfig{
		EmailFrom:  "claims@example.test",
		WebhookURL: "http://hooks.example.test",
	})

	event := events.FromAuditEvent(domain.AuditEvent{ClaimID: "claim-1", ActionType: domain.ActionCommented, User: "ana", ActionLabel: "Comentario agregado por ana"})
	require.NoError(t, dispatcher.Publish(context.Background(), event))

	notified := logs.FilterMessage("claim notification").All()
	require.Len(t, notified, 1)
	assert.Equal(t, "Comentario agregado por ana", notified[0].ContextMap()["label"])
	assert.Equal(t, 1, logs.FilterMessage("email notification queued").Len())
	assert.Zero(t, logs.FilterMessage("webhook notification queued").Len())
}

func TestWorkerWithoutDispatcher(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	assert.NotNil(t, StartNotificationWorker(nil, zap.New(core), config.NotificationConfig{}))
	assert.Equal(t, 1, logs.FilterMessage("notification worker disabled: no dispatcher").Len())
}
