package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/care-scheduling-service/internal/config"
	"github.com/spec-kit/care-scheduling-service/internal/events"
)

// NotificationService handles emitting notifications for appointment events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to appointment lifecycle events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.AppointmentScheduled, n.handleScheduled)
	n.dispatcher.Subscribe(events.AppointmentConfirmed, n.handleConfirmed)
	n.dispatcher.Subscribe(events.AppointmentCompleted, n.handleCompleted)
	n.dispatcher.Subscribe(events.AppointmentCanceled, n.handleCanceled)
	n.dispatcher.Subscribe(events.AppointmentRescheduled, n.handleRescheduled)
}

func (n *NotificationService) handleScheduled(ctx context.Context, event events.Event) error {
	n.logger.Info("AppointmentScheduled",
		zap.String("appointment_id", event.AppointmentID),
		zap.Time("scheduled_at", event.ScheduledAt))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleConfirmed(ctx context.Context, event events.Event) error {
	n.logger.Info("AppointmentConfirmed", zap.String("appointment_id", event.AppointmentID))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleCompleted(ctx context.Context, event events.Event) error {
	n.logger.Info("AppointmentCompleted", zap.String("appointment_id", event.AppointmentID))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleCanceled(ctx context.Context, event events.Event) error {
	n.logger.Info("AppointmentCanceled", zap.String("appointment_id", event.AppointmentID))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleRescheduled(ctx context.Context, event events.Event) error {
	n.logger.Info("AppointmentRescheduled",
		zap.String("appointment_id", event.AppointmentID),
		zap.Time("scheduled_at", event.ScheduledAt))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("appointment_id", event.AppointmentID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("appointment_id", event.AppointmentID),
		zap.String("event_type", string(event.Type)))
}
