package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/benefits-desk/internal/config"
	"github.com/spec-kit/benefits-desk/internal/events"
)

// NotificationService handles emitting notifications for domain events.
// Delivery itself is stubbed; the surrounding platform owns real dispatch.
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

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleEmailWorthy)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleEmailWorthy)
	n.dispatcher.Subscribe(events.EventEscalated, n.handleEmailWorthy)
	n.dispatcher.Subscribe(events.EventAny, n.handleWebhook)
}

func (n *NotificationService) handleEmailWorthy(ctx context.Context, event events.Event) error {
	n.logger.Info("notification", zap.String("event_type", string(event.Type)), zap.String("ticket_id", event.TicketID))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleWebhook(ctx context.Context, event events.Event) error {
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
