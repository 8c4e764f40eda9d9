package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/opsdesk/helpdesk/internal/config"
	"github.com/opsdesk/helpdesk/internal/events"
)

// NotificationService reacts to domain events by recording notification
// intents. Actual delivery (email, chat) hangs off these handlers.
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
	n.dispatcher.Subscribe(events.EventTicketCreated, n.notify("ticket created"))
	n.dispatcher.Subscribe(events.EventTicketReopened, n.notify("ticket reopened"))
	n.dispatcher.Subscribe(events.EventNoteAdded, n.notify("note added"))
}

func (n *NotificationService) notify(subject string) events.EventHandler {
	return func(_ context.Context, event events.Event) error {
		n.logger.Info("notification queued",
			zap.String("subject", subject),
			zap.String("ticket_id", event.TicketID),
			zap.String("actor", event.Actor.UserID),
			zap.String("from", n.cfg.EmailFrom),
		)
		return nil
	}
}
