package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/worklane/ticket-tracker/internal/config"
	"github.com/worklane/ticket-tracker/internal/domain"
	"github.com/worklane/ticket-tracker/internal/events"
	"github.com/worklane/ticket-tracker/internal/observability"
	"github.com/worklane/ticket-tracker/internal/repository"
)

// UnreadCounter caches per-actor unread notification counts.
type UnreadCounter interface {
	GetUnread(ctx context.Context, actorID string) (int, bool, error)
	SetUnread(ctx context.Context, actorID string, count int) error
	InvalidateUnread(ctx context.Context, actorID string) error
}

// NotificationService turns domain events into notifications and serves the polling API.
type NotificationService struct {
	dispatcher    events.Dispatcher
	notifications repository.NotificationRepository
	counter       UnreadCounter
	clock         Clock
	logger        *zap.Logger
	metrics       *observability.Metrics
	cfg           config.NotificationConfig
}

// NotificationDependencies bundles notification collaborators. Counter is optional.
type NotificationDependencies struct {
	Dispatcher    events.Dispatcher
	Notifications repository.NotificationRepository
	Counter       UnreadCounter
	Clock         Clock
	Logger        *zap.Logger
	Metrics       *observability.Metrics
	Config        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher:    deps.Dispatcher,
		notifications: deps.Notifications,
		counter:       deps.Counter,
		clock:         clockOrDefault(deps.Clock),
		logger:        logger,
		metrics:       deps.Metrics,
		cfg:           deps.Config,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketUpdated, n.handleTicketUpdated)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok || payload.Ticket == nil {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	ticket := payload.Ticket
	if ticket.AssigneeID == nil || *ticket.AssigneeID == ticket.CreatorID {
		return nil
	}
	return n.notify(ctx, *ticket.AssigneeID, "New ticket assigned: "+ticket.Title, ticket.ID)
}

func (n *NotificationService) handleTicketUpdated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketUpdatedPayload)
	if !ok || payload.Before == nil || payload.After == nil {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	after := payload.After
	if after.AssigneeID == nil || domain.SameActor(payload.Before.AssigneeID, after.AssigneeID) {
		return nil
	}
	return n.notify(ctx, *after.AssigneeID, "You were assigned to ticket: "+after.Title, after.ID)
}

func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentAddedPayload)
	if !ok || payload.Ticket == nil || payload.Comment == nil {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	ticket := payload.Ticket
	if ticket.AssigneeID == nil || *ticket.AssigneeID == payload.Comment.AuthorID {
		return nil
	}
	return n.notify(ctx, *ticket.AssigneeID, "New comment on ticket: "+ticket.Title, ticket.ID)
}

func (n *NotificationService) notify(ctx context.Context, recipientID, message, ticketID string) error {
	link := n.ticketLink(ticketID)
	notification := &domain.Notification{
		RecipientID: recipientID,
		Message:     message,
		Link:        &link,
		CreatedAt:   n.clock(),
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		n.metrics.Inc(observability.CounterNotificationFailed)
		n.logger.Error("failed to write notification",
			zap.String("recipient_id", recipientID),
			zap.String("ticket_id", ticketID),
			zap.Error(err))
		return fmt.Errorf("notify %s: %w", recipientID, err)
	}
	n.metrics.Inc(observability.CounterNotificationCreated)
	n.invalidate(ctx, recipientID)
	return nil
}

func (n *NotificationService) ticketLink(ticketID string) string {
	return n.cfg.LinkBaseURL + "/tickets/" + ticketID
}

// List returns the actor's notifications, newest first.
func (n *NotificationService) List(ctx context.Context, actorID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	return n.notifications.Query(ctx, repository.NotificationFilter{
		RecipientID: actorID,
		UnreadOnly:  unreadOnly,
		Limit:       limit,
		Offset:      offset,
	})
}

// UnreadCount serves the count from the cache when present and repopulates it otherwise.
func (n *NotificationService) UnreadCount(ctx context.Context, actorID string) (int, error) {
	if n.counter != nil {
		count, ok, err := n.counter.GetUnread(ctx, actorID)
		if err != nil {
			n.logger.Warn("unread cache read failed", zap.String("actor_id", actorID), zap.Error(err))
		} else if ok {
			return count, nil
		}
	}

	count, err := n.notifications.CountUnread(ctx, actorID)
	if err != nil {
		return 0, err
	}
	if n.counter != nil {
		if err := n.counter.SetUnread(ctx, actorID, count); err != nil {
			n.logger.Warn("unread cache write failed", zap.String("actor_id", actorID), zap.Error(err))
		}
	}
	return count, nil
}

// MarkRead flags one of the actor's notifications as read.
func (n *NotificationService) MarkRead(ctx context.Context, actorID, notificationID string) error {
	if err := n.notifications.MarkRead(ctx, actorID, notificationID); err != nil {
		return err
	}
	n.invalidate(ctx, actorID)
	return nil
}

// MarkAllRead flags every unread notification of the actor and returns how many changed.
func (n *NotificationService) MarkAllRead(ctx context.Context, actorID string) (int64, error) {
	updated, err := n.notifications.MarkAllRead(ctx, actorID)
	if err != nil {
		return 0, err
	}
	n.invalidate(ctx, actorID)
	return updated, nil
}

func (n *NotificationService) invalidate(ctx context.Context, actorID string) {
	if n.counter == nil {
		return
	}
	if err := n.counter.InvalidateUnread(ctx, actorID); err != nil {
		n.logger.Warn("unread cache invalidation failed", zap.String("actor_id", actorID), zap.Error(err))
	}
}
