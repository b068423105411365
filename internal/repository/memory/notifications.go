package memory

import (
	"context"
	"sort"

	"github.com/worklane/ticket-tracker/internal/domain"
	"github.com/worklane/ticket-tracker/internal/repository"
	"github.com/worklane/ticket-tracker/pkg/util/errorutil"
)

type notificationRepo struct{ v *view }

func (r *notificationRepo) Create(_ context.Context, notification *domain.Notification) error {
	return r.v.run("notifications.create", func(d *state) error {
		if _, ok := d.actors[notification.RecipientID]; !ok {
			return errorutil.NewNotFound("referenced record", map[string]any{"recipient_id": notification.RecipientID})
		}
		notification.ID = newID()
		d.notifications = append(d.notifications, cloneNotification(*notification))
		return nil
	})
}

func (r *notificationRepo) Query(_ context.Context, filter repository.NotificationFilter) ([]domain.Notification, error) {
	var out []domain.Notification
	err := r.v.run("notifications.query", func(d *state) error {
		var matched []domain.Notification
		for i := len(d.notifications) - 1; i >= 0; i-- {
			n := d.notifications[i]
			if n.RecipientID != filter.RecipientID || (filter.UnreadOnly && n.IsRead) {
				continue
			}
			matched = append(matched, cloneNotification(n))
		}
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
		out = window(matched, filter.Limit, filter.Offset)
		return nil
	})
	return out, err
}

func (r *notificationRepo) CountUnread(_ context.Context, recipientID string) (int, error) {
	var count int
	err := r.v.run("notifications.count_unread", func(d *state) error {
		for _, n := range d.notifications {
			if n.RecipientID == recipientID && !n.IsRead {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *notificationRepo) MarkRead(_ context.Context, recipientID, id string) error {
	return r.v.run("notifications.mark_read", func(d *state) error {
		for i := range d.notifications {
			if d.notifications[i].ID == id && d.notifications[i].RecipientID == recipientID {
				d.notifications[i].IsRead = true
				return nil
			}
		}
		return errorutil.NewNotFound("notification", map[string]any{"notification_id": id})
	})
}

func (r *notificationRepo) MarkAllRead(_ context.Context, recipientID string) (int64, error) {
	var updated int64
	err := r.v.run("notifications.mark_all_read", func(d *state) error {
		for i := range d.notifications {
			if d.notifications[i].RecipientID == recipientID && !d.notifications[i].IsRead {
				d.notifications[i].IsRead = true
				updated++
			}
		}
		return nil
	})
	return updated, err
}
