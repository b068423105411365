package repository

//go:generate mockgen -source=notification_repository.go -destination=mock/notification_repository.go -package=mock

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/worklane/ticket-tracker/internal/domain"
)

// NotificationFilter narrows a recipient's notification list.
type NotificationFilter struct {
	RecipientID string
	UnreadOnly  bool
	Limit       int
	Offset      int
}

// NotificationRepository persists polled notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	// Query returns notifications newest first.
	Query(ctx context.Context, filter NotificationFilter) ([]domain.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	// MarkRead flags one notification as read. Notifications of other recipients are reported as missing.
	MarkRead(ctx context.Context, recipientID, id string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}

var notificationColumns = []string{"id", "recipient_id", "message", "link", "is_read", "created_at"}

type notificationRepository struct {
	db querier
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	query, args, err := psql.
		Insert("notifications").
		Columns("recipient_id", "message", "link", "is_read", "created_at").
		Values(notification.RecipientID, notification.Message, notification.Link, notification.IsRead, notification.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(&notification.ID); err != nil {
		return mapError("notification", idDetails("recipient_id", notification.RecipientID), err)
	}
	return nil
}

func (r *notificationRepository) Query(ctx context.Context, filter NotificationFilter) ([]domain.Notification, error) {
	builder := psql.
		Select(notificationColumns...).
		From("notifications").
		Where(sq.Eq{"recipient_id": filter.RecipientID})
	if filter.UnreadOnly {
		builder = builder.Where(sq.Eq{"is_read": false})
	}
	query, args, err := builder.
		OrderBy("created_at DESC", "id").
		Limit(pageLimit(filter.Limit)).
		Offset(pageOffset(filter.Offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("notification", nil, err)
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Message, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, mapError("notification", nil, err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("notification", nil, err)
	}
	return result, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("notifications").
		Where(sq.Eq{"recipient_id": recipientID, "is_read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, mapError("notification", nil, err)
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, recipientID, id string) error {
	query, args, err := psql.
		Update("notifications").
		Set("is_read", true).
		Where(sq.Eq{"id": id, "recipient_id": recipientID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapError("notification", idDetails("notification_id", id), err)
	}
	if cmd.RowsAffected() == 0 {
		return mapError("notification", idDetails("notification_id", id), pgx.ErrNoRows)
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	query, args, err := psql.
		Update("notifications").
		Set("is_read", true).
		Where(sq.Eq{"recipient_id": recipientID, "is_read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapError("notification", nil, err)
	}
	return cmd.RowsAffected(), nil
}
