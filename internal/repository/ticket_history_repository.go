package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/worklane/ticket-tracker/internal/domain"
)

// TicketHistoryRepository stores audit entries. Entries are append-only.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	// ListByTicket returns entries oldest first.
	ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	db querier
}

func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	query, args, err := psql.
		Insert("ticket_history").
		Columns("ticket_id", "actor_id", "action", "created_at").
		Values(history.TicketID, history.ActorID, history.Action, history.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(&history.ID); err != nil {
		return mapError("ticket history", idDetails("ticket_id", history.TicketID), err)
	}
	return nil
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	query, args, err := psql.
		Select("id", "ticket_id", "actor_id", "action", "created_at").
		From("ticket_history").
		Where(sq.Eq{"ticket_id": ticketID}).
		OrderBy("created_at ASC", "seq ASC").
		Limit(pageLimit(limit)).
		Offset(pageOffset(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("ticket history", nil, err)
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var history domain.TicketHistory
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.ActorID,
			&history.Action,
			&history.CreatedAt,
		); err != nil {
			return nil, mapError("ticket history", nil, err)
		}
		result = append(result, history)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("ticket history", nil, err)
	}
	return result, nil
}
