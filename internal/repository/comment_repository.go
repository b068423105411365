package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/worklane/ticket-tracker/internal/domain"
)

// CommentRepository manages ticket discussion messages.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error)
}

type commentRepository struct {
	db querier
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	query, args, err := psql.
		Insert("comments").
		Columns("ticket_id", "author_id", "text", "created_at").
		Values(comment.TicketID, comment.AuthorID, comment.Text, comment.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(&comment.ID); err != nil {
		return mapError("comment", idDetails("ticket_id", comment.TicketID), err)
	}
	return nil
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	query, args, err := psql.
		Select("id", "ticket_id", "author_id", "text", "created_at").
		From("comments").
		Where(sq.Eq{"ticket_id": ticketID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("comment", nil, err)
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.AuthorID,
			&comment.Text,
			&comment.CreatedAt,
		); err != nil {
			return nil, mapError("comment", nil, err)
		}
		result = append(result, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("comment", nil, err)
	}
	return result, nil
}
