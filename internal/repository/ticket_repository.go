package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/worklane/ticket-tracker/internal/domain"
)

// TicketFilter captures ticket search parameters.
type TicketFilter struct {
	ProjectID   *string
	StageID     *string
	AssigneeID  *string
	CreatorID   *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	SearchTerm  *string
	UpdatedFrom *time.Time // inclusive
	UpdatedTo   *time.Time // exclusive
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update persists every mutable field. The creator is never written.
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetByIDForUpdate locks the row for the rest of the unit of work.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	Query(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int, error)
}

var ticketColumns = []string{
	"id", "project_id", "stage_id", "creator_id", "assignee_id", "title", "description",
	"status", "priority", "tags", "start_date", "due_date", "created_at", "updated_at",
}

type ticketRepository struct {
	db querier
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	query, args, err := psql.
		Insert("tickets").
		Columns("project_id", "stage_id", "creator_id", "assignee_id", "title", "description",
			"status", "priority", "tags", "start_date", "due_date", "created_at", "updated_at").
		Values(ticket.ProjectID, ticket.StageID, ticket.CreatorID, ticket.AssigneeID, ticket.Title,
			ticket.Description, ticket.Status, ticket.Priority, nonNilTags(ticket.Tags),
			ticket.StartDate, ticket.DueDate, ticket.CreatedAt, ticket.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(&ticket.ID); err != nil {
		return mapError("ticket", nil, err)
	}
	return nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	query, args, err := psql.
		Update("tickets").
		SetMap(map[string]any{
			"stage_id":    ticket.StageID,
			"assignee_id": ticket.AssigneeID,
			"title":       ticket.Title,
			"description": ticket.Description,
			"status":      ticket.Status,
			"priority":    ticket.Priority,
			"tags":        nonNilTags(ticket.Tags),
			"start_date":  ticket.StartDate,
			"due_date":    ticket.DueDate,
			"updated_at":  ticket.UpdatedAt,
		}).
		Where(sq.Eq{"id": ticket.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapError("ticket", idDetails("ticket_id", ticket.ID), err)
	}
	if cmd.RowsAffected() == 0 {
		return mapError("ticket", idDetails("ticket_id", ticket.ID), pgx.ErrNoRows)
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, id, "")
}

func (r *ticketRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, id, "FOR UPDATE")
}

func (r *ticketRepository) fetchSingle(ctx context.Context, id, suffix string) (*domain.Ticket, error) {
	builder := psql.Select(ticketColumns...).From("tickets").Where(sq.Eq{"id": id})
	if suffix != "" {
		builder = builder.Suffix(suffix)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError("ticket", idDetails("ticket_id", id), err)
	}
	return ticket, nil
}

func (r *ticketRepository) Query(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	query, args, err := applyTicketFilter(psql.Select(ticketColumns...).From("tickets"), filter).
		OrderBy("updated_at DESC", "id").
		Limit(pageLimit(filter.Limit)).
		Offset(pageOffset(filter.Offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("ticket", nil, err)
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, mapError("ticket", nil, err)
		}
		result = append(result, *ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("ticket", nil, err)
	}
	return result, nil
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int, error) {
	query, args, err := applyTicketFilter(psql.Select("COUNT(*)").From("tickets"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, mapError("ticket", nil, err)
	}
	return count, nil
}

func applyTicketFilter(builder sq.SelectBuilder, filter TicketFilter) sq.SelectBuilder {
	if filter.ProjectID != nil {
		builder = builder.Where(sq.Eq{"project_id": *filter.ProjectID})
	}
	if filter.StageID != nil {
		builder = builder.Where(sq.Eq{"stage_id": *filter.StageID})
	}
	if filter.AssigneeID != nil {
		builder = builder.Where(sq.Eq{"assignee_id": *filter.AssigneeID})
	}
	if filter.CreatorID != nil {
		builder = builder.Where(sq.Eq{"creator_id": *filter.CreatorID})
	}
	if len(filter.Statuses) > 0 {
		builder = builder.Where(sq.Eq{"status": filter.Statuses})
	}
	if len(filter.Priorities) > 0 {
		builder = builder.Where(sq.Eq{"priority": filter.Priorities})
	}
	if filter.UpdatedFrom != nil {
		builder = builder.Where(sq.GtOrEq{"updated_at": *filter.UpdatedFrom})
	}
	if filter.UpdatedTo != nil {
		builder = builder.Where(sq.Lt{"updated_at": *filter.UpdatedTo})
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		builder = builder.Where(sq.Or{
			sq.Like{"LOWER(title)": search},
			sq.Like{"LOWER(description)": search},
		})
	}
	return builder
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.ProjectID,
		&ticket.StageID,
		&ticket.CreatorID,
		&ticket.AssigneeID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Tags,
		&ticket.StartDate,
		&ticket.DueDate,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
