package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/worklane/ticket-tracker/internal/domain"
)

// WorkLogFilter narrows work log queries. Time bounds are [CreatedFrom, CreatedTo).
type WorkLogFilter struct {
	TicketID    *string
	ActorID     *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// WorkLogRepository persists work logs. There is no update path.
type WorkLogRepository interface {
	Create(ctx context.Context, log *domain.WorkLog) error
	GetByID(ctx context.Context, id string) (*domain.WorkLog, error)
	// Query returns logs newest first.
	Query(ctx context.Context, filter WorkLogFilter) ([]domain.WorkLog, error)
	SumMinutes(ctx context.Context, filter WorkLogFilter) (int, error)
}

var workLogColumns = []string{"id", "ticket_id", "actor_id", "work_type_id", "minutes", "comment", "created_at"}

type workLogRepository struct {
	db querier
}

func (r *workLogRepository) Create(ctx context.Context, log *domain.WorkLog) error {
	query, args, err := psql.
		Insert("work_logs").
		Columns("ticket_id", "actor_id", "work_type_id", "minutes", "comment", "created_at").
		Values(log.TicketID, log.ActorID, log.WorkTypeID, log.Minutes, log.Comment, log.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(&log.ID); err != nil {
		return mapError("work log", idDetails("ticket_id", log.TicketID), err)
	}
	return nil
}

func (r *workLogRepository) GetByID(ctx context.Context, id string) (*domain.WorkLog, error) {
	query, args, err := psql.Select(workLogColumns...).From("work_logs").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var log domain.WorkLog
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&log.ID, &log.TicketID, &log.ActorID, &log.WorkTypeID, &log.Minutes, &log.Comment, &log.CreatedAt,
	); err != nil {
		return nil, mapError("work log", idDetails("work_log_id", id), err)
	}
	return &log, nil
}

func (r *workLogRepository) Query(ctx context.Context, filter WorkLogFilter) ([]domain.WorkLog, error) {
	query, args, err := applyWorkLogFilter(psql.Select(workLogColumns...).From("work_logs"), filter).
		OrderBy("created_at DESC").
		Limit(pageLimit(filter.Limit)).
		Offset(pageOffset(filter.Offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("work log", nil, err)
	}
	defer rows.Close()

	var result []domain.WorkLog
	for rows.Next() {
		var log domain.WorkLog
		if err := rows.Scan(
			&log.ID, &log.TicketID, &log.ActorID, &log.WorkTypeID, &log.Minutes, &log.Comment, &log.CreatedAt,
		); err != nil {
			return nil, mapError("work log", nil, err)
		}
		result = append(result, log)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("work log", nil, err)
	}
	return result, nil
}

func (r *workLogRepository) SumMinutes(ctx context.Context, filter WorkLogFilter) (int, error) {
	query, args, err := applyWorkLogFilter(psql.Select("COALESCE(SUM(minutes), 0)").From("work_logs"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, mapError("work log", nil, err)
	}
	return total, nil
}

func applyWorkLogFilter(builder sq.SelectBuilder, filter WorkLogFilter) sq.SelectBuilder {
	if filter.TicketID != nil {
		builder = builder.Where(sq.Eq{"ticket_id": *filter.TicketID})
	}
	if filter.ActorID != nil {
		builder = builder.Where(sq.Eq{"actor_id": *filter.ActorID})
	}
	if filter.CreatedFrom != nil {
		builder = builder.Where(sq.GtOrEq{"created_at": *filter.CreatedFrom})
	}
	if filter.CreatedTo != nil {
		builder = builder.Where(sq.Lt{"created_at": *filter.CreatedTo})
	}
	return builder
}
