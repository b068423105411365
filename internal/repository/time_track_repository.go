package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/worklane/ticket-tracker/internal/domain"
)

// TimeTrackRepository persists tracking intervals.
type TimeTrackRepository interface {
	// LockActor serializes timer mutations of one actor until the unit of work ends.
	LockActor(ctx context.Context, actorID string) error
	Create(ctx context.Context, track *domain.TimeTrack) error
	Update(ctx context.Context, track *domain.TimeTrack) error
	GetByID(ctx context.Context, id string) (*domain.TimeTrack, error)
	// FindOpenByActor returns the actor's running timer on any ticket.
	FindOpenByActor(ctx context.Context, actorID string) (*domain.TimeTrack, error)
	FindOpenByActorAndTicket(ctx context.Context, actorID, ticketID string) (*domain.TimeTrack, error)
}

var timeTrackColumns = []string{"id", "ticket_id", "actor_id", "work_type_id", "started_at", "ended_at"}

type timeTrackRepository struct {
	db querier
}

func (r *timeTrackRepository) LockActor(ctx context.Context, actorID string) error {
	if _, err := r.db.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", actorID); err != nil {
		return mapError("time track lock", idDetails("actor_id", actorID), err)
	}
	return nil
}

func (r *timeTrackRepository) Create(ctx context.Context, track *domain.TimeTrack) error {
	query, args, err := psql.
		Insert("time_tracks").
		Columns("ticket_id", "actor_id", "work_type_id", "started_at", "ended_at").
		Values(track.TicketID, track.ActorID, track.WorkTypeID, track.StartedAt, track.EndedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(&track.ID); err != nil {
		return mapError("time track", idDetails("actor_id", track.ActorID), err)
	}
	return nil
}

func (r *timeTrackRepository) Update(ctx context.Context, track *domain.TimeTrack) error {
	query, args, err := psql.
		Update("time_tracks").
		Set("ended_at", track.EndedAt).
		Set("work_type_id", track.WorkTypeID).
		Where(sq.Eq{"id": track.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapError("time track", idDetails("time_track_id", track.ID), err)
	}
	if cmd.RowsAffected() == 0 {
		return mapError("time track", idDetails("time_track_id", track.ID), pgx.ErrNoRows)
	}
	return nil
}

func (r *timeTrackRepository) GetByID(ctx context.Context, id string) (*domain.TimeTrack, error) {
	return r.findOne(ctx, sq.Eq{"id": id}, idDetails("time_track_id", id))
}

func (r *timeTrackRepository) FindOpenByActor(ctx context.Context, actorID string) (*domain.TimeTrack, error) {
	return r.findOne(ctx, sq.Eq{"actor_id": actorID, "ended_at": nil}, idDetails("actor_id", actorID))
}

func (r *timeTrackRepository) FindOpenByActorAndTicket(ctx context.Context, actorID, ticketID string) (*domain.TimeTrack, error) {
	return r.findOne(ctx,
		sq.Eq{"actor_id": actorID, "ticket_id": ticketID, "ended_at": nil},
		map[string]any{"actor_id": actorID, "ticket_id": ticketID},
	)
}

func (r *timeTrackRepository) findOne(ctx context.Context, where sq.Eq, details map[string]any) (*domain.TimeTrack, error) {
	query, args, err := psql.
		Select(timeTrackColumns...).
		From("time_tracks").
		Where(where).
		OrderBy("started_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var track domain.TimeTrack
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&track.ID,
		&track.TicketID,
		&track.ActorID,
		&track.WorkTypeID,
		&track.StartedAt,
		&track.EndedAt,
	); err != nil {
		return nil, mapError("time track", details, err)
	}
	return &track, nil
}
