package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/worklane/ticket-tracker/internal/domain"
)

// ActorRepository manages accounts.
type ActorRepository interface {
	Create(ctx context.Context, actor *domain.Actor) error
	GetByID(ctx context.Context, id string) (*domain.Actor, error)
	GetByUsername(ctx context.Context, username string) (*domain.Actor, error)
	List(ctx context.Context, limit, offset int) ([]domain.Actor, error)
}

// ProfileRepository manages per-actor presentation data.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	GetByActorID(ctx context.Context, actorID string) (*domain.Profile, error)
	Update(ctx context.Context, profile *domain.Profile) error
}

var actorColumns = []string{"id", "username", "email", "first_name", "last_name", "password_hash", "role", "created_at"}

type actorRepository struct {
	db querier
}

func (r *actorRepository) Create(ctx context.Context, actor *domain.Actor) error {
	query, args, err := psql.
		Insert("actors").
		Columns("username", "email", "first_name", "last_name", "password_hash", "role", "created_at").
		Values(actor.Username, actor.Email, actor.FirstName, actor.LastName, actor.PasswordHash, actor.Role, actor.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(&actor.ID); err != nil {
		return mapError("actor", idDetails("username", actor.Username), err)
	}
	return nil
}

func (r *actorRepository) GetByID(ctx context.Context, id string) (*domain.Actor, error) {
	return r.findOne(ctx, sq.Eq{"id": id}, idDetails("actor_id", id))
}

func (r *actorRepository) GetByUsername(ctx context.Context, username string) (*domain.Actor, error) {
	return r.findOne(ctx, sq.Eq{"username": username}, idDetails("username", username))
}

func (r *actorRepository) findOne(ctx context.Context, where sq.Eq, details map[string]any) (*domain.Actor, error) {
	query, args, err := psql.Select(actorColumns...).From("actors").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	actor, err := scanActor(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError("actor", details, err)
	}
	return actor, nil
}

func (r *actorRepository) List(ctx context.Context, limit, offset int) ([]domain.Actor, error) {
	query, args, err := psql.
		Select(actorColumns...).
		From("actors").
		OrderBy("username").
		Limit(pageLimit(limit)).
		Offset(pageOffset(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("actor", nil, err)
	}
	defer rows.Close()

	var result []domain.Actor
	for rows.Next() {
		actor, err := scanActor(rows)
		if err != nil {
			return nil, mapError("actor", nil, err)
		}
		result = append(result, *actor)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("actor", nil, err)
	}
	return result, nil
}

func scanActor(row pgx.Row) (*domain.Actor, error) {
	var actor domain.Actor
	if err := row.Scan(
		&actor.ID,
		&actor.Username,
		&actor.Email,
		&actor.FirstName,
		&actor.LastName,
		&actor.PasswordHash,
		&actor.Role,
		&actor.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &actor, nil
}

type profileRepository struct {
	db querier
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	query, args, err := psql.
		Insert("profiles").
		Columns("actor_id", "avatar_url", "bio").
		Values(profile.ActorID, profile.AvatarURL, profile.Bio).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return mapError("profile", idDetails("actor_id", profile.ActorID), err)
	}
	return nil
}

func (r *profileRepository) GetByActorID(ctx context.Context, actorID string) (*domain.Profile, error) {
	query, args, err := psql.
		Select("actor_id", "avatar_url", "bio").
		From("profiles").
		Where(sq.Eq{"actor_id": actorID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var profile domain.Profile
	if err := r.db.QueryRow(ctx, query, args...).Scan(&profile.ActorID, &profile.AvatarURL, &profile.Bio); err != nil {
		return nil, mapError("profile", idDetails("actor_id", actorID), err)
	}
	return &profile, nil
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	query, args, err := psql.
		Update("profiles").
		Set("avatar_url", profile.AvatarURL).
		Set("bio", profile.Bio).
		Where(sq.Eq{"actor_id": profile.ActorID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapError("profile", idDetails("actor_id", profile.ActorID), err)
	}
	if cmd.RowsAffected() == 0 {
		return mapError("profile", idDetails("actor_id", profile.ActorID), pgx.ErrNoRows)
	}
	return nil
}
