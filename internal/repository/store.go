package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Repositories bundles every record repository bound to one connection or transaction.
type Repositories struct {
	Actors        ActorRepository
	Profiles      ProfileRepository
	Projects      ProjectRepository
	WorkTypes     WorkTypeRepository
	Tags          TagRepository
	Tickets       TicketRepository
	Comments      CommentRepository
	TimeTracks    TimeTrackRepository
	WorkLogs      WorkLogRepository
	History       TicketHistoryRepository
	Notifications NotificationRepository
}

// Store is the record store consumed by services.
type Store interface {
	// Repos returns repositories that run each call on its own.
	Repos() Repositories
	// WithinTx runs fn as one unit of work. Any error returned by fn discards every write made through
	// the repositories handed to it.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore returns a Store backed by a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool, logger *zap.Logger) Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresStore{pool: pool, logger: logger}
}

func (s *postgresStore) Repos() Repositories {
	return bindRepositories(s.pool)
}

func (s *postgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return mapError("transaction", nil, fmt.Errorf("begin transaction: %w", err))
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Error("failed to rollback transaction", zap.Error(err))
		}
	}()

	if err := fn(ctx, bindRepositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError("transaction", nil, fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func bindRepositories(q querier) Repositories {
	return Repositories{
		Actors:        &actorRepository{db: q},
		Profiles:      &profileRepository{db: q},
		Projects:      &projectRepository{db: q},
		WorkTypes:     &workTypeRepository{db: q},
		Tags:          &tagRepository{db: q},
		Tickets:       &ticketRepository{db: q},
		Comments:      &commentRepository{db: q},
		TimeTracks:    &timeTrackRepository{db: q},
		WorkLogs:      &workLogRepository{db: q},
		History:       &ticketHistoryRepository{db: q},
		Notifications: &notificationRepository{db: q},
	}
}
