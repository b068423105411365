package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/worklane/ticket-tracker/internal/domain"
	"github.com/worklane/ticket-tracker/internal/observability"
	"github.com/worklane/ticket-tracker/internal/repository"
	"github.com/worklane/ticket-tracker/pkg/util/errorutil"
)

// TimerService enforces one running timer per actor and turns stopped timers into work logs.
type TimerService struct {
	store   repository.Store
	locks   *keyedMutex
	clock   Clock
	logger  *zap.Logger
	metrics *observability.Metrics
}

// TimerDependencies bundles timer collaborators.
type TimerDependencies struct {
	Store   repository.Store
	Clock   Clock
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// TimerStopResult describes a stopped timer.
type TimerStopResult struct {
	TrackID        string
	ElapsedMinutes int
	WorkLog        *domain.WorkLog
}

// NewTimerService constructs the service.
func NewTimerService(deps TimerDependencies) *TimerService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimerService{
		store:   deps.Store,
		locks:   newKeyedMutex(),
		clock:   clockOrDefault(deps.Clock),
		logger:  logger,
		metrics: deps.Metrics,
	}
}

// StartTimer opens a timer for the actor on the ticket. It fails with CONFLICT while the actor has
// a running timer on any ticket and leaves that timer untouched.
func (s *TimerService) StartTimer(ctx context.Context, actorID, ticketID string, workTypeID *string) (*domain.TimeTrack, error) {
	unlock := s.locks.Lock(actorID)
	defer unlock()

	var track *domain.TimeTrack
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.TimeTracks.LockActor(ctx, actorID); err != nil {
			return err
		}
		if _, err := repos.Tickets.GetByID(ctx, ticketID); err != nil {
			return err
		}
		if workTypeID != nil {
			if _, err := repos.WorkTypes.GetByID(ctx, *workTypeID); err != nil {
				return err
			}
		}

		open, err := repos.TimeTracks.FindOpenByActor(ctx, actorID)
		switch {
		case err == nil:
			return errorutil.NewConflict("a timer is already running", map[string]any{
				"time_track_id": open.ID,
				"ticket_id":     open.TicketID,
			})
		case !errorutil.IsNotFound(err):
			return err
		}

		track = &domain.TimeTrack{
			TicketID:   ticketID,
			ActorID:    actorID,
			WorkTypeID: workTypeID,
			StartedAt:  s.clock(),
		}
		return repos.TimeTracks.Create(ctx, track)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Inc(observability.CounterTimerStarted)
	s.logger.Info("timer started",
		zap.String("actor_id", actorID),
		zap.String("ticket_id", ticketID),
		zap.String("time_track_id", track.ID))
	return track, nil
}

// StopTimer closes the actor's running timer on the ticket. Whole elapsed minutes are logged as
// work in the same unit of work; a timer stopped within its first minute logs nothing.
func (s *TimerService) StopTimer(ctx context.Context, actorID, ticketID string) (*TimerStopResult, error) {
	unlock := s.locks.Lock(actorID)
	defer unlock()

	result := &TimerStopResult{}
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.TimeTracks.LockActor(ctx, actorID); err != nil {
			return err
		}
		track, err := repos.TimeTracks.FindOpenByActorAndTicket(ctx, actorID, ticketID)
		if err != nil {
			if errorutil.IsNotFound(err) {
				return errorutil.NewNotFound("running timer", map[string]any{"ticket_id": ticketID})
			}
			return err
		}

		end := s.clock()
		if end.Before(track.StartedAt) {
			s.logger.Warn("timer stopped before it started; counting zero minutes",
				zap.String("time_track_id", track.ID),
				zap.Time("started_at", track.StartedAt),
				zap.Time("ended_at", end))
		}
		track.EndedAt = &end
		if err := repos.TimeTracks.Update(ctx, track); err != nil {
			return err
		}

		result.TrackID = track.ID
		result.ElapsedMinutes = domain.ElapsedMinutes(track.StartedAt, end)
		if result.ElapsedMinutes == 0 {
			return nil
		}

		log := &domain.WorkLog{
			TicketID:   track.TicketID,
			ActorID:    actorID,
			WorkTypeID: track.WorkTypeID,
			Minutes:    result.ElapsedMinutes,
			Comment:    domain.AutoTrackedComment,
			CreatedAt:  end,
		}
		if err := repos.WorkLogs.Create(ctx, log); err != nil {
			return err
		}
		result.WorkLog = log
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Inc(observability.CounterTimerStopped)
	if result.WorkLog != nil {
		s.metrics.Inc(observability.CounterWorkLogAuto)
	}
	s.logger.Info("timer stopped",
		zap.String("actor_id", actorID),
		zap.String("ticket_id", ticketID),
		zap.String("time_track_id", result.TrackID),
		zap.Int("elapsed_minutes", result.ElapsedMinutes))
	return result, nil
}

// ActiveTimer returns the actor's running timer or NOT_FOUND.
func (s *TimerService) ActiveTimer(ctx context.Context, actorID string) (*domain.TimeTrack, error) {
	return s.store.Repos().TimeTracks.FindOpenByActor(ctx, actorID)
}
