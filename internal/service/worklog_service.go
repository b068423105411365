package service

import (
	"context"
	"strings"

	"github.com/worklane/ticket-tracker/internal/domain"
	"github.com/worklane/ticket-tracker/internal/repository"
	"github.com/worklane/ticket-tracker/pkg/util/errorutil"
)

// WorkLogService records time entered by hand.
type WorkLogService struct {
	store repository.Store
	clock Clock
}

// WorkLogDependencies bundles work log collaborators.
type WorkLogDependencies struct {
	Store repository.Store
	Clock Clock
}

// WorkLogInput describes a manual entry.
type WorkLogInput struct {
	TicketID   string
	WorkTypeID *string
	Minutes    int
	Comment    string
}

// WorkLogListFilter narrows listings.
type WorkLogListFilter struct {
	TicketID *string
	ActorID  *string
	Limit    int
	Offset   int
}

// NewWorkLogService constructs the service.
func NewWorkLogService(deps WorkLogDependencies) *WorkLogService {
	return &WorkLogService{store: deps.Store, clock: clockOrDefault(deps.Clock)}
}

// LogWork records minutes spent by the actor on a ticket.
func (s *WorkLogService) LogWork(ctx context.Context, actorID string, input WorkLogInput) (*domain.WorkLog, error) {
	if input.Minutes < 0 {
		return nil, errorutil.NewValidationError("minutes must not be negative", map[string]any{"minutes": input.Minutes})
	}
	log := &domain.WorkLog{
		TicketID:   input.TicketID,
		ActorID:    actorID,
		WorkTypeID: input.WorkTypeID,
		Minutes:    input.Minutes,
		Comment:    strings.TrimSpace(input.Comment),
		CreatedAt:  s.clock(),
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Tickets.GetByID(ctx, log.TicketID); err != nil {
			return err
		}
		if log.WorkTypeID != nil {
			if _, err := repos.WorkTypes.GetByID(ctx, *log.WorkTypeID); err != nil {
				return err
			}
		}
		return repos.WorkLogs.Create(ctx, log)
	})
	if err != nil {
		return nil, err
	}
	return log, nil
}

// List returns work logs newest first.
func (s *WorkLogService) List(ctx context.Context, filter WorkLogListFilter) ([]domain.WorkLog, error) {
	return s.store.Repos().WorkLogs.Query(ctx, repository.WorkLogFilter{
		TicketID: filter.TicketID,
		ActorID:  filter.ActorID,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
}
