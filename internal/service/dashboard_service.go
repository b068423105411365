package service

import (
	"context"

	"github.com/worklane/ticket-tracker/internal/domain"
	"github.com/worklane/ticket-tracker/internal/repository"
	"github.com/worklane/ticket-tracker/pkg/util/errorutil"
)

const recentLogsLimit = 10

// DashboardService computes per-request aggregates. Nothing is cached.
type DashboardService struct {
	store repository.Store
	clock Clock
}

// DashboardDependencies bundles dashboard collaborators.
type DashboardDependencies struct {
	Store repository.Store
	Clock Clock
}

// DashboardStats is the dashboard payload for one actor.
type DashboardStats struct {
	AssignedTickets         []domain.Ticket
	AssignedCount           int
	MyMinutesToday          int
	TotalMinutesToday       int
	MyCompletedThisMonth    int
	TotalCompletedThisMonth int
	TotalProjects           int
	RecentLogs              []domain.WorkLog
	ActiveTimer             *domain.TimeTrack
}

// NewDashboardService constructs the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	return &DashboardService{store: deps.Store, clock: clockOrDefault(deps.Clock)}
}

// Dashboard evaluates "today" and "this month" against the clock at call time.
func (s *DashboardService) Dashboard(ctx context.Context, actorID string) (*DashboardStats, error) {
	repos := s.store.Repos()
	now := s.clock()
	dayStart, dayEnd := dayWindow(now)
	monthStart, monthEnd := monthWindow(now)
	stats := &DashboardStats{}

	assigned := repository.TicketFilter{AssigneeID: &actorID, Statuses: domain.ActiveTicketStatuses}
	var err error
	if stats.AssignedCount, err = repos.Tickets.Count(ctx, assigned); err != nil {
		return nil, err
	}
	assigned.Limit = stats.AssignedCount
	if stats.AssignedCount > 0 {
		if stats.AssignedTickets, err = repos.Tickets.Query(ctx, assigned); err != nil {
			return nil, err
		}
	}

	today := repository.WorkLogFilter{CreatedFrom: &dayStart, CreatedTo: &dayEnd}
	if stats.TotalMinutesToday, err = repos.WorkLogs.SumMinutes(ctx, today); err != nil {
		return nil, err
	}
	today.ActorID = &actorID
	if stats.MyMinutesToday, err = repos.WorkLogs.SumMinutes(ctx, today); err != nil {
		return nil, err
	}

	done := repository.TicketFilter{
		Statuses:    []domain.TicketStatus{domain.TicketStatusDone},
		UpdatedFrom: &monthStart,
		UpdatedTo:   &monthEnd,
	}
	if stats.TotalCompletedThisMonth, err = repos.Tickets.Count(ctx, done); err != nil {
		return nil, err
	}
	done.AssigneeID = &actorID
	if stats.MyCompletedThisMonth, err = repos.Tickets.Count(ctx, done); err != nil {
		return nil, err
	}

	if stats.TotalProjects, err = repos.Projects.Count(ctx); err != nil {
		return nil, err
	}
	if stats.RecentLogs, err = repos.WorkLogs.Query(ctx, repository.WorkLogFilter{Limit: recentLogsLimit}); err != nil {
		return nil, err
	}

	track, err := repos.TimeTracks.FindOpenByActor(ctx, actorID)
	switch {
	case err == nil:
		stats.ActiveTimer = track
	case !errorutil.IsNotFound(err):
		return nil, err
	}
	return stats, nil
}
