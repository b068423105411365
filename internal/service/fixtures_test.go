package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/worklane/ticket-tracker/internal/config"
	"github.com/worklane/ticket-tracker/internal/domain"
	"github.com/worklane/ticket-tracker/internal/events"
	"github.com/worklane/ticket-tracker/internal/observability"
	"github.com/worklane/ticket-tracker/internal/repository"
	"github.com/worklane/ticket-tracker/internal/repository/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type testEnv struct {
	store         *memory.Store
	clock         *fakeClock
	metrics       *observability.Metrics
	dispatcher    events.Dispatcher
	notifications *NotificationService
	tickets       *TicketService
	timers        *TimerService
	worklogs      *WorkLogService
	dashboard     *DashboardService
	catalog       *CatalogService
	actors        *ActorService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.New()
	clock := newFakeClock(time.Date(2026, 3, 17, 10, 30, 0, 0, time.UTC))
	return newTestEnvWith(t, store, store.Repos().Notifications, clock)
}

func newTestEnvWith(t *testing.T, store *memory.Store, notifications repository.NotificationRepository, clock *fakeClock) *testEnv {
	t.Helper()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	notificationService := NewNotificationService(NotificationDependencies{
		Dispatcher:    dispatcher,
		Notifications: notifications,
		Clock:         clock.Now,
		Metrics:       metrics,
		Config:        config.NotificationConfig{LinkBaseURL: "https://tracker.test"},
	})
	notificationService.RegisterHandlers()

	auditor := NewAuditor(AuditorDependencies{Locale: LocaleEN, Clock: clock.Now, Metrics: metrics})

	return &testEnv{
		store:         store,
		clock:         clock,
		metrics:       metrics,
		dispatcher:    dispatcher,
		notifications: notificationService,
		tickets: NewTicketService(TicketDependencies{
			Store:      store,
			Auditor:    auditor,
			Dispatcher: dispatcher,
			Clock:      clock.Now,
		}),
		timers:    NewTimerService(TimerDependencies{Store: store, Clock: clock.Now, Metrics: metrics}),
		worklogs:  NewWorkLogService(WorkLogDependencies{Store: store, Clock: clock.Now}),
		dashboard: NewDashboardService(DashboardDependencies{Store: store, Clock: clock.Now}),
		catalog:   NewCatalogService(CatalogDependencies{Store: store, Clock: clock.Now}),
		actors: NewActorService(config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost},
			ActorDependencies{Store: store, Clock: clock.Now}),
	}
}

func (e *testEnv) actor(t *testing.T, username string) *domain.Actor {
	t.Helper()
	provisioned, err := e.actors.ProvisionActor(context.Background(), ProvisionInput{
		Username: username,
		Password: "password",
		Role:     domain.ActorRoleMember,
	})
	require.NoError(t, err)
	return provisioned.Actor
}

func (e *testEnv) project(t *testing.T, name string) *domain.Project {
	t.Helper()
	project, err := e.catalog.CreateProject(context.Background(), ProjectInput{Name: name})
	require.NoError(t, err)
	return project
}

func (e *testEnv) ticket(t *testing.T, projectID, creatorID string, assigneeID *string) *domain.Ticket {
	t.Helper()
	created, err := e.tickets.CreateTicket(context.Background(), creatorID, TicketCreateInput{
		ProjectID:  projectID,
		AssigneeID: assigneeID,
		Title:      "Ticket " + creatorID[:8],
	})
	require.NoError(t, err)
	require.NoError(t, created.DispatchErr)
	return created.Ticket
}

func (e *testEnv) notificationsFor(t *testing.T, actorID string) []domain.Notification {
	t.Helper()
	list, err := e.notifications.List(context.Background(), actorID, false, 100, 0)
	require.NoError(t, err)
	return list
}

func (e *testEnv) historyFor(t *testing.T, ticketID string) []domain.TicketHistory {
	t.Helper()
	list, err := e.tickets.ListHistory(context.Background(), ticketID, 100, 0)
	require.NoError(t, err)
	return list
}

func ptr[T any](v T) *T {
	return &v
}
