package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worklane/ticket-tracker/internal/config"
	"github.com/worklane/ticket-tracker/internal/domain"
	"github.com/worklane/ticket-tracker/internal/events"
	"github.com/worklane/ticket-tracker/pkg/util/errorutil"
)

type fakeCounter struct {
	mu          sync.Mutex
	values      map[string]int
	gets        int
	invalidated []string
	failGet     bool
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{values: map[string]int{}}
}

func (c *fakeCounter) GetUnread(_ context.Context, actorID string) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failGet {
		return 0, false, errors.New("redis: connection refused")
	}
	v, ok := c.values[actorID]
	return v, ok, nil
}

func (c *fakeCounter) SetUnread(_ context.Context, actorID string, count int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[actorID] = count
	return nil
}

func (c *fakeCounter) InvalidateUnread(_ context.Context, actorID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, actorID)
	c.invalidated = append(c.invalidated, actorID)
	return nil
}

func TestNotificationPolling(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	counter := newFakeCounter()
	svc := NewNotificationService(NotificationDependencies{
		Notifications: env.store.Repos().Notifications,
		Counter:       counter,
		Clock:         env.clock.Now,
	})

	creator := env.actor(t, "reporter")
	assignee := env.actor(t, "fixer")
	project := env.project(t, "Helpdesk")
	env.ticket(t, project.ID, creator.ID, &assignee.ID)
	env.ticket(t, project.ID, creator.ID, &assignee.ID)

	count, err := svc.UnreadCount(ctx, assignee.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, counter.values[assignee.ID])

	count, err = svc.UnreadCount(ctx, assignee.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	notes, err := svc.List(ctx, assignee.ID, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, notes, 2)

	require.NoError(t, svc.MarkRead(ctx, assignee.ID, notes[0].ID))
	assert.Contains(t, counter.invalidated, assignee.ID)

	count, err = svc.UnreadCount(ctx, assignee.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = svc.MarkRead(ctx, creator.ID, notes[1].ID)
	assert.True(t, errorutil.IsNotFound(err))

	updated, err := svc.MarkAllRead(ctx, assignee.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	unread, err := svc.List(ctx, assignee.ID, true, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, unread)
	all, err := svc.List(ctx, assignee.ID, false, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestNotificationUnreadCountFallsBackWhenCacheFails(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	counter := newFakeCounter()
	counter.failGet = true
	svc := NewNotificationService(NotificationDependencies{
		Notifications: env.store.Repos().Notifications,
		Counter:       counter,
	})

	creator := env.actor(t, "cache-creator")
	assignee := env.actor(t, "cache-assignee")
	env.ticket(t, env.project(t, "Cache").ID, creator.ID, &assignee.ID)

	count, err := svc.UnreadCount(ctx, assignee.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, counter.gets)
}

func TestNotificationLinkUsesBaseURL(t *testing.T) {
	svc := NewNotificationService(NotificationDependencies{
		Config: config.NotificationConfig{LinkBaseURL: "https://desk.example.com"},
	})
	assert.Equal(t, "https://desk.example.com/tickets/abc", svc.ticketLink("abc"))

	bare := NewNotificationService(NotificationDependencies{})
	assert.Equal(t, "/tickets/abc", bare.ticketLink("abc"))
}

func TestNotificationHandlersRejectForeignPayload(t *testing.T) {
	env := newTestEnv(t)
	event := events.NewEvent(events.EventTicketCreated, "t-1", nil, env.clock.Now(), domain.Comment{})
	assert.Error(t, env.notifications.handleTicketCreated(context.Background(), event))
}
