package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worklane/ticket-tracker/internal/domain"
	"github.com/worklane/ticket-tracker/internal/observability"
	"github.com/worklane/ticket-tracker/internal/repository/memory"
)

func auditTicket(status domain.TicketStatus, priority domain.TicketPriority) *domain.Ticket {
	return &domain.Ticket{ID: "t-1", Title: "Printer", Status: status, Priority: priority}
}

func TestAuditorDiff(t *testing.T) {
	base := auditTicket(domain.TicketStatusOpen, domain.TicketPriorityMedium)

	cases := []struct {
		name   string
		locale string
		after  *domain.Ticket
		want   []string
	}{
		{
			name:   "no tracked change",
			locale: LocaleEN,
			after:  &domain.Ticket{ID: "t-1", Title: "Renamed", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityMedium},
			want:   nil,
		},
		{
			name:   "status only",
			locale: LocaleEN,
			after:  auditTicket(domain.TicketStatusDone, domain.TicketPriorityMedium),
			want:   []string{"status from 'Open' to 'Done'"},
		},
		{
			name:   "status and priority",
			locale: LocaleEN,
			after:  auditTicket(domain.TicketStatusInProgress, domain.TicketPriorityHigh),
			want: []string{
				"status from 'Open' to 'In Progress'",
				"priority from 'Medium' to 'High'",
			},
		},
		{
			name:   "russian locale",
			locale: LocaleRU,
			after:  auditTicket(domain.TicketStatusReview, domain.TicketPriorityCritical),
			want: []string{
				"статус с 'Открыто' на 'На проверке'",
				"приоритет с 'Средний' на 'Критический'",
			},
		},
		{
			name:   "unknown locale falls back to english",
			locale: "de",
			after:  auditTicket(domain.TicketStatusOpen, domain.TicketPriorityLow),
			want:   []string{"priority from 'Medium' to 'Low'"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auditor := NewAuditor(AuditorDependencies{Locale: tc.locale})
			assert.Equal(t, tc.want, auditor.Diff(base, tc.after))
		})
	}
}

func TestAuditorDiffUsesRawCodeWithoutDisplayName(t *testing.T) {
	auditor := NewAuditor(AuditorDependencies{})
	got := auditor.Diff(
		auditTicket("LEGACY", domain.TicketPriorityMedium),
		auditTicket(domain.TicketStatusOpen, domain.TicketPriorityMedium),
	)
	assert.Equal(t, []string{"status from 'LEGACY' to 'Open'"}, got)
}

func TestAuditorCustomTrackedField(t *testing.T) {
	title := TrackedField{
		Name:   "title",
		Labels: map[string]string{LocaleEN: "title"},
		Value:  func(t *domain.Ticket) string { return t.Title },
	}
	auditor := NewAuditor(AuditorDependencies{Fields: append([]TrackedField{title}, TrackedFields...)})

	before := auditTicket(domain.TicketStatusOpen, domain.TicketPriorityMedium)
	after := before.Clone()
	after.Title = "Scanner"
	after.Status = domain.TicketStatusDone

	assert.Equal(t, []string{
		"title from 'Printer' to 'Scanner'",
		"status from 'Open' to 'Done'",
	}, auditor.Diff(before, after))
}

func TestAuditorRecordChanges(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	env := newTestEnvWith(t, store, store.Repos().Notifications, newFakeClock(time.Date(2026, 3, 17, 9, 0, 0, 0, time.UTC)))
	creator := env.actor(t, "auditor")
	ticket := env.ticket(t, env.project(t, "Audit").ID, creator.ID, nil)

	metrics := observability.NewMetrics()
	at := time.Date(2026, 3, 17, 12, 0, 0, 0, time.UTC)
	auditor := NewAuditor(AuditorDependencies{Clock: func() time.Time { return at }, Metrics: metrics})

	after := ticket.Clone()
	after.Status = domain.TicketStatusInProgress
	after.Priority = domain.TicketPriorityHigh

	entry, err := auditor.RecordChanges(ctx, store.Repos().History, &creator.ID, ticket, after)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "changed status from 'Open' to 'In Progress', priority from 'Medium' to 'High'", entry.Action)
	assert.Equal(t, at, entry.CreatedAt)
	assert.Equal(t, &creator.ID, entry.ActorID)
	assert.Equal(t, int64(1), metrics.Count(observability.CounterAuditEntry))

	entry, err = auditor.RecordChanges(ctx, store.Repos().History, &creator.ID, after, after.Clone())
	require.NoError(t, err)
	assert.Nil(t, entry)

	assert.Len(t, env.historyFor(t, ticket.ID), 1)
}

func TestAuditorRecordChangesSystemEntry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	creator := env.actor(t, "system-owner")
	ticket := env.ticket(t, env.project(t, "System").ID, creator.ID, nil)

	after := ticket.Clone()
	after.Status = domain.TicketStatusDone

	entry, err := NewAuditor(AuditorDependencies{}).RecordChanges(ctx, env.store.Repos().History, nil, ticket, after)
	require.NoError(t, err)
	assert.True(t, entry.IsSystemEntry())
}
