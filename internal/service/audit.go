package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/worklane/ticket-tracker/internal/domain"
	"github.com/worklane/ticket-tracker/internal/observability"
	"github.com/worklane/ticket-tracker/internal/repository"
)

// Audit locales.
const (
	LocaleEN = "en"
	LocaleRU = "ru"
)

// TrackedField describes one ticket field the auditor compares. Values are compared by their
// stored code; Labels and Display only render the history clause.
type TrackedField struct {
	Name    string
	Labels  map[string]string
	Value   func(*domain.Ticket) string
	Display map[string]map[string]string
}

// TrackedFields is the default audit table.
var TrackedFields = []TrackedField{
	{
		Name:   "status",
		Labels: map[string]string{LocaleEN: "status", LocaleRU: "статус"},
		Value:  func(t *domain.Ticket) string { return string(t.Status) },
		Display: map[string]map[string]string{
			LocaleEN: {
				string(domain.TicketStatusOpen):       "Open",
				string(domain.TicketStatusInProgress): "In Progress",
				string(domain.TicketStatusReview):     "Review",
				string(domain.TicketStatusDone):       "Done",
			},
			LocaleRU: {
				string(domain.TicketStatusOpen):       "Открыто",
				string(domain.TicketStatusInProgress): "В работе",
				string(domain.TicketStatusReview):     "На проверке",
				string(domain.TicketStatusDone):       "Готово",
			},
		},
	},
	{
		Name:   "priority",
		Labels: map[string]string{LocaleEN: "priority", LocaleRU: "приоритет"},
		Value:  func(t *domain.Ticket) string { return string(t.Priority) },
		Display: map[string]map[string]string{
			LocaleEN: {
				string(domain.TicketPriorityLow):      "Low",
				string(domain.TicketPriorityMedium):   "Medium",
				string(domain.TicketPriorityHigh):     "High",
				string(domain.TicketPriorityCritical): "Critical",
			},
			LocaleRU: {
				string(domain.TicketPriorityLow):      "Низкий",
				string(domain.TicketPriorityMedium):   "Средний",
				string(domain.TicketPriorityHigh):     "Высокий",
				string(domain.TicketPriorityCritical): "Критический",
			},
		},
	},
}

var changedPrefix = map[string]string{
	LocaleEN: "changed",
	LocaleRU: "изменено:",
}

var clauseJoiner = map[string]string{
	LocaleEN: "from",
	LocaleRU: "с",
}

var clauseTarget = map[string]string{
	LocaleEN: "to",
	LocaleRU: "на",
}

// Auditor turns before/after ticket snapshots into history entries.
type Auditor struct {
	fields  []TrackedField
	locale  string
	clock   Clock
	metrics *observability.Metrics
}

// AuditorDependencies bundles auditor collaborators.
type AuditorDependencies struct {
	Fields  []TrackedField
	Locale  string
	Clock   Clock
	Metrics *observability.Metrics
}

// NewAuditor constructs an auditor. Unknown locales fall back to English.
func NewAuditor(deps AuditorDependencies) *Auditor {
	fields := deps.Fields
	if fields == nil {
		fields = TrackedFields
	}
	locale := deps.Locale
	if _, ok := changedPrefix[locale]; !ok {
		locale = LocaleEN
	}
	return &Auditor{
		fields:  fields,
		locale:  locale,
		clock:   clockOrDefault(deps.Clock),
		metrics: deps.Metrics,
	}
}

// Diff renders one clause per tracked field whose value differs, in table order.
func (a *Auditor) Diff(before, after *domain.Ticket) []string {
	if before == nil || after == nil {
		return nil
	}
	var clauses []string
	for _, field := range a.fields {
		oldValue, newValue := field.Value(before), field.Value(after)
		if oldValue == newValue {
			continue
		}
		clauses = append(clauses, fmt.Sprintf("%s %s '%s' %s '%s'",
			a.label(field),
			clauseJoiner[a.locale],
			a.display(field, oldValue),
			clauseTarget[a.locale],
			a.display(field, newValue),
		))
	}
	return clauses
}

// RecordChanges writes exactly one history entry when at least one tracked field changed and
// returns nil otherwise. Pass the repository of the unit of work that persisted after.
func (a *Auditor) RecordChanges(ctx context.Context, history repository.TicketHistoryRepository, actorID *string, before, after *domain.Ticket) (*domain.TicketHistory, error) {
	clauses := a.Diff(before, after)
	if len(clauses) == 0 {
		return nil, nil
	}
	entry := &domain.TicketHistory{
		TicketID:  after.ID,
		ActorID:   actorID,
		Action:    changedPrefix[a.locale] + " " + strings.Join(clauses, ", "),
		CreatedAt: a.clock(),
	}
	if err := history.Create(ctx, entry); err != nil {
		return nil, err
	}
	a.metrics.Inc(observability.CounterAuditEntry)
	return entry, nil
}

func (a *Auditor) label(field TrackedField) string {
	if label, ok := field.Labels[a.locale]; ok {
		return label
	}
	if label, ok := field.Labels[LocaleEN]; ok {
		return label
	}
	return field.Name
}

func (a *Auditor) display(field TrackedField, value string) string {
	if shown, ok := field.Display[a.locale][value]; ok {
		return shown
	}
	if shown, ok := field.Display[LocaleEN][value]; ok {
		return shown
	}
	return value
}
