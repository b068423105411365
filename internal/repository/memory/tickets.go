package memory

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/worklane/ticket-tracker/internal/domain"
	"github.com/worklane/ticket-tracker/internal/repository"
	"github.com/worklane/ticket-tracker/pkg/util/errorutil"
)

type ticketRepo struct{ v *view }

func (r *ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	return r.v.run("tickets.create", func(d *state) error {
		ticket.ID = newID()
		if ticket.Tags == nil {
			ticket.Tags = []string{}
		}
		d.tickets[ticket.ID] = ticket.Clone()
		return nil
	})
}

func (r *ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	return r.v.run("tickets.update", func(d *state) error {
		current, ok := d.tickets[ticket.ID]
		if !ok {
			return errorutil.NewNotFound("ticket", map[string]any{"ticket_id": ticket.ID})
		}
		next := ticket.Clone()
		next.CreatorID = current.CreatorID
		next.ProjectID = current.ProjectID
		next.CreatedAt = current.CreatedAt
		if next.Tags == nil {
			next.Tags = []string{}
		}
		d.tickets[ticket.ID] = next
		return nil
	})
}

func (r *ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	var out *domain.Ticket
	err := r.v.run("tickets.get", func(d *state) error {
		t, ok := d.tickets[id]
		if !ok {
			return errorutil.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		out = t.Clone()
		return nil
	})
	return out, err
}

// GetByIDForUpdate needs no row lock: a unit of work already owns the whole store.
func (r *ticketRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *ticketRepo) Query(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := r.v.run("tickets.query", func(d *state) error {
		matched := matchTickets(d, filter)
		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
				return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
			}
			return matched[i].ID < matched[j].ID
		})
		for _, t := range window(matched, filter.Limit, filter.Offset) {
			out = append(out, *t.Clone())
		}
		return nil
	})
	return out, err
}

func (r *ticketRepo) Count(_ context.Context, filter repository.TicketFilter) (int, error) {
	var count int
	err := r.v.run("tickets.count", func(d *state) error {
		count = len(matchTickets(d, filter))
		return nil
	})
	return count, err
}

func matchTickets(d *state, f repository.TicketFilter) []*domain.Ticket {
	var search string
	if f.SearchTerm != nil {
		search = strings.ToLower(strings.TrimSpace(*f.SearchTerm))
	}
	var out []*domain.Ticket
	for _, t := range d.tickets {
		if f.ProjectID != nil && t.ProjectID != *f.ProjectID {
			continue
		}
		if f.StageID != nil && (t.StageID == nil || *t.StageID != *f.StageID) {
			continue
		}
		if f.AssigneeID != nil && !t.IsAssignedTo(*f.AssigneeID) {
			continue
		}
		if f.CreatorID != nil && t.CreatorID != *f.CreatorID {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
			continue
		}
		if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, t.Priority) {
			continue
		}
		if f.UpdatedFrom != nil && t.UpdatedAt.Before(*f.UpdatedFrom) {
			continue
		}
		if f.UpdatedTo != nil && !t.UpdatedAt.Before(*f.UpdatedTo) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		out = append(out, t)
	}
	return out
}

type historyRepo struct{ v *view }

func (r *historyRepo) Create(_ context.Context, history *domain.TicketHistory) error {
	return r.v.run("history.create", func(d *state) error {
		if _, ok := d.tickets[history.TicketID]; !ok {
			return errorutil.NewNotFound("referenced record", map[string]any{"ticket_id": history.TicketID})
		}
		history.ID = newID()
		d.history = append(d.history, cloneHistory(*history))
		return nil
	})
}

func (r *historyRepo) ListByTicket(_ context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	var out []domain.TicketHistory
	err := r.v.run("history.list", func(d *state) error {
		var matched []domain.TicketHistory
		for _, h := range d.history {
			if h.TicketID == ticketID {
				matched = append(matched, cloneHistory(h))
			}
		}
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		})
		out = window(matched, limit, offset)
		return nil
	})
	return out, err
}

type commentRepo struct{ v *view }

func (r *commentRepo) Create(_ context.Context, comment *domain.Comment) error {
	return r.v.run("comments.create", func(d *state) error {
		if _, ok := d.tickets[comment.TicketID]; !ok {
			return errorutil.NewNotFound("referenced record", map[string]any{"ticket_id": comment.TicketID})
		}
		comment.ID = newID()
		d.comments = append(d.comments, *comment)
		return nil
	})
}

func (r *commentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	var out []domain.Comment
	err := r.v.run("comments.list", func(d *state) error {
		for _, c := range d.comments {
			if c.TicketID == ticketID {
				out = append(out, c)
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
		return nil
	})
	return out, err
}
