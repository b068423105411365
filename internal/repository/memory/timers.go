package memory

import (
	"context"
	"sort"

	"github.com/worklane/ticket-tracker/internal/domain"
	"github.com/worklane/ticket-tracker/internal/repository"
	"github.com/worklane/ticket-tracker/pkg/util/errorutil"
)

const openTrackConstraint = "uniq_open_time_track_per_actor"

type timeTrackRepo struct{ v *view }

// LockActor is a no-op: a unit of work already excludes every other writer.
func (r *timeTrackRepo) LockActor(_ context.Context, _ string) error {
	return r.v.store.fault("timetracks.lock")
}

func (r *timeTrackRepo) Create(_ context.Context, track *domain.TimeTrack) error {
	return r.v.run("timetracks.create", func(d *state) error {
		if _, ok := d.tickets[track.TicketID]; !ok {
			return errorutil.NewNotFound("referenced record", map[string]any{"ticket_id": track.TicketID})
		}
		if track.EndedAt == nil {
			for _, existing := range d.timeTracks {
				if existing.ActorID == track.ActorID && existing.EndedAt == nil {
					return errorutil.NewConflict("time track violates a uniqueness rule", map[string]any{
						"actor_id":   track.ActorID,
						"constraint": openTrackConstraint,
					})
				}
			}
		}
		track.ID = newID()
		d.timeTracks[track.ID] = cloneTrack(*track)
		return nil
	})
}

func (r *timeTrackRepo) Update(_ context.Context, track *domain.TimeTrack) error {
	return r.v.run("timetracks.update", func(d *state) error {
		current, ok := d.timeTracks[track.ID]
		if !ok {
			return errorutil.NewNotFound("time track", map[string]any{"time_track_id": track.ID})
		}
		current.EndedAt = ptr(track.EndedAt)
		current.WorkTypeID = ptr(track.WorkTypeID)
		d.timeTracks[track.ID] = current
		return nil
	})
}

func (r *timeTrackRepo) GetByID(_ context.Context, id string) (*domain.TimeTrack, error) {
	var out *domain.TimeTrack
	err := r.v.run("timetracks.get", func(d *state) error {
		t, ok := d.timeTracks[id]
		if !ok {
			return errorutil.NewNotFound("time track", map[string]any{"time_track_id": id})
		}
		cp := cloneTrack(t)
		out = &cp
		return nil
	})
	return out, err
}

func (r *timeTrackRepo) FindOpenByActor(_ context.Context, actorID string) (*domain.TimeTrack, error) {
	return r.findOpen("timetracks.find_open", map[string]any{"actor_id": actorID}, func(t domain.TimeTrack) bool {
		return t.ActorID == actorID
	})
}

func (r *timeTrackRepo) FindOpenByActorAndTicket(_ context.Context, actorID, ticketID string) (*domain.TimeTrack, error) {
	return r.findOpen("timetracks.find_open",
		map[string]any{"actor_id": actorID, "ticket_id": ticketID},
		func(t domain.TimeTrack) bool {
			return t.ActorID == actorID && t.TicketID == ticketID
		})
}

func (r *timeTrackRepo) findOpen(op string, details map[string]any, match func(domain.TimeTrack) bool) (*domain.TimeTrack, error) {
	var out *domain.TimeTrack
	err := r.v.run(op, func(d *state) error {
		for _, t := range d.timeTracks {
			if t.EndedAt != nil || !match(t) {
				continue
			}
			if out == nil || t.StartedAt.After(out.StartedAt) {
				cp := cloneTrack(t)
				out = &cp
			}
		}
		if out == nil {
			return errorutil.NewNotFound("time track", details)
		}
		return nil
	})
	return out, err
}

type workLogRepo struct{ v *view }

func (r *workLogRepo) Create(_ context.Context, log *domain.WorkLog) error {
	return r.v.run("worklogs.create", func(d *state) error {
		if _, ok := d.tickets[log.TicketID]; !ok {
			return errorutil.NewNotFound("referenced record", map[string]any{"ticket_id": log.TicketID})
		}
		log.ID = newID()
		d.workLogs = append(d.workLogs, cloneWorkLog(*log))
		return nil
	})
}

func (r *workLogRepo) GetByID(_ context.Context, id string) (*domain.WorkLog, error) {
	var out *domain.WorkLog
	err := r.v.run("worklogs.get", func(d *state) error {
		for _, l := range d.workLogs {
			if l.ID == id {
				cp := cloneWorkLog(l)
				out = &cp
				return nil
			}
		}
		return errorutil.NewNotFound("work log", map[string]any{"work_log_id": id})
	})
	return out, err
}

func (r *workLogRepo) Query(_ context.Context, filter repository.WorkLogFilter) ([]domain.WorkLog, error) {
	var out []domain.WorkLog
	err := r.v.run("worklogs.query", func(d *state) error {
		matched := matchWorkLogs(d, filter)
		// newest first, later inserts win ties
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
		out = window(matched, filter.Limit, filter.Offset)
		return nil
	})
	return out, err
}

func (r *workLogRepo) SumMinutes(_ context.Context, filter repository.WorkLogFilter) (int, error) {
	var total int
	err := r.v.run("worklogs.sum", func(d *state) error {
		for _, l := range matchWorkLogs(d, filter) {
			total += l.Minutes
		}
		return nil
	})
	return total, err
}

func matchWorkLogs(d *state, f repository.WorkLogFilter) []domain.WorkLog {
	var out []domain.WorkLog
	for _, l := range d.workLogs {
		if f.TicketID != nil && l.TicketID != *f.TicketID {
			continue
		}
		if f.ActorID != nil && l.ActorID != *f.ActorID {
			continue
		}
		if f.CreatedFrom != nil && l.CreatedAt.Before(*f.CreatedFrom) {
			continue
		}
		if f.CreatedTo != nil && !l.CreatedAt.Before(*f.CreatedTo) {
			continue
		}
		out = append(out, cloneWorkLog(l))
	}
	return out
}
