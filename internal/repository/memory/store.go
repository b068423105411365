// Package memory provides an in-process record store with the same observable behavior as the
// PostgreSQL store. It backs tests and STORE_DRIVER=memory.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/worklane/ticket-tracker/internal/domain"
	"github.com/worklane/ticket-tracker/internal/repository"
)

// Store keeps every record behind one mutex. A unit of work holds the mutex for its whole
// duration and works on a copy that replaces the live state only when fn succeeds.
type Store struct {
	mu   sync.Mutex
	data *state

	faultMu sync.RWMutex
	faults  map[string]error
}

// New returns an empty store.
func New() *Store {
	return &Store{data: newState(), faults: map[string]error{}}
}

// InjectFault makes the named operation (for example "tickets.update") fail with err until cleared.
func (s *Store) InjectFault(op string, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults[op] = err
}

// ClearFaults removes every injected fault.
func (s *Store) ClearFaults() {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults = map[string]error{}
}

func (s *Store) fault(op string) error {
	s.faultMu.RLock()
	defer s.faultMu.RUnlock()
	return s.faults[op]
}

func (s *Store) Repos() repository.Repositories {
	return s.bind(&view{store: s})
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.data.clone()
	if err := fn(ctx, s.bind(&view{store: s, tx: working})); err != nil {
		return err
	}
	s.data = working
	return nil
}

func (s *Store) bind(v *view) repository.Repositories {
	return repository.Repositories{
		Actors:        &actorRepo{v},
		Profiles:      &profileRepo{v},
		Projects:      &projectRepo{v},
		WorkTypes:     &workTypeRepo{v},
		Tags:          &tagRepo{v},
		Tickets:       &ticketRepo{v},
		Comments:      &commentRepo{v},
		TimeTracks:    &timeTrackRepo{v},
		WorkLogs:      &workLogRepo{v},
		History:       &historyRepo{v},
		Notifications: &notificationRepo{v},
	}
}

// view routes a repository call either to the live state under the store mutex or to the
// working copy of the enclosing unit of work.
type view struct {
	store *Store
	tx    *state
}

func (v *view) run(op string, fn func(d *state) error) error {
	if err := v.store.fault(op); err != nil {
		return err
	}
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.data)
}

type state struct {
	actors        map[string]domain.Actor
	profiles      map[string]domain.Profile
	projects      map[string]domain.Project
	stages        map[string]domain.Stage
	workTypes     map[string]domain.WorkType
	tags          map[string]domain.Tag
	tickets       map[string]*domain.Ticket
	comments      []domain.Comment
	timeTracks    map[string]domain.TimeTrack
	workLogs      []domain.WorkLog
	history       []domain.TicketHistory
	notifications []domain.Notification
}

func newState() *state {
	return &state{
		actors:     map[string]domain.Actor{},
		profiles:   map[string]domain.Profile{},
		projects:   map[string]domain.Project{},
		stages:     map[string]domain.Stage{},
		workTypes:  map[string]domain.WorkType{},
		tags:       map[string]domain.Tag{},
		tickets:    map[string]*domain.Ticket{},
		timeTracks: map[string]domain.TimeTrack{},
	}
}

func (d *state) clone() *state {
	cp := newState()
	for k, v := range d.actors {
		cp.actors[k] = v
	}
	for k, v := range d.profiles {
		cp.profiles[k] = cloneProfile(v)
	}
	for k, v := range d.projects {
		cp.projects[k] = v
	}
	for k, v := range d.stages {
		cp.stages[k] = v
	}
	for k, v := range d.workTypes {
		cp.workTypes[k] = cloneWorkType(v)
	}
	for k, v := range d.tags {
		cp.tags[k] = v
	}
	for k, v := range d.tickets {
		cp.tickets[k] = v.Clone()
	}
	for k, v := range d.timeTracks {
		cp.timeTracks[k] = cloneTrack(v)
	}
	cp.comments = append([]domain.Comment(nil), d.comments...)
	cp.workLogs = make([]domain.WorkLog, 0, len(d.workLogs))
	for _, l := range d.workLogs {
		cp.workLogs = append(cp.workLogs, cloneWorkLog(l))
	}
	cp.history = make([]domain.TicketHistory, 0, len(d.history))
	for _, h := range d.history {
		cp.history = append(cp.history, cloneHistory(h))
	}
	cp.notifications = make([]domain.Notification, 0, len(d.notifications))
	for _, n := range d.notifications {
		cp.notifications = append(cp.notifications, cloneNotification(n))
	}
	return cp
}

func newID() string {
	return uuid.NewString()
}

func window[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 50
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func ptr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

func cloneProfile(p domain.Profile) domain.Profile {
	p.AvatarURL = ptr(p.AvatarURL)
	return p
}

func cloneWorkType(w domain.WorkType) domain.WorkType {
	w.ParentID = ptr(w.ParentID)
	return w
}

func cloneTrack(t domain.TimeTrack) domain.TimeTrack {
	t.WorkTypeID = ptr(t.WorkTypeID)
	t.EndedAt = ptr(t.EndedAt)
	return t
}

func cloneWorkLog(l domain.WorkLog) domain.WorkLog {
	l.WorkTypeID = ptr(l.WorkTypeID)
	return l
}

func cloneHistory(h domain.TicketHistory) domain.TicketHistory {
	h.ActorID = ptr(h.ActorID)
	return h
}

func cloneNotification(n domain.Notification) domain.Notification {
	n.Link = ptr(n.Link)
	return n
}
