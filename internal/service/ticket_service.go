package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/worklane/ticket-tracker/internal/domain"
	"github.com/worklane/ticket-tracker/internal/events"
	"github.com/worklane/ticket-tracker/internal/repository"
	"github.com/worklane/ticket-tracker/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	store      repository.Store
	auditor    *Auditor
	dispatcher events.Dispatcher
	clock      Clock
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Auditor    *Auditor
	Dispatcher events.Dispatcher
	Clock      Clock
	Logger     *zap.Logger
}

// Optional distinguishes "leave unchanged" (Set false) from "set to Value", where a nil Value clears
// the field.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Assign returns an Optional that sets the field to v.
func Assign[T any](v *T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	ProjectID   string
	StageID     *string
	AssigneeID  *string
	Title       string
	Description string
	Status      domain.TicketStatus
	Priority    domain.TicketPriority
	Tags        []string
	StartDate   *time.Time
	DueDate     *time.Time
}

// TicketPatch lists the fields an update may change. Nil pointers and unset optionals keep the
// current value. The creator and project are not patchable.
type TicketPatch struct {
	Title       *string
	Description *string
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	Tags        *[]string
	StageID     Optional[string]
	AssigneeID  Optional[string]
	StartDate   Optional[time.Time]
	DueDate     Optional[time.Time]
}

// TicketMutation is the outcome of a committed ticket write. DispatchErr carries a
// DEPENDENCY_FAILURE when notifications could not be written; the write itself stands.
type TicketMutation struct {
	Ticket      *domain.Ticket
	History     *domain.TicketHistory
	DispatchErr error
}

// CommentMutation is the outcome of a committed comment.
type CommentMutation struct {
	Comment     *domain.Comment
	DispatchErr error
}

// TicketDetail aggregates everything shown on a ticket page.
type TicketDetail struct {
	Ticket        *domain.Ticket
	Comments      []domain.Comment
	History       []domain.TicketHistory
	ActiveTimerID *string
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	ProjectID   *string
	StageID     *string
	AssigneeID  *string
	CreatorID   *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	SearchTerm  *string
	UpdatedFrom *time.Time // inclusive
	UpdatedTo   *time.Time // exclusive
	Limit       int
	Offset      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	auditor := deps.Auditor
	if auditor == nil {
		auditor = NewAuditor(AuditorDependencies{Clock: deps.Clock})
	}
	return &TicketService{
		store:      deps.Store,
		auditor:    auditor,
		dispatcher: deps.Dispatcher,
		clock:      clockOrDefault(deps.Clock),
		logger:     logger,
	}
}

// CreateTicket creates a ticket on behalf of the actor.
func (s *TicketService) CreateTicket(ctx context.Context, actorID string, input TicketCreateInput) (*TicketMutation, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errorutil.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	if input.Status == "" {
		input.Status = domain.TicketStatusOpen
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if err := validateStatusPriority(&input.Status, &input.Priority); err != nil {
		return nil, err
	}

	now := s.clock()
	ticket := &domain.Ticket{
		ProjectID:   input.ProjectID,
		StageID:     input.StageID,
		CreatorID:   actorID,
		AssigneeID:  input.AssigneeID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      input.Status,
		Priority:    input.Priority,
		Tags:        normalizeTags(input.Tags),
		StartDate:   input.StartDate,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Projects.GetByID(ctx, ticket.ProjectID); err != nil {
			return err
		}
		if err := checkStage(ctx, repos, ticket.ProjectID, ticket.StageID); err != nil {
			return err
		}
		if err := checkAssignee(ctx, repos, ticket.AssigneeID); err != nil {
			return err
		}
		return repos.Tickets.Create(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket created", zap.String("ticket_id", ticket.ID), zap.String("actor_id", actorID))
	result := &TicketMutation{Ticket: ticket}
	result.DispatchErr = s.publish(ctx, events.NewEvent(events.EventTicketCreated, ticket.ID, &actorID, now,
		events.TicketCreatedPayload{Ticket: ticket.Clone()}))
	return result, nil
}

// UpdateTicket applies patch under a row lock, records the audit entry in the same unit of work and
// notifies after commit. A failed write leaves neither history nor notifications behind.
func (s *TicketService) UpdateTicket(ctx context.Context, actorID, ticketID string, patch TicketPatch) (*TicketMutation, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	var before, after *domain.Ticket
	var entry *domain.TicketHistory
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Tickets.GetByIDForUpdate(ctx, ticketID)
		if err != nil {
			return err
		}
		before = current.Clone()
		applyPatch(current, patch)

		if patch.StageID.Set {
			if err := checkStage(ctx, repos, current.ProjectID, current.StageID); err != nil {
				return err
			}
		}
		if patch.AssigneeID.Set {
			if err := checkAssignee(ctx, repos, current.AssigneeID); err != nil {
				return err
			}
		}

		current.UpdatedAt = s.clock()
		if err := repos.Tickets.Update(ctx, current); err != nil {
			return err
		}
		after = current

		entry, err = s.auditor.RecordChanges(ctx, repos.History, &actorID, before, after)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &TicketMutation{Ticket: after, History: entry}
	result.DispatchErr = s.publish(ctx, events.NewEvent(events.EventTicketUpdated, ticketID, &actorID, after.UpdatedAt,
		events.TicketUpdatedPayload{Before: before, After: after.Clone()}))
	return result, nil
}

// CreateComment adds a comment and notifies the assignee after commit.
func (s *TicketService) CreateComment(ctx context.Context, actorID, ticketID, text string) (*CommentMutation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errorutil.NewValidationError("comment text is required", map[string]any{"field": "text"})
	}

	var ticket *domain.Ticket
	comment := &domain.Comment{
		TicketID:  ticketID,
		AuthorID:  actorID,
		Text:      text,
		CreatedAt: s.clock(),
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ticket, err = repos.Tickets.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		return repos.Comments.Create(ctx, comment)
	})
	if err != nil {
		return nil, err
	}

	result := &CommentMutation{Comment: comment}
	created := *comment
	result.DispatchErr = s.publish(ctx, events.NewEvent(events.EventCommentAdded, ticketID, &actorID, comment.CreatedAt,
		events.CommentAddedPayload{Ticket: ticket, Comment: &created}))
	return result, nil
}

// GetTicket loads a ticket with its comments, history and the caller's running timer on it.
func (s *TicketService) GetTicket(ctx context.Context, actorID, ticketID string) (*TicketDetail, error) {
	repos := s.store.Repos()
	ticket, err := repos.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	comments, err := repos.Comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	history, err := repos.History.ListByTicket(ctx, ticketID, 100, 0)
	if err != nil {
		return nil, err
	}
	detail := &TicketDetail{Ticket: ticket, Comments: comments, History: history}

	track, err := repos.TimeTracks.FindOpenByActorAndTicket(ctx, actorID, ticketID)
	switch {
	case err == nil:
		detail.ActiveTimerID = &track.ID
	case !errorutil.IsNotFound(err):
		return nil, err
	}
	return detail, nil
}

// ListTickets returns a page of tickets and the total number matching the filter.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, int, error) {
	for _, status := range filter.Statuses {
		if !status.IsValid() {
			return nil, 0, errorutil.NewValidationError("invalid status", map[string]any{"status": status})
		}
	}
	for _, priority := range filter.Priorities {
		if !priority.IsValid() {
			return nil, 0, errorutil.NewValidationError("invalid priority", map[string]any{"priority": priority})
		}
	}
	if filter.UpdatedFrom != nil && filter.UpdatedTo != nil && !filter.UpdatedFrom.Before(*filter.UpdatedTo) {
		return nil, 0, errorutil.NewValidationError("updated_from must precede updated_to", nil)
	}
	repoFilter := repository.TicketFilter{
		ProjectID:   filter.ProjectID,
		StageID:     filter.StageID,
		AssigneeID:  filter.AssigneeID,
		CreatorID:   filter.CreatorID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		SearchTerm:  filter.SearchTerm,
		UpdatedFrom: filter.UpdatedFrom,
		UpdatedTo:   filter.UpdatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	tickets := s.store.Repos().Tickets
	items, err := tickets.Query(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := tickets.Count(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListHistory returns a ticket's audit trail, oldest first.
func (s *TicketService) ListHistory(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	repos := s.store.Repos()
	if _, err := repos.Tickets.GetByID(ctx, ticketID); err != nil {
		return nil, err
	}
	return repos.History.ListByTicket(ctx, ticketID, limit, offset)
}

func (s *TicketService) publish(ctx context.Context, event events.Event) error {
	if s.dispatcher == nil {
		return nil
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Error("notification dispatch failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
		return errorutil.NewDependencyError("notification dispatch", err)
	}
	return nil
}

func applyPatch(t *domain.Ticket, patch TicketPatch) {
	if patch.Title != nil {
		t.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		t.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.Tags != nil {
		t.Tags = normalizeTags(*patch.Tags)
	}
	if patch.StageID.Set {
		t.StageID = patch.StageID.Value
	}
	if patch.AssigneeID.Set {
		t.AssigneeID = patch.AssigneeID.Value
	}
	if patch.StartDate.Set {
		t.StartDate = patch.StartDate.Value
	}
	if patch.DueDate.Set {
		t.DueDate = patch.DueDate.Value
	}
}

func validatePatch(patch TicketPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return errorutil.NewValidationError("title cannot be empty", map[string]any{"field": "title"})
	}
	return validateStatusPriority(patch.Status, patch.Priority)
}

func validateStatusPriority(status *domain.TicketStatus, priority *domain.TicketPriority) error {
	if status != nil && !status.IsValid() {
		return errorutil.NewValidationError("invalid status", map[string]any{"status": *status})
	}
	if priority != nil && !priority.IsValid() {
		return errorutil.NewValidationError("invalid priority", map[string]any{"priority": *priority})
	}
	return nil
}

func checkStage(ctx context.Context, repos repository.Repositories, projectID string, stageID *string) error {
	if stageID == nil {
		return nil
	}
	stage, err := repos.Projects.GetStage(ctx, *stageID)
	if err != nil {
		return err
	}
	if stage.ProjectID != projectID {
		return errorutil.NewValidationError("stage belongs to another project", map[string]any{
			"stage_id":   stage.ID,
			"project_id": projectID,
		})
	}
	return nil
}

func checkAssignee(ctx context.Context, repos repository.Repositories, assigneeID *string) error {
	if assigneeID == nil {
		return nil
	}
	_, err := repos.Actors.GetByID(ctx, *assigneeID)
	return err
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
