package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/worklane/ticket-tracker/internal/domain"
	"github.com/worklane/ticket-tracker/internal/observability"
	"github.com/worklane/ticket-tracker/internal/repository/memory"
	"github.com/worklane/ticket-tracker/internal/repository/mock"
	"github.com/worklane/ticket-tracker/pkg/util/errorutil"
)

type TicketServiceTestSuite struct {
	suite.Suite
	env      *testEnv
	ctx      context.Context
	creator  *domain.Actor
	assignee *domain.Actor
	other    *domain.Actor
	project  *domain.Project
}

func (s *TicketServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.env = newTestEnv(s.T())
	s.creator = s.env.actor(s.T(), "creator")
	s.assignee = s.env.actor(s.T(), "assignee")
	s.other = s.env.actor(s.T(), "other")
	s.project = s.env.project(s.T(), "Support")
}

func TestTicketServiceSuite(t *testing.T) {
	suite.Run(t, new(TicketServiceTestSuite))
}

func (s *TicketServiceTestSuite) TestCreateTicket_Defaults() {
	created, err := s.env.tickets.CreateTicket(s.ctx, s.creator.ID, TicketCreateInput{
		ProjectID: s.project.ID,
		Title:     "  Printer on fire  ",
		Tags:      []string{"hw", " hw ", "", "urgent"},
	})
	s.Require().NoError(err)
	s.NoError(created.DispatchErr)

	ticket := created.Ticket
	s.NotEmpty(ticket.ID)
	s.Equal("Printer on fire", ticket.Title)
	s.Equal(domain.TicketStatusOpen, ticket.Status)
	s.Equal(domain.TicketPriorityMedium, ticket.Priority)
	s.Equal(s.creator.ID, ticket.CreatorID)
	s.Equal([]string{"hw", "urgent"}, ticket.Tags)
	s.Equal(s.env.clock.Now(), ticket.CreatedAt)
	s.Empty(s.env.historyFor(s.T(), ticket.ID))
}

func (s *TicketServiceTestSuite) TestCreateTicket_Validation() {
	_, err := s.env.tickets.CreateTicket(s.ctx, s.creator.ID, TicketCreateInput{ProjectID: s.project.ID, Title: "   "})
	s.True(errorutil.IsValidation(err))

	_, err = s.env.tickets.CreateTicket(s.ctx, s.creator.ID, TicketCreateInput{
		ProjectID: s.project.ID, Title: "x", Status: "BLOCKED",
	})
	s.True(errorutil.IsValidation(err))

	_, err = s.env.tickets.CreateTicket(s.ctx, s.creator.ID, TicketCreateInput{ProjectID: "missing", Title: "x"})
	s.True(errorutil.IsNotFound(err))

	_, err = s.env.tickets.CreateTicket(s.ctx, s.creator.ID, TicketCreateInput{
		ProjectID: s.project.ID, Title: "x", AssigneeID: ptr("ghost"),
	})
	s.True(errorutil.IsNotFound(err))
}

func (s *TicketServiceTestSuite) TestCreateTicket_StageMustBelongToProject() {
	otherProject := s.env.project(s.T(), "Elsewhere")
	stage, err := s.env.catalog.CreateStage(s.ctx, otherProject.ID, "Backlog", 0)
	s.Require().NoError(err)

	_, err = s.env.tickets.CreateTicket(s.ctx, s.creator.ID, TicketCreateInput{
		ProjectID: s.project.ID, Title: "x", StageID: &stage.ID,
	})
	s.True(errorutil.IsValidation(err))
}

func (s *TicketServiceTestSuite) TestCreateTicket_SelfAssignmentDoesNotNotify() {
	s.env.ticket(s.T(), s.project.ID, s.creator.ID, &s.creator.ID)
	s.Empty(s.env.notificationsFor(s.T(), s.creator.ID))
}

func (s *TicketServiceTestSuite) TestCreateTicket_NotifiesThirdPartyAssignee() {
	ticket := s.env.ticket(s.T(), s.project.ID, s.creator.ID, &s.assignee.ID)

	notes := s.env.notificationsFor(s.T(), s.assignee.ID)
	s.Require().Len(notes, 1)
	s.Equal("New ticket assigned: "+ticket.Title, notes[0].Message)
	s.Require().NotNil(notes[0].Link)
	s.Equal("https://tracker.test/tickets/"+ticket.ID, *notes[0].Link)
	s.False(notes[0].IsRead)
	s.Empty(s.env.notificationsFor(s.T(), s.creator.ID))
	s.Equal(int64(1), s.env.metrics.Count(observability.CounterNotificationCreated))
}

func (s *TicketServiceTestSuite) TestUpdateTicket_NoTrackedChangeWritesNoHistory() {
	ticket := s.env.ticket(s.T(), s.project.ID, s.creator.ID, nil)

	updated, err := s.env.tickets.UpdateTicket(s.ctx, s.creator.ID, ticket.ID, TicketPatch{
		Title:    ptr("Renamed"),
		Status:   ptr(domain.TicketStatusOpen),
		Priority: ptr(domain.TicketPriorityMedium),
	})
	s.Require().NoError(err)
	s.Nil(updated.History)
	s.Equal("Renamed", updated.Ticket.Title)
	s.Empty(s.env.historyFor(s.T(), ticket.ID))
}

func (s *TicketServiceTestSuite) TestUpdateTicket_StatusAndPriorityWriteOneEntry() {
	ticket := s.env.ticket(s.T(), s.project.ID, s.creator.ID, nil)
	s.env.clock.Advance(time.Hour)

	updated, err := s.env.tickets.UpdateTicket(s.ctx, s.other.ID, ticket.ID, TicketPatch{
		Status:   ptr(domain.TicketStatusInProgress),
		Priority: ptr(domain.TicketPriorityHigh),
	})
	s.Require().NoError(err)
	s.Require().NotNil(updated.History)

	history := s.env.historyFor(s.T(), ticket.ID)
	s.Require().Len(history, 1)
	s.Equal("changed status from 'Open' to 'In Progress', priority from 'Medium' to 'High'", history[0].Action)
	s.Equal(&s.other.ID, history[0].ActorID)
	s.Equal(s.env.clock.Now(), history[0].CreatedAt)

	s.Equal(s.creator.ID, updated.Ticket.CreatorID)
	s.Equal(s.env.clock.Now(), updated.Ticket.UpdatedAt)
	s.Equal(ticket.CreatedAt, updated.Ticket.CreatedAt)
}

func (s *TicketServiceTestSuite) TestUpdateTicket_HistoryIsChronological() {
	ticket := s.env.ticket(s.T(), s.project.ID, s.creator.ID, nil)
	for _, status := range []domain.TicketStatus{domain.TicketStatusInProgress, domain.TicketStatusReview, domain.TicketStatusDone} {
		s.env.clock.Advance(time.Minute)
		_, err := s.env.tickets.UpdateTicket(s.ctx, s.creator.ID, ticket.ID, TicketPatch{Status: ptr(status)})
		s.Require().NoError(err)
	}

	history := s.env.historyFor(s.T(), ticket.ID)
	s.Require().Len(history, 3)
	s.Equal("changed status from 'Review' to 'Done'", history[2].Action)
	s.True(history[0].CreatedAt.Before(history[2].CreatedAt))
}

func (s *TicketServiceTestSuite) TestUpdateTicket_ReassignmentNotifiesOnce() {
	ticket := s.env.ticket(s.T(), s.project.ID, s.creator.ID, nil)

	updated, err := s.env.tickets.UpdateTicket(s.ctx, s.creator.ID, ticket.ID, TicketPatch{
		AssigneeID: Assign(&s.assignee.ID),
	})
	s.Require().NoError(err)
	s.NoError(updated.DispatchErr)

	notes := s.env.notificationsFor(s.T(), s.assignee.ID)
	s.Require().Len(notes, 1)
	s.Equal("You were assigned to ticket: "+ticket.Title, notes[0].Message)

	_, err = s.env.tickets.UpdateTicket(s.ctx, s.creator.ID, ticket.ID, TicketPatch{Title: ptr("Still assigned")})
	s.Require().NoError(err)
	s.Len(s.env.notificationsFor(s.T(), s.assignee.ID), 1)
}

func (s *TicketServiceTestSuite) TestUpdateTicket_UnassignDoesNotNotify() {
	ticket := s.env.ticket(s.T(), s.project.ID, s.creator.ID, &s.assignee.ID)

	updated, err := s.env.tickets.UpdateTicket(s.ctx, s.creator.ID, ticket.ID, TicketPatch{
		AssigneeID: Assign[string](nil),
	})
	s.Require().NoError(err)
	s.Nil(updated.Ticket.AssigneeID)
	s.Len(s.env.notificationsFor(s.T(), s.assignee.ID), 1)
}

func (s *TicketServiceTestSuite) TestUpdateTicket_SelfAssignmentStillNotifies() {
	ticket := s.env.ticket(s.T(), s.project.ID, s.creator.ID, nil)

	_, err := s.env.tickets.UpdateTicket(s.ctx, s.assignee.ID, ticket.ID, TicketPatch{
		AssigneeID: Assign(&s.assignee.ID),
	})
	s.Require().NoError(err)
	s.Len(s.env.notificationsFor(s.T(), s.assignee.ID), 1)
}

func (s *TicketServiceTestSuite) TestUpdateTicket_FailedWriteLeavesNoTrace() {
	ticket := s.env.ticket(s.T(), s.project.ID, s.creator.ID, nil)
	s.env.store.InjectFault("tickets.update", errorutil.NewDependencyError("ticket store", errors.New("connection reset")))

	_, err := s.env.tickets.UpdateTicket(s.ctx, s.creator.ID, ticket.ID, TicketPatch{
		Status:     ptr(domain.TicketStatusDone),
		AssigneeID: Assign(&s.assignee.ID),
	})
	s.True(errorutil.HasCode(err, errorutil.CodeDependency))
	s.env.store.ClearFaults()

	s.Empty(s.env.historyFor(s.T(), ticket.ID))
	s.Empty(s.env.notificationsFor(s.T(), s.assignee.ID))

	stored, err := s.env.store.Repos().Tickets.GetByID(s.ctx, ticket.ID)
	s.Require().NoError(err)
	s.Equal(domain.TicketStatusOpen, stored.Status)
	s.Nil(stored.AssigneeID)
}

func (s *TicketServiceTestSuite) TestUpdateTicket_HistoryFailureRollsBackTicket() {
	ticket := s.env.ticket(s.T(), s.project.ID, s.creator.ID, nil)
	s.env.store.InjectFault("history.create", errors.New("history unavailable"))

	_, err := s.env.tickets.UpdateTicket(s.ctx, s.creator.ID, ticket.ID, TicketPatch{Status: ptr(domain.TicketStatusDone)})
	s.Error(err)
	s.env.store.ClearFaults()

	stored, err := s.env.store.Repos().Tickets.GetByID(s.ctx, ticket.ID)
	s.Require().NoError(err)
	s.Equal(domain.TicketStatusOpen, stored.Status)
}

func (s *TicketServiceTestSuite) TestUpdateTicket_Validation() {
	ticket := s.env.ticket(s.T(), s.project.ID, s.creator.ID, nil)

	_, err := s.env.tickets.UpdateTicket(s.ctx, s.creator.ID, ticket.ID, TicketPatch{Priority: ptr(domain.TicketPriority("URGENT"))})
	s.True(errorutil.IsValidation(err))

	_, err = s.env.tickets.UpdateTicket(s.ctx, s.creator.ID, ticket.ID, TicketPatch{Title: ptr(" ")})
	s.True(errorutil.IsValidation(err))

	_, err = s.env.tickets.UpdateTicket(s.ctx, s.creator.ID, "missing", TicketPatch{Title: ptr("x")})
	s.True(errorutil.IsNotFound(err))

	_, err = s.env.tickets.UpdateTicket(s.ctx, s.creator.ID, ticket.ID, TicketPatch{AssigneeID: Assign(ptr("ghost"))})
	s.True(errorutil.IsNotFound(err))
}

func (s *TicketServiceTestSuite) TestUpdateTicket_NotificationFailureKeepsUpdate() {
	ticket := s.env.ticket(s.T(), s.project.ID, s.creator.ID, nil)
	s.env.store.InjectFault("notifications.create", errors.New("notification store down"))

	updated, err := s.env.tickets.UpdateTicket(s.ctx, s.creator.ID, ticket.ID, TicketPatch{
		Status:     ptr(domain.TicketStatusInProgress),
		AssigneeID: Assign(&s.assignee.ID),
	})
	s.Require().NoError(err)
	s.True(errorutil.HasCode(updated.DispatchErr, errorutil.CodeDependency))
	s.env.store.ClearFaults()

	stored, err := s.env.store.Repos().Tickets.GetByID(s.ctx, ticket.ID)
	s.Require().NoError(err)
	s.Equal(domain.TicketStatusInProgress, stored.Status)
	s.Equal(&s.assignee.ID, stored.AssigneeID)
	s.Len(s.env.historyFor(s.T(), ticket.ID), 1)
	s.Empty(s.env.notificationsFor(s.T(), s.assignee.ID))
	s.Equal(int64(1), s.env.metrics.Count(observability.CounterNotificationFailed))
}

func (s *TicketServiceTestSuite) TestCreateComment_NotifiesAssignee() {
	ticket := s.env.ticket(s.T(), s.project.ID, s.creator.ID, &s.assignee.ID)
	s.env.clock.Advance(time.Minute)

	created, err := s.env.tickets.CreateComment(s.ctx, s.other.ID, ticket.ID, " looks broken ")
	s.Require().NoError(err)
	s.NoError(created.DispatchErr)
	s.Equal("looks broken", created.Comment.Text)

	notes := s.env.notificationsFor(s.T(), s.assignee.ID)
	s.Require().Len(notes, 2)
	s.Equal("New comment on ticket: "+ticket.Title, notes[0].Message)
}

func (s *TicketServiceTestSuite) TestCreateComment_AssigneeOwnCommentAndUnassigned() {
	assigned := s.env.ticket(s.T(), s.project.ID, s.creator.ID, &s.assignee.ID)
	unassigned := s.env.ticket(s.T(), s.project.ID, s.creator.ID, nil)

	_, err := s.env.tickets.CreateComment(s.ctx, s.assignee.ID, assigned.ID, "on it")
	s.Require().NoError(err)
	_, err = s.env.tickets.CreateComment(s.ctx, s.other.ID, unassigned.ID, "anyone?")
	s.Require().NoError(err)

	s.Len(s.env.notificationsFor(s.T(), s.assignee.ID), 1)
	s.Empty(s.env.notificationsFor(s.T(), s.other.ID))
	s.Empty(s.env.notificationsFor(s.T(), s.creator.ID))
}

func (s *TicketServiceTestSuite) TestCreateComment_Validation() {
	ticket := s.env.ticket(s.T(), s.project.ID, s.creator.ID, nil)

	_, err := s.env.tickets.CreateComment(s.ctx, s.creator.ID, ticket.ID, "  ")
	s.True(errorutil.IsValidation(err))

	_, err = s.env.tickets.CreateComment(s.ctx, s.creator.ID, "missing", "hello")
	s.True(errorutil.IsNotFound(err))
}

func (s *TicketServiceTestSuite) TestGetTicket_Detail() {
	ticket := s.env.ticket(s.T(), s.project.ID, s.creator.ID, nil)
	_, err := s.env.tickets.CreateComment(s.ctx, s.creator.ID, ticket.ID, "first")
	s.Require().NoError(err)
	_, err = s.env.tickets.UpdateTicket(s.ctx, s.creator.ID, ticket.ID, TicketPatch{Status: ptr(domain.TicketStatusDone)})
	s.Require().NoError(err)
	track, err := s.env.timers.StartTimer(s.ctx, s.creator.ID, ticket.ID, nil)
	s.Require().NoError(err)

	detail, err := s.env.tickets.GetTicket(s.ctx, s.creator.ID, ticket.ID)
	s.Require().NoError(err)
	s.Len(detail.Comments, 1)
	s.Len(detail.History, 1)
	s.Require().NotNil(detail.ActiveTimerID)
	s.Equal(track.ID, *detail.ActiveTimerID)

	otherView, err := s.env.tickets.GetTicket(s.ctx, s.other.ID, ticket.ID)
	s.Require().NoError(err)
	s.Nil(otherView.ActiveTimerID)
}

func (s *TicketServiceTestSuite) TestListTickets_FiltersAndTotal() {
	for i := 0; i < 3; i++ {
		s.env.ticket(s.T(), s.project.ID, s.creator.ID, &s.assignee.ID)
	}
	s.env.ticket(s.T(), s.project.ID, s.creator.ID, nil)

	items, total, err := s.env.tickets.ListTickets(s.ctx, TicketListFilter{AssigneeID: &s.assignee.ID, Limit: 2})
	s.Require().NoError(err)
	s.Len(items, 2)
	s.Equal(3, total)

	_, _, err = s.env.tickets.ListTickets(s.ctx, TicketListFilter{Statuses: []domain.TicketStatus{"NOPE"}})
	s.True(errorutil.IsValidation(err))

	now := s.env.clock.Now()
	_, _, err = s.env.tickets.ListTickets(s.ctx, TicketListFilter{UpdatedFrom: &now, UpdatedTo: &now})
	s.True(errorutil.IsValidation(err))
}

func TestTicketNotificationFailureWithMockRepository(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := memory.New()
	notifications := mock.NewMockNotificationRepository(ctrl)
	env := newTestEnvWith(t, store, notifications, newFakeClock(time.Date(2026, 3, 17, 8, 0, 0, 0, time.UTC)))

	creator := env.actor(t, "mock-creator")
	assignee := env.actor(t, "mock-assignee")
	project := env.project(t, "Mocked")

	notifications.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n *domain.Notification) error {
			assert.Equal(t, assignee.ID, n.RecipientID)
			return errors.New("smtp relay unavailable")
		}).
		Times(1)

	created, err := env.tickets.CreateTicket(context.Background(), creator.ID, TicketCreateInput{
		ProjectID:  project.ID,
		AssigneeID: &assignee.ID,
		Title:      "Broken relay",
	})
	require.NoError(t, err)
	require.Error(t, created.DispatchErr)
	assert.True(t, errorutil.HasCode(created.DispatchErr, errorutil.CodeDependency))

	stored, err := store.Repos().Tickets.GetByID(context.Background(), created.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "Broken relay", stored.Title)
}
