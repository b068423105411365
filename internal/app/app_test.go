package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/worklane/ticket-tracker/internal/api/http/handlers"
	"github.com/worklane/ticket-tracker/internal/config"
	"github.com/worklane/ticket-tracker/internal/domain"
	"github.com/worklane/ticket-tracker/internal/observability"
	"github.com/worklane/ticket-tracker/internal/repository/memory"
	"github.com/worklane/ticket-tracker/internal/service"
)

type envelope struct {
	Data     json.RawMessage `json:"data"`
	Total    int             `json:"total"`
	Warnings []struct {
		Code string `json:"code"`
	} `json:"warnings"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type APITestSuite struct {
	suite.Suite
	store      *memory.Store
	app        *Application
	now        time.Time
	adminToken string
	memberID   string
	member     string
	otherID    string
	projectID  string
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func testConfig() *config.Config {
	return &config.Config{
		App:          config.AppConfig{Name: "ticket-tracker-test", Version: "test"},
		Auth:         config.AuthConfig{JWTSecret: "api-test", AccessTokenTTLMinutes: 15, BcryptCost: bcrypt.MinCost},
		Notification: config.NotificationConfig{LinkBaseURL: "https://tracker.test"},
		Audit:        config.AuditConfig{Locale: "en"},
	}
}

func (s *APITestSuite) SetupTest() {
	s.store = memory.New()
	s.now = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	s.app = New(testConfig(), Dependencies{
		Store:   s.store,
		Pingers: map[string]handlers.Pinger{"store": stubPinger{}},
		Clock:   func() time.Time { return s.now },
	})

	ctx := context.Background()
	_, err := s.app.Actors.ProvisionActor(ctx, service.ProvisionInput{Username: "root", Password: "rootpass", Role: domain.ActorRoleAdmin})
	s.Require().NoError(err)
	s.adminToken = s.login("root", "rootpass")

	member, err := s.app.Actors.ProvisionActor(ctx, service.ProvisionInput{Username: "mia", Password: "miapass"})
	s.Require().NoError(err)
	s.memberID = member.Actor.ID
	s.member = s.login("mia", "miapass")

	other, err := s.app.Actors.ProvisionActor(ctx, service.ProvisionInput{Username: "oli", Password: "olipass"})
	s.Require().NoError(err)
	s.otherID = other.Actor.ID

	var project struct {
		ID string `json:"id"`
	}
	s.decode(s.do(http.MethodPost, "/api/projects", s.adminToken, map[string]any{"name": "Support"}, http.StatusCreated), &project)
	s.projectID = project.ID
}

func (s *APITestSuite) do(method, path, token string, body any, wantStatus int) envelope {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Fiber.Test(req, -1)
	s.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Require().Equalf(wantStatus, resp.StatusCode, "%s %s: %s", method, path, raw)

	var env envelope
	if len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, &env))
	}
	return env
}

func (s *APITestSuite) decode(env envelope, out any) {
	s.Require().NoError(json.Unmarshal(env.Data, out))
}

func (s *APITestSuite) login(username, password string) string {
	var data struct {
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}
	s.decode(s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": password}, http.StatusOK), &data)
	s.Require().NotEmpty(data.Auth.Token)
	return data.Auth.Token
}

func (s *APITestSuite) createTicket(assigneeID *string) string {
	body := map[string]any{"project_id": s.projectID, "title": "VPN is down"}
	if assigneeID != nil {
		body["assignee_id"] = *assigneeID
	}
	var ticket struct {
		ID string `json:"id"`
	}
	s.decode(s.do(http.MethodPost, "/api/tickets", s.member, body, http.StatusCreated), &ticket)
	return ticket.ID
}

func (s *APITestSuite) TestHealthAndMetrics() {
	s.do(http.MethodGet, "/health/live", "", nil, http.StatusOK)
	s.do(http.MethodGet, "/health/ready", "", nil, http.StatusOK)

	s.createTicket(nil)
	resp, err := s.app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var snapshot observability.Snapshot
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&snapshot))
	s.NotEmpty(snapshot.Requests)
	s.Contains(snapshot.Requests, "/api/tickets|POST|201")
}

func (s *APITestSuite) TestReadyReportsFailingDependency() {
	app := New(testConfig(), Dependencies{
		Store:   s.store,
		Pingers: map[string]handlers.Pinger{"postgres": stubPinger{err: errors.New("connection refused")}},
	})
	resp, err := app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil), -1)
	s.Require().NoError(err)
	s.Equal(http.StatusServiceUnavailable, resp.StatusCode)
}

func (s *APITestSuite) TestAuthentication() {
	env := s.do(http.MethodGet, "/api/actors/me", "", nil, http.StatusUnauthorized)
	s.Equal("UNAUTHORIZED", env.Error.Code)

	s.do(http.MethodGet, "/api/actors/me", "garbage", nil, http.StatusUnauthorized)
	s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "mia", "password": "nope"}, http.StatusUnauthorized)

	var me struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Profile  *struct {
			Bio string `json:"bio"`
		} `json:"profile"`
	}
	s.decode(s.do(http.MethodGet, "/api/actors/me", s.member, nil, http.StatusOK), &me)
	s.Equal(s.memberID, me.ID)
	s.Equal("mia", me.Username)
	s.NotNil(me.Profile)
}

func (s *APITestSuite) TestProvisioningRequiresAdmin() {
	body := map[string]any{"username": "nat", "password": "natpass"}
	env := s.do(http.MethodPost, "/api/actors", s.member, body, http.StatusForbidden)
	s.Equal("FORBIDDEN", env.Error.Code)

	s.do(http.MethodPost, "/api/actors", s.adminToken, body, http.StatusCreated)
	env = s.do(http.MethodPost, "/api/actors", s.adminToken, body, http.StatusConflict)
	s.Equal("CONFLICT", env.Error.Code)
}

func (s *APITestSuite) TestTicketLifecycle() {
	ticketID := s.createTicket(&s.otherID)

	var unread struct {
		Unread int `json:"unread"`
	}
	otherToken := s.login("oli", "olipass")
	s.decode(s.do(http.MethodGet, "/api/notifications/unread_count", otherToken, nil, http.StatusOK), &unread)
	s.Equal(1, unread.Unread)

	s.now = s.now.Add(time.Minute)
	var mutation struct {
		Ticket struct {
			Status     string  `json:"status"`
			AssigneeID *string `json:"assignee_id"`
			CreatorID  string  `json:"creator_id"`
		} `json:"ticket"`
		History *struct {
			Action string `json:"action"`
		} `json:"history"`
	}
	env := s.do(http.MethodPatch, "/api/tickets/"+ticketID, s.member,
		map[string]any{"status": "IN_PROGRESS", "priority": "HIGH", "assignee_id": nil}, http.StatusOK)
	s.Empty(env.Warnings)
	s.decode(env, &mutation)
	s.Equal("IN_PROGRESS", mutation.Ticket.Status)
	s.Nil(mutation.Ticket.AssigneeID)
	s.Equal(s.memberID, mutation.Ticket.CreatorID)
	s.Require().NotNil(mutation.History)
	s.Equal("changed status from 'Open' to 'In Progress', priority from 'Medium' to 'High'", mutation.History.Action)

	s.do(http.MethodPatch, "/api/tickets/"+ticketID, s.member, map[string]any{"title": "VPN flapping"}, http.StatusOK)
	s.do(http.MethodPatch, "/api/tickets/"+ticketID, s.member, map[string]any{"status": "LOST"}, http.StatusBadRequest)

	s.do(http.MethodPost, "/api/tickets/"+ticketID+"/comments", s.member, map[string]any{"text": "rebooted"}, http.StatusCreated)

	var history []struct {
		Action string `json:"action"`
	}
	s.decode(s.do(http.MethodGet, "/api/tickets/"+ticketID+"/history", s.member, nil, http.StatusOK), &history)
	s.Len(history, 1)

	var detail struct {
		Title    string `json:"title"`
		Comments []any  `json:"comments"`
		History  []any  `json:"history"`
	}
	s.decode(s.do(http.MethodGet, "/api/tickets/"+ticketID, s.member, nil, http.StatusOK), &detail)
	s.Equal("VPN flapping", detail.Title)
	s.Len(detail.Comments, 1)
	s.Len(detail.History, 1)

	list := s.do(http.MethodGet, "/api/tickets?status=IN_PROGRESS&page_size=5", s.member, nil, http.StatusOK)
	s.Equal(1, list.Total)

	s.do(http.MethodGet, "/api/tickets/does-not-exist", s.member, nil, http.StatusNotFound)
}

func (s *APITestSuite) TestTimerFlow() {
	first := s.createTicket(nil)
	second := s.createTicket(nil)

	s.do(http.MethodPost, "/api/tickets/"+first+"/timer/start", s.member, nil, http.StatusCreated)
	env := s.do(http.MethodPost, "/api/tickets/"+second+"/timer/start", s.member, nil, http.StatusConflict)
	s.Equal("CONFLICT", env.Error.Code)
	s.Equal(first, env.Error.Details["ticket_id"])

	var active struct {
		TicketID string `json:"ticket_id"`
	}
	s.decode(s.do(http.MethodGet, "/api/timers/active", s.member, nil, http.StatusOK), &active)
	s.Equal(first, active.TicketID)

	s.now = s.now.Add(95 * time.Second)
	var stopped struct {
		ElapsedMinutes int `json:"elapsed_minutes"`
		WorkLog        *struct {
			Minutes int    `json:"minutes"`
			Comment string `json:"comment"`
		} `json:"work_log"`
	}
	s.decode(s.do(http.MethodPost, "/api/tickets/"+first+"/timer/stop", s.member, nil, http.StatusOK), &stopped)
	s.Equal(1, stopped.ElapsedMinutes)
	s.Require().NotNil(stopped.WorkLog)
	s.Equal(domain.AutoTrackedComment, stopped.WorkLog.Comment)

	env = s.do(http.MethodPost, "/api/tickets/"+first+"/timer/stop", s.member, nil, http.StatusNotFound)
	s.Equal("NOT_FOUND", env.Error.Code)

	env = s.do(http.MethodGet, "/api/timers/active", s.member, nil, http.StatusOK)
	s.Equal("null", string(env.Data))

	s.do(http.MethodPost, "/api/worklogs", s.member, map[string]any{"ticket_id": second, "minutes": 15}, http.StatusCreated)
	s.do(http.MethodPost, "/api/worklogs", s.member, map[string]any{"ticket_id": second, "minutes": -5}, http.StatusBadRequest)

	var dashboard struct {
		MyMinutesToday    int   `json:"my_minutes_today"`
		TotalMinutesToday int   `json:"total_minutes_today"`
		TotalProjects     int   `json:"total_projects"`
		RecentLogs        []any `json:"recent_logs"`
	}
	s.decode(s.do(http.MethodGet, "/api/dashboard", s.member, nil, http.StatusOK), &dashboard)
	s.Equal(16, dashboard.MyMinutesToday)
	s.Equal(16, dashboard.TotalMinutesToday)
	s.Equal(1, dashboard.TotalProjects)
	s.Len(dashboard.RecentLogs, 2)
}

func (s *APITestSuite) TestStoredReferencesSurviveLaterRequests() {
	ticketID := s.createTicket(nil)
	s.do(http.MethodPost, "/api/tickets/"+ticketID+"/timer/start", s.member, nil, http.StatusCreated)
	s.do(http.MethodPost, "/api/tickets/"+ticketID+"/comments", s.member, map[string]any{"text": "looking"}, http.StatusCreated)

	s.do(http.MethodGet, "/api/timers/active", s.member, nil, http.StatusOK)
	s.do(http.MethodGet, "/api/notifications/unread_count", s.member, nil, http.StatusOK)
	s.do(http.MethodGet, "/api/tickets?q=zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz", s.member, nil, http.StatusOK)
	s.do(http.MethodGet, "/api/dashboard", s.member, nil, http.StatusOK)

	ctx := context.Background()
	track, err := s.app.Timers.ActiveTimer(ctx, s.memberID)
	s.Require().NoError(err)
	s.Equal(ticketID, track.TicketID)

	detail, err := s.app.Tickets.GetTicket(ctx, s.memberID, ticketID)
	s.Require().NoError(err)
	s.Require().Len(detail.Comments, 1)
	s.Equal(ticketID, detail.Comments[0].TicketID)

	s.now = s.now.Add(2 * time.Minute)
	s.do(http.MethodPost, "/api/tickets/"+ticketID+"/timer/stop", s.member, nil, http.StatusOK)
}

func (s *APITestSuite) TestListTicketsByUpdateWindow() {
	s.createTicket(nil)
	s.now = s.now.Add(time.Hour)
	s.createTicket(nil)

	from := s.now.Add(-time.Minute).Format(time.RFC3339)
	list := s.do(http.MethodGet, "/api/tickets?updated_from="+from, s.member, nil, http.StatusOK)
	s.Equal(1, list.Total)

	env := s.do(http.MethodGet, "/api/tickets?updated_to=yesterday", s.member, nil, http.StatusBadRequest)
	s.Equal("VALIDATION_FAILED", env.Error.Code)
}

func (s *APITestSuite) TestNotificationFailureSurfacesAsWarning() {
	ticketID := s.createTicket(nil)
	s.store.InjectFault("notifications.create", errors.New("notification store down"))
	defer s.store.ClearFaults()

	env := s.do(http.MethodPatch, "/api/tickets/"+ticketID, s.member, map[string]any{"assignee_id": s.otherID}, http.StatusOK)
	s.Require().Len(env.Warnings, 1)
	s.Equal("DEPENDENCY_FAILURE", env.Warnings[0].Code)
}

func (s *APITestSuite) TestNotificationPolling() {
	s.createTicket(&s.otherID)
	s.createTicket(&s.otherID)
	otherToken := s.login("oli", "olipass")

	var notes []struct {
		ID   string  `json:"id"`
		Link *string `json:"link"`
	}
	s.decode(s.do(http.MethodGet, "/api/notifications?unread=true", otherToken, nil, http.StatusOK), &notes)
	s.Require().Len(notes, 2)
	s.Require().NotNil(notes[0].Link)

	s.do(http.MethodPost, "/api/notifications/"+notes[0].ID+"/read", s.member, nil, http.StatusNotFound)
	s.do(http.MethodPost, "/api/notifications/"+notes[0].ID+"/read", otherToken, nil, http.StatusNoContent)

	var marked struct {
		Updated int `json:"updated"`
	}
	s.decode(s.do(http.MethodPost, "/api/notifications/mark_all_read", otherToken, nil, http.StatusOK), &marked)
	s.Equal(1, marked.Updated)
}

func (s *APITestSuite) TestCatalogEndpoints() {
	var stage struct {
		ID string `json:"id"`
	}
	s.decode(s.do(http.MethodPost, "/api/projects/"+s.projectID+"/stages", s.member, map[string]any{"name": "Triage", "order": 1}, http.StatusCreated), &stage)

	var stages []any
	s.decode(s.do(http.MethodGet, "/api/projects/"+s.projectID+"/stages", s.member, nil, http.StatusOK), &stages)
	s.Len(stages, 1)

	s.do(http.MethodPost, "/api/worktypes", s.member, map[string]any{"name": "Ops"}, http.StatusCreated)
	var types []any
	s.decode(s.do(http.MethodGet, "/api/worktypes", s.member, nil, http.StatusOK), &types)
	s.Len(types, 1)

	body := map[string]any{"project_id": s.projectID, "title": "Staged", "stage_id": stage.ID}
	s.do(http.MethodPost, "/api/tickets", s.member, body, http.StatusCreated)
}

func (s *APITestSuite) TestTagEndpoints() {
	var tag struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	s.decode(s.do(http.MethodPost, "/api/tags", s.member, map[string]any{"name": "bug"}, http.StatusCreated), &tag)
	s.Equal("#3b82f6", tag.Color)

	env := s.do(http.MethodPost, "/api/tags", s.member, map[string]any{"name": "bug", "color": "#000"}, http.StatusConflict)
	s.Equal("CONFLICT", env.Error.Code)
	s.do(http.MethodPost, "/api/tags", s.member, map[string]any{"name": "ui", "color": "blue"}, http.StatusBadRequest)

	var tags []struct {
		Name string `json:"name"`
	}
	s.decode(s.do(http.MethodGet, "/api/tags", s.member, nil, http.StatusOK), &tags)
	s.Require().Len(tags, 1)
	s.Equal("bug", tags[0].Name)
}

func TestUnknownRouteRendersErrorEnvelope(t *testing.T) {
	app := New(testConfig(), Dependencies{Store: memory.New()})
	resp, err := app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/nope", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.NotNil(t, env.Error)
	require.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestRequestIDIsEchoedOrGenerated(t *testing.T) {
	app := New(testConfig(), Dependencies{Store: memory.New()})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "req-42")
	resp, err := app.Fiber.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, "req-42", resp.Header.Get("X-Request-ID"))

	resp, err = app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil), -1)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
