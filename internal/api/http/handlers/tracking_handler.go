package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/worklane/ticket-tracker/internal/api/dto"
	"github.com/worklane/ticket-tracker/internal/service"
	apperrors "github.com/worklane/ticket-tracker/pkg/util/errorutil"
)

// TrackingHandler exposes timers, work logs and the dashboard.
type TrackingHandler struct {
	timers    *service.TimerService
	worklogs  *service.WorkLogService
	dashboard *service.DashboardService
}

// NewTrackingHandler constructs handler.
func NewTrackingHandler(timers *service.TimerService, worklogs *service.WorkLogService, dashboard *service.DashboardService) *TrackingHandler {
	return &TrackingHandler{timers: timers, worklogs: worklogs, dashboard: dashboard}
}

// StartTimer POST /api/tickets/:id/timer/start.
func (h *TrackingHandler) StartTimer(c *fiber.Ctx) error {
	actorID, err := currentActorID(c)
	if err != nil {
		return err
	}
	var req dto.StartTimerRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	track, err := h.timers.StartTimer(c.UserContext(), actorID, c.Params("id"), req.WorkTypeID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": timeTrackResponse(track)})
}

// StopTimer POST /api/tickets/:id/timer/stop.
func (h *TrackingHandler) StopTimer(c *fiber.Ctx) error {
	actorID, err := currentActorID(c)
	if err != nil {
		return err
	}
	result, err := h.timers.StopTimer(c.UserContext(), actorID, c.Params("id"))
	if err != nil {
		return err
	}
	resp := dto.TimerStopResponse{TimeTrackID: result.TrackID, ElapsedMinutes: result.ElapsedMinutes}
	if result.WorkLog != nil {
		log := workLogResponse(result.WorkLog)
		resp.WorkLog = &log
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ActiveTimer GET /api/timers/active. Responds with null data when no timer runs.
func (h *TrackingHandler) ActiveTimer(c *fiber.Ctx) error {
	actorID, err := currentActorID(c)
	if err != nil {
		return err
	}
	track, err := h.timers.ActiveTimer(c.UserContext(), actorID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.JSON(fiber.Map{"data": nil})
		}
		return err
	}
	return c.JSON(fiber.Map{"data": timeTrackResponse(track)})
}

// LogWork POST /api/worklogs.
func (h *TrackingHandler) LogWork(c *fiber.Ctx) error {
	actorID, err := currentActorID(c)
	if err != nil {
		return err
	}
	var req dto.CreateWorkLogRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TicketID == "" {
		return apperrors.NewValidationError("ticket_id required", map[string]any{"field": "ticket_id"})
	}
	log, err := h.worklogs.LogWork(c.UserContext(), actorID, service.WorkLogInput{
		TicketID:   req.TicketID,
		WorkTypeID: req.WorkTypeID,
		Minutes:    req.Minutes,
		Comment:    req.Comment,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": workLogResponse(log)})
}

// ListWorkLogs GET /api/worklogs.
func (h *TrackingHandler) ListWorkLogs(c *fiber.Ctx) error {
	filter := service.WorkLogListFilter{
		TicketID: optionalQuery(c, "ticket_id"),
		ActorID:  optionalQuery(c, "actor_id"),
	}
	filter.Limit, filter.Offset = pagination(c)
	logs, err := h.worklogs.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workLogResponses(logs)})
}

// Dashboard GET /api/dashboard.
func (h *TrackingHandler) Dashboard(c *fiber.Ctx) error {
	actorID, err := currentActorID(c)
	if err != nil {
		return err
	}
	stats, err := h.dashboard.Dashboard(c.UserContext(), actorID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DashboardResponse{
		AssignedTickets:         ticketResponses(stats.AssignedTickets),
		AssignedCount:           stats.AssignedCount,
		MyMinutesToday:          stats.MyMinutesToday,
		TotalMinutesToday:       stats.TotalMinutesToday,
		MyCompletedThisMonth:    stats.MyCompletedThisMonth,
		TotalCompletedThisMonth: stats.TotalCompletedThisMonth,
		TotalProjects:           stats.TotalProjects,
		RecentLogs:              workLogResponses(stats.RecentLogs),
		ActiveTimer:             timeTrackResponse(stats.ActiveTimer),
	}})
}
