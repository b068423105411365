package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/worklane/ticket-tracker/internal/api/dto"
	"github.com/worklane/ticket-tracker/internal/domain"
	"github.com/worklane/ticket-tracker/internal/service"
	apperrors "github.com/worklane/ticket-tracker/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actorID, err := currentActorID(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ProjectID == "" {
		return apperrors.NewValidationError("project_id required", map[string]any{"field": "project_id"})
	}

	result, err := h.service.CreateTicket(c.UserContext(), actorID, service.TicketCreateInput{
		ProjectID:   req.ProjectID,
		StageID:     req.StageID,
		AssigneeID:  req.AssigneeID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Tags:        req.Tags,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(withWarnings(ticketResponse(result.Ticket), result.DispatchErr))
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := service.TicketListFilter{
		ProjectID:  optionalQuery(c, "project_id"),
		StageID:    optionalQuery(c, "stage_id"),
		AssigneeID: optionalQuery(c, "assignee_id"),
		CreatorID:  optionalQuery(c, "creator_id"),
		SearchTerm: optionalQuery(c, "q"),
	}
	for _, status := range splitQuery(c, "status") {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(status))
	}
	for _, priority := range splitQuery(c, "priority") {
		filter.Priorities = append(filter.Priorities, domain.TicketPriority(priority))
	}
	filter.Limit, filter.Offset = pagination(c)

	var err error
	if filter.UpdatedFrom, err = parseTimeQuery(c, "updated_from"); err != nil {
		return err
	}
	if filter.UpdatedTo, err = parseTimeQuery(c, "updated_to"); err != nil {
		return err
	}

	tickets, total, err := h.service.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets), "total": total})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actorID, err := currentActorID(c)
	if err != nil {
		return err
	}
	detail, err := h.service.GetTicket(c.UserContext(), actorID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(detail)})
}

// UpdateTicket PATCH /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actorID, err := currentActorID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.service.UpdateTicket(c.UserContext(), actorID, c.Params("id"), service.TicketPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Tags:        req.Tags,
		StageID:     service.Optional[string](req.StageID),
		AssigneeID:  service.Optional[string](req.AssigneeID),
		StartDate:   service.Optional[time.Time](req.StartDate),
		DueDate:     service.Optional[time.Time](req.DueDate),
	})
	if err != nil {
		return err
	}

	resp := dto.TicketMutationResponse{Ticket: ticketResponse(result.Ticket)}
	if result.History != nil {
		entry := historyResponse(result.History)
		resp.History = &entry
	}
	return c.JSON(withWarnings(resp, result.DispatchErr))
}

// AddComment POST /api/tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	actorID, err := currentActorID(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.service.CreateComment(c.UserContext(), actorID, c.Params("id"), req.Text)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(withWarnings(commentResponse(result.Comment), result.DispatchErr))
}

// History GET /api/tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	entries, err := h.service.ListHistory(c.UserContext(), c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}
