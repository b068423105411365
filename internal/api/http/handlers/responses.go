package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/worklane/ticket-tracker/internal/api/dto"
	"github.com/worklane/ticket-tracker/internal/auth"
	"github.com/worklane/ticket-tracker/internal/domain"
	"github.com/worklane/ticket-tracker/internal/service"
	apperrors "github.com/worklane/ticket-tracker/pkg/util/errorutil"
)

const defaultPageSize = 20

func currentActorID(c *fiber.Ctx) (string, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Actor == nil {
		return "", apperrors.NewUnauthorized("actor required")
	}
	return principal.ActorID(), nil
}

// withWarnings renders data and, when notification delivery failed after commit, a warnings list.
// The write itself succeeded, so the status code is unchanged.
func withWarnings(data any, dispatchErr error) fiber.Map {
	body := fiber.Map{"data": data}
	if dispatchErr != nil {
		domainErr := apperrors.ToDomainError(dispatchErr)
		body["warnings"] = []fiber.Map{{
			"code":    domainErr.Code,
			"message": domainErr.Message,
		}}
	}
	return body
}

func pagination(c *fiber.Ctx) (limit, offset int) {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), defaultPageSize)
	return pageSize, (page - 1) * pageSize
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil
	}
	return &val
}

func splitQuery(c *fiber.Ctx, key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseTimeQuery reads an optional RFC3339 query parameter.
func parseTimeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	val := c.Query(key)
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid time", map[string]any{key: val})
	}
	return &t, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	tags := ticket.Tags
	if tags == nil {
		tags = []string{}
	}
	return dto.TicketResponse{
		ID:          ticket.ID,
		ProjectID:   ticket.ProjectID,
		StageID:     ticket.StageID,
		CreatorID:   ticket.CreatorID,
		AssigneeID:  ticket.AssigneeID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		Tags:        tags,
		StartDate:   ticket.StartDate,
		DueDate:     ticket.DueDate,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

func ticketResponses(tickets []domain.Ticket) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return items
}

func ticketDetail(detail *service.TicketDetail) dto.TicketDetailResponse {
	comments := make([]dto.CommentResponse, 0, len(detail.Comments))
	for i := range detail.Comments {
		comments = append(comments, commentResponse(&detail.Comments[i]))
	}
	return dto.TicketDetailResponse{
		TicketResponse: ticketResponse(detail.Ticket),
		Comments:       comments,
		History:        historyResponses(detail.History),
		ActiveTimerID:  detail.ActiveTimerID,
	}
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		AuthorID:  comment.AuthorID,
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt,
	}
}

func historyResponse(entry *domain.TicketHistory) dto.TicketHistoryResponse {
	return dto.TicketHistoryResponse{
		ID:        entry.ID,
		ActorID:   entry.ActorID,
		Action:    entry.Action,
		CreatedAt: entry.CreatedAt,
	}
}

func historyResponses(entries []domain.TicketHistory) []dto.TicketHistoryResponse {
	resp := make([]dto.TicketHistoryResponse, 0, len(entries))
	for i := range entries {
		resp = append(resp, historyResponse(&entries[i]))
	}
	return resp
}

func timeTrackResponse(track *domain.TimeTrack) *dto.TimeTrackResponse {
	if track == nil {
		return nil
	}
	return &dto.TimeTrackResponse{
		ID:         track.ID,
		TicketID:   track.TicketID,
		ActorID:    track.ActorID,
		WorkTypeID: track.WorkTypeID,
		StartedAt:  track.StartedAt,
		EndedAt:    track.EndedAt,
	}
}

func workLogResponse(log *domain.WorkLog) dto.WorkLogResponse {
	return dto.WorkLogResponse{
		ID:         log.ID,
		TicketID:   log.TicketID,
		ActorID:    log.ActorID,
		WorkTypeID: log.WorkTypeID,
		Minutes:    log.Minutes,
		Comment:    log.Comment,
		CreatedAt:  log.CreatedAt,
	}
}

func workLogResponses(logs []domain.WorkLog) []dto.WorkLogResponse {
	resp := make([]dto.WorkLogResponse, 0, len(logs))
	for i := range logs {
		resp = append(resp, workLogResponse(&logs[i]))
	}
	return resp
}

func actorResponse(actor *domain.Actor) dto.ActorResponse {
	return dto.ActorResponse{
		ID:        actor.ID,
		Username:  actor.Username,
		Email:     actor.Email,
		FirstName: actor.FirstName,
		LastName:  actor.LastName,
		Role:      actor.Role,
		CreatedAt: actor.CreatedAt,
	}
}

func actorProfileResponse(p *service.ActorProfile) dto.ActorProfileResponse {
	resp := dto.ActorProfileResponse{ActorResponse: actorResponse(p.Actor)}
	if p.Profile != nil {
		resp.Profile = &dto.ProfileResponse{AvatarURL: p.Profile.AvatarURL, Bio: p.Profile.Bio}
	}
	return resp
}
