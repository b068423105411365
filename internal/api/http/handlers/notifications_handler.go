package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/worklane/ticket-tracker/internal/api/dto"
	"github.com/worklane/ticket-tracker/internal/service"
)

// NotificationsHandler serves notification polling.
type NotificationsHandler struct {
	service *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{service: notificationService}
}

// List GET /api/notifications?unread=true.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	actorID, err := currentActorID(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	items, err := h.service.List(c.UserContext(), actorID, c.QueryBool("unread"), limit, offset)
	if err != nil {
		return err
	}
	resp := make([]dto.NotificationResponse, 0, len(items))
	for _, n := range items {
		resp = append(resp, dto.NotificationResponse{
			ID:        n.ID,
			Message:   n.Message,
			Link:      n.Link,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// UnreadCount GET /api/notifications/unread_count.
func (h *NotificationsHandler) UnreadCount(c *fiber.Ctx) error {
	actorID, err := currentActorID(c)
	if err != nil {
		return err
	}
	count, err := h.service.UnreadCount(c.UserContext(), actorID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"unread": count}})
}

// MarkRead POST /api/notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	actorID, err := currentActorID(c)
	if err != nil {
		return err
	}
	if err := h.service.MarkRead(c.UserContext(), actorID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllRead POST /api/notifications/mark_all_read.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	actorID, err := currentActorID(c)
	if err != nil {
		return err
	}
	updated, err := h.service.MarkAllRead(c.UserContext(), actorID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updated": updated}})
}
