package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/worklane/ticket-tracker/internal/api/dto"
	"github.com/worklane/ticket-tracker/internal/service"
	apperrors "github.com/worklane/ticket-tracker/pkg/util/errorutil"
)

// ActorsHandler exposes login and actor administration.
type ActorsHandler struct {
	actors *service.ActorService
}

// NewActorsHandler constructs handler.
func NewActorsHandler(actorService *service.ActorService) *ActorsHandler {
	return &ActorsHandler{actors: actorService}
}

// Login handles POST /api/auth/login.
func (h *ActorsHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	result, err := h.actors.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"actor": actorResponse(result.Actor),
			"auth":  dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt},
		},
	})
}

// Create handles POST /api/actors.
func (h *ActorsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateActorRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	provisioned, err := h.actors.ProvisionActor(c.UserContext(), service.ProvisionInput{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": actorProfileResponse(provisioned)})
}

// List handles GET /api/actors.
func (h *ActorsHandler) List(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	actors, err := h.actors.ListActors(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	resp := make([]dto.ActorResponse, 0, len(actors))
	for i := range actors {
		resp = append(resp, actorResponse(&actors[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Me handles GET /api/actors/me.
func (h *ActorsHandler) Me(c *fiber.Ctx) error {
	actorID, err := currentActorID(c)
	if err != nil {
		return err
	}
	me, err := h.actors.Me(c.UserContext(), actorID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": actorProfileResponse(me)})
}
