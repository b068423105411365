package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/worklane/ticket-tracker/internal/api/dto"
	"github.com/worklane/ticket-tracker/internal/service"
	apperrors "github.com/worklane/ticket-tracker/pkg/util/errorutil"
)

// CatalogHandler exposes projects, stages, work types and tags.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// CreateProject POST /api/projects.
func (h *CatalogHandler) CreateProject(c *fiber.Ctx) error {
	var req dto.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	project, err := h.catalog.CreateProject(c.UserContext(), service.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Type:        req.Type,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Status:      project.Status,
		Type:        project.Type,
		CreatedAt:   project.CreatedAt,
	}})
}

// ListProjects GET /api/projects.
func (h *CatalogHandler) ListProjects(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	projects, err := h.catalog.ListProjects(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	resp := make([]dto.ProjectResponse, 0, len(projects))
	for _, p := range projects {
		resp = append(resp, dto.ProjectResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Status:      p.Status,
			Type:        p.Type,
			CreatedAt:   p.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// CreateStage POST /api/projects/:id/stages.
func (h *CatalogHandler) CreateStage(c *fiber.Ctx) error {
	var req dto.CreateStageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	stage, err := h.catalog.CreateStage(c.UserContext(), c.Params("id"), req.Name, req.Order)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.StageResponse{
		ID:        stage.ID,
		ProjectID: stage.ProjectID,
		Name:      stage.Name,
		Order:     stage.Order,
	}})
}

// ListStages GET /api/projects/:id/stages.
func (h *CatalogHandler) ListStages(c *fiber.Ctx) error {
	stages, err := h.catalog.ListStages(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	resp := make([]dto.StageResponse, 0, len(stages))
	for _, s := range stages {
		resp = append(resp, dto.StageResponse{ID: s.ID, ProjectID: s.ProjectID, Name: s.Name, Order: s.Order})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// CreateWorkType POST /api/worktypes.
func (h *CatalogHandler) CreateWorkType(c *fiber.Ctx) error {
	var req dto.CreateWorkTypeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	workType, err := h.catalog.CreateWorkType(c.UserContext(), req.Name, req.ParentID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.WorkTypeResponse{
		ID:       workType.ID,
		Name:     workType.Name,
		ParentID: workType.ParentID,
	}})
}

// ListWorkTypes GET /api/worktypes.
func (h *CatalogHandler) ListWorkTypes(c *fiber.Ctx) error {
	types, err := h.catalog.ListWorkTypes(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.WorkTypeResponse, 0, len(types))
	for _, t := range types {
		resp = append(resp, dto.WorkTypeResponse{ID: t.ID, Name: t.Name, ParentID: t.ParentID})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// CreateTag POST /api/tags.
func (h *CatalogHandler) CreateTag(c *fiber.Ctx) error {
	var req dto.CreateTagRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	tag, err := h.catalog.CreateTag(c.UserContext(), req.Name, req.Color)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TagResponse{ID: tag.ID, Name: tag.Name, Color: tag.Color}})
}

// ListTags GET /api/tags.
func (h *CatalogHandler) ListTags(c *fiber.Ctx) error {
	tags, err := h.catalog.ListTags(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.TagResponse, 0, len(tags))
	for _, t := range tags {
		resp = append(resp, dto.TagResponse{ID: t.ID, Name: t.Name, Color: t.Color})
	}
	return c.JSON(fiber.Map{"data": resp})
}
