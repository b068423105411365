package service

import (
	"context"
	"strings"

	"github.com/worklane/ticket-tracker/internal/domain"
	"github.com/worklane/ticket-tracker/internal/repository"
	"github.com/worklane/ticket-tracker/pkg/util/errorutil"
)

// CatalogService manages projects, stages, work types and tags.
type CatalogService struct {
	store repository.Store
	clock Clock
}

// CatalogDependencies bundles catalog collaborators.
type CatalogDependencies struct {
	Store repository.Store
	Clock Clock
}

// ProjectInput describes a new project.
type ProjectInput struct {
	Name        string
	Description string
	Status      domain.ProjectStatus
	Type        domain.ProjectType
}

// NewCatalogService constructs the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	return &CatalogService{store: deps.Store, clock: clockOrDefault(deps.Clock)}
}

// CreateProject stores a project, defaulting to an active internal one.
func (s *CatalogService) CreateProject(ctx context.Context, input ProjectInput) (*domain.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errorutil.NewValidationError("project name is required", map[string]any{"field": "name"})
	}
	if input.Status == "" {
		input.Status = domain.ProjectStatusActive
	}
	if input.Type == "" {
		input.Type = domain.ProjectTypeInternal
	}
	switch input.Status {
	case domain.ProjectStatusActive, domain.ProjectStatusArchived, domain.ProjectStatusClosed:
	default:
		return nil, errorutil.NewValidationError("invalid project status", map[string]any{"status": input.Status})
	}
	switch input.Type {
	case domain.ProjectTypeInternal, domain.ProjectTypeExternal:
	default:
		return nil, errorutil.NewValidationError("invalid project type", map[string]any{"type": input.Type})
	}

	project := &domain.Project{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Status:      input.Status,
		Type:        input.Type,
		CreatedAt:   s.clock(),
	}
	if err := s.store.Repos().Projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// ListProjects returns projects by name.
func (s *CatalogService) ListProjects(ctx context.Context, limit, offset int) ([]domain.Project, error) {
	return s.store.Repos().Projects.List(ctx, limit, offset)
}

// CreateStage appends a stage to a project.
func (s *CatalogService) CreateStage(ctx context.Context, projectID, name string, order int) (*domain.Stage, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errorutil.NewValidationError("stage name is required", map[string]any{"field": "name"})
	}
	if order < 0 {
		return nil, errorutil.NewValidationError("stage order must not be negative", map[string]any{"order": order})
	}
	stage := &domain.Stage{ProjectID: projectID, Name: name, Order: order}
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Projects.GetByID(ctx, projectID); err != nil {
			return err
		}
		return repos.Projects.CreateStage(ctx, stage)
	})
	if err != nil {
		return nil, err
	}
	return stage, nil
}

// ListStages returns a project's stages in order.
func (s *CatalogService) ListStages(ctx context.Context, projectID string) ([]domain.Stage, error) {
	repos := s.store.Repos()
	if _, err := repos.Projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return repos.Projects.ListStages(ctx, projectID)
}

// CreateWorkType stores a work type. Nesting is limited to one level.
func (s *CatalogService) CreateWorkType(ctx context.Context, name string, parentID *string) (*domain.WorkType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errorutil.NewValidationError("work type name is required", map[string]any{"field": "name"})
	}
	workType := &domain.WorkType{Name: name, ParentID: parentID}
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if parentID != nil {
			parent, err := repos.WorkTypes.GetByID(ctx, *parentID)
			if err != nil {
				return err
			}
			if parent.ParentID != nil {
				return errorutil.NewValidationError("work types nest one level only", map[string]any{"parent_id": *parentID})
			}
		}
		return repos.WorkTypes.Create(ctx, workType)
	})
	if err != nil {
		return nil, err
	}
	return workType, nil
}

// ListWorkTypes returns the catalog by name.
func (s *CatalogService) ListWorkTypes(ctx context.Context) ([]domain.WorkType, error) {
	return s.store.Repos().WorkTypes.List(ctx)
}

// CreateTag adds a tag to the palette. Names are unique; the color defaults to DefaultTagColor.
func (s *CatalogService) CreateTag(ctx context.Context, name, color string) (*domain.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errorutil.NewValidationError("tag name is required", map[string]any{"field": "name"})
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = domain.DefaultTagColor
	}
	if !domain.IsValidTagColor(color) {
		return nil, errorutil.NewValidationError("tag color must be a hex value", map[string]any{"color": color})
	}
	tag := &domain.Tag{Name: name, Color: strings.ToLower(color)}
	if err := s.store.Repos().Tags.Create(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// ListTags returns the palette by name.
func (s *CatalogService) ListTags(ctx context.Context) ([]domain.Tag, error) {
	return s.store.Repos().Tags.List(ctx)
}
