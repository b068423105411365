package dto

import (
	"time"

	"github.com/worklane/ticket-tracker/internal/domain"
)

// CreateProjectRequest payload.
type CreateProjectRequest struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Status      domain.ProjectStatus `json:"status"`
	Type        domain.ProjectType   `json:"type"`
}

// ProjectResponse represents a project.
type ProjectResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Status      domain.ProjectStatus `json:"status"`
	Type        domain.ProjectType   `json:"type"`
	CreatedAt   time.Time            `json:"created_at"`
}

// CreateStageRequest payload.
type CreateStageRequest struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// StageResponse represents a project stage.
type StageResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Order     int    `json:"order"`
}

// CreateWorkTypeRequest payload.
type CreateWorkTypeRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

// WorkTypeResponse represents a work type.
type WorkTypeResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

// CreateTagRequest payload.
type CreateTagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// TagResponse represents a tag.
type TagResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}
