package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/worklane/ticket-tracker/internal/domain"
)

// ProjectRepository manages projects and their stages.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context, limit, offset int) ([]domain.Project, error)
	Count(ctx context.Context) (int, error)
	CreateStage(ctx context.Context, stage *domain.Stage) error
	GetStage(ctx context.Context, id string) (*domain.Stage, error)
	// ListStages returns a project's stages in their configured order.
	ListStages(ctx context.Context, projectID string) ([]domain.Stage, error)
}

var projectColumns = []string{"id", "name", "description", "status", "type", "created_at"}

type projectRepository struct {
	db querier
}

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	query, args, err := psql.
		Insert("projects").
		Columns("name", "description", "status", "type", "created_at").
		Values(project.Name, project.Description, project.Status, project.Type, project.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(&project.ID); err != nil {
		return mapError("project", idDetails("name", project.Name), err)
	}
	return nil
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	query, args, err := psql.Select(projectColumns...).From("projects").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var p domain.Project
	if err := r.db.QueryRow(ctx, query, args...).Scan(&p.ID, &p.Name, &p.Description, &p.Status, &p.Type, &p.CreatedAt); err != nil {
		return nil, mapError("project", idDetails("project_id", id), err)
	}
	return &p, nil
}

func (r *projectRepository) List(ctx context.Context, limit, offset int) ([]domain.Project, error) {
	query, args, err := psql.
		Select(projectColumns...).
		From("projects").
		OrderBy("name").
		Limit(pageLimit(limit)).
		Offset(pageOffset(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("project", nil, err)
	}
	defer rows.Close()

	var result []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Status, &p.Type, &p.CreatedAt); err != nil {
			return nil, mapError("project", nil, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("project", nil, err)
	}
	return result, nil
}

func (r *projectRepository) Count(ctx context.Context) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From("projects").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, mapError("project", nil, err)
	}
	return count, nil
}

func (r *projectRepository) CreateStage(ctx context.Context, stage *domain.Stage) error {
	query, args, err := psql.
		Insert("stages").
		Columns("project_id", "name", "position").
		Values(stage.ProjectID, stage.Name, stage.Order).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(&stage.ID); err != nil {
		return mapError("stage", idDetails("project_id", stage.ProjectID), err)
	}
	return nil
}

func (r *projectRepository) GetStage(ctx context.Context, id string) (*domain.Stage, error) {
	query, args, err := psql.
		Select("id", "project_id", "name", "position").
		From("stages").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var s domain.Stage
	if err := r.db.QueryRow(ctx, query, args...).Scan(&s.ID, &s.ProjectID, &s.Name, &s.Order); err != nil {
		return nil, mapError("stage", idDetails("stage_id", id), err)
	}
	return &s, nil
}

func (r *projectRepository) ListStages(ctx context.Context, projectID string) ([]domain.Stage, error) {
	query, args, err := psql.
		Select("id", "project_id", "name", "position").
		From("stages").
		Where(sq.Eq{"project_id": projectID}).
		OrderBy("position", "name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("stage", nil, err)
	}
	defer rows.Close()

	var result []domain.Stage
	for rows.Next() {
		var s domain.Stage
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Name, &s.Order); err != nil {
			return nil, mapError("stage", nil, err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("stage", nil, err)
	}
	return result, nil
}
