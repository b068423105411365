package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/worklane/ticket-tracker/internal/domain"
)

// WorkTypeRepository manages the work classification catalog.
type WorkTypeRepository interface {
	Create(ctx context.Context, workType *domain.WorkType) error
	GetByID(ctx context.Context, id string) (*domain.WorkType, error)
	List(ctx context.Context) ([]domain.WorkType, error)
}

type workTypeRepository struct {
	db querier
}

func (r *workTypeRepository) Create(ctx context.Context, workType *domain.WorkType) error {
	query, args, err := psql.
		Insert("work_types").
		Columns("name", "parent_id").
		Values(workType.Name, workType.ParentID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(&workType.ID); err != nil {
		return mapError("work type", idDetails("name", workType.Name), err)
	}
	return nil
}

func (r *workTypeRepository) GetByID(ctx context.Context, id string) (*domain.WorkType, error) {
	query, args, err := psql.Select("id", "name", "parent_id").From("work_types").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var wt domain.WorkType
	if err := r.db.QueryRow(ctx, query, args...).Scan(&wt.ID, &wt.Name, &wt.ParentID); err != nil {
		return nil, mapError("work type", idDetails("work_type_id", id), err)
	}
	return &wt, nil
}

func (r *workTypeRepository) List(ctx context.Context) ([]domain.WorkType, error) {
	query, args, err := psql.Select("id", "name", "parent_id").From("work_types").OrderBy("name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("work type", nil, err)
	}
	defer rows.Close()

	var result []domain.WorkType
	for rows.Next() {
		var wt domain.WorkType
		if err := rows.Scan(&wt.ID, &wt.Name, &wt.ParentID); err != nil {
			return nil, mapError("work type", nil, err)
		}
		result = append(result, wt)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("work type", nil, err)
	}
	return result, nil
}
