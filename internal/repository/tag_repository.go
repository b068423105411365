package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/worklane/ticket-tracker/internal/domain"
)

// TagRepository manages the tag palette.
type TagRepository interface {
	// Create fails with a conflict when the name is taken.
	Create(ctx context.Context, tag *domain.Tag) error
	GetByName(ctx context.Context, name string) (*domain.Tag, error)
	List(ctx context.Context) ([]domain.Tag, error)
}

type tagRepository struct {
	db querier
}

func (r *tagRepository) Create(ctx context.Context, tag *domain.Tag) error {
	query, args, err := psql.
		Insert("tags").
		Columns("name", "color").
		Values(tag.Name, tag.Color).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(&tag.ID); err != nil {
		return mapError("tag", idDetails("name", tag.Name), err)
	}
	return nil
}

func (r *tagRepository) GetByName(ctx context.Context, name string) (*domain.Tag, error) {
	query, args, err := psql.Select("id", "name", "color").From("tags").Where(sq.Eq{"name": name}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var tag domain.Tag
	if err := r.db.QueryRow(ctx, query, args...).Scan(&tag.ID, &tag.Name, &tag.Color); err != nil {
		return nil, mapError("tag", idDetails("name", name), err)
	}
	return &tag, nil
}

func (r *tagRepository) List(ctx context.Context) ([]domain.Tag, error) {
	query, args, err := psql.Select("id", "name", "color").From("tags").OrderBy("name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("tag", nil, err)
	}
	defer rows.Close()

	var result []domain.Tag
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Color); err != nil {
			return nil, mapError("tag", nil, err)
		}
		result = append(result, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("tag", nil, err)
	}
	return result, nil
}
