package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/worklane/ticket-tracker/pkg/util/errorutil"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidTextRepr     = "22P02"
)

// mapError translates driver errors into the record store taxonomy: missing rows and malformed ids
// are NOT_FOUND, uniqueness violations are CONFLICT, everything else is a DEPENDENCY_FAILURE.
func mapError(resource string, details map[string]any, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *errorutil.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errorutil.NewNotFound(resource, details)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return errorutil.NewConflict(resource+" violates a uniqueness rule", withDetail(details, "constraint", pgErr.ConstraintName))
		case pgForeignKeyViolation:
			return errorutil.NewNotFound("referenced record", withDetail(details, "constraint", pgErr.ConstraintName))
		case pgInvalidTextRepr:
			return errorutil.NewNotFound(resource, details)
		}
	}
	return errorutil.NewDependencyError(resource+" store", err)
}

func withDetail(details map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(details)+1)
	for k, v := range details {
		out[k] = v
	}
	out[key] = value
	return out
}

func idDetails(key, id string) map[string]any {
	return map[string]any{key: id}
}
