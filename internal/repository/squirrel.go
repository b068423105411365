package repository

import sq "github.com/Masterminds/squirrel"

// psql is the shared Squirrel statement builder configured for PostgreSQL dollar placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const defaultListLimit = 50

func pageLimit(limit int) uint64 {
	if limit <= 0 {
		return defaultListLimit
	}
	return uint64(limit)
}

func pageOffset(offset int) uint64 {
	if offset < 0 {
		return 0
	}
	return uint64(offset)
}
