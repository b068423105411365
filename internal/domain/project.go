package domain

import "time"

// ProjectStatus enumerates project lifecycle states.
type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "ACTIVE"
	ProjectStatusArchived ProjectStatus = "ARCHIVED"
	ProjectStatusClosed   ProjectStatus = "CLOSED"
)

// ProjectType tells internal from client work.
type ProjectType string

const (
	ProjectTypeInternal ProjectType = "INTERNAL"
	ProjectTypeExternal ProjectType = "EXTERNAL"
)

// Project groups tickets.
type Project struct {
	ID          string
	Name        string
	Description string
	Status      ProjectStatus
	Type        ProjectType
	CreatedAt   time.Time
}

// Stage is an ordered phase inside a project.
type Stage struct {
	ID        string
	ProjectID string
	Name      string
	Order     int
}
