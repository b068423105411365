package domain

import "time"

// ActorRole controls access to administrative endpoints.
type ActorRole string

const (
	ActorRoleAdmin  ActorRole = "ADMIN"
	ActorRoleMember ActorRole = "MEMBER"
)

// IsValid checks if the role is known.
func (r ActorRole) IsValid() bool {
	return r == ActorRoleAdmin || r == ActorRoleMember
}

// Actor is an authenticated user performing operations.
type Actor struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         ActorRole
	CreatedAt    time.Time
}

// Profile holds presentation data for an actor.
type Profile struct {
	ActorID   string
	AvatarURL *string
	Bio       string
}
