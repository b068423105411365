package dto

import (
	"time"

	"github.com/worklane/ticket-tracker/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateActorRequest provisions an actor together with its profile.
type CreateActorRequest struct {
	Username  string           `json:"username"`
	Password  string           `json:"password"`
	Email     string           `json:"email"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Role      domain.ActorRole `json:"role"`
	Bio       string           `json:"bio"`
	AvatarURL *string          `json:"avatar_url"`
}

// ActorResponse never carries the password hash.
type ActorResponse struct {
	ID        string           `json:"id"`
	Username  string           `json:"username"`
	Email     string           `json:"email"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Role      domain.ActorRole `json:"role"`
	CreatedAt time.Time        `json:"created_at"`
}

// ProfileResponse is the actor's presentation data.
type ProfileResponse struct {
	AvatarURL *string `json:"avatar_url"`
	Bio       string  `json:"bio"`
}

// ActorProfileResponse combines actor and profile.
type ActorProfileResponse struct {
	ActorResponse
	Profile *ProfileResponse `json:"profile"`
}
