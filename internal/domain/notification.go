package domain

import "time"

// Notification is a polled message addressed to one actor.
type Notification struct {
	ID          string
	RecipientID string
	Message     string
	Link        *string
	IsRead      bool
	CreatedAt   time.Time
}
