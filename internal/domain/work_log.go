package domain

import "time"

// AutoTrackedComment marks work logs produced by stopping a timer.
const AutoTrackedComment = "Automatically tracked"

// WorkType classifies logged work. Types may be nested one level under a parent.
type WorkType struct {
	ID       string
	Name     string
	ParentID *string
}

// WorkLog records minutes spent by an actor on a ticket.
type WorkLog struct {
	ID         string
	TicketID   string
	ActorID    string
	WorkTypeID *string
	Minutes    int
	Comment    string
	CreatedAt  time.Time
}
