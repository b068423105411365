package domain

import "time"

// Comment is a discussion message on a ticket.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Text      string
	CreatedAt time.Time
}
