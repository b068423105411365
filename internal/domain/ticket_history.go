package domain

import "time"

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID        string
	TicketID  string
	ActorID   *string // nil for system entries
	Action    string
	CreatedAt time.Time
}

// IsSystemEntry returns true if the entry was written by the system.
func (h *TicketHistory) IsSystemEntry() bool {
	return h.ActorID == nil
}
