package domain

import "time"

// TimeTrack is a tracking interval. A nil EndedAt means the timer is running.
type TimeTrack struct {
	ID         string
	TicketID   string
	ActorID    string
	WorkTypeID *string
	StartedAt  time.Time
	EndedAt    *time.Time
}

// IsRunning reports whether the timer has not been stopped yet.
func (t *TimeTrack) IsRunning() bool {
	return t.EndedAt == nil
}

// ElapsedMinutes returns whole minutes between start and end, truncated.
// Negative spans (clock skew) count as zero.
func ElapsedMinutes(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}
