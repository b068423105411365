package dto

import "time"

// StartTimerRequest payload. The body is optional.
type StartTimerRequest struct {
	WorkTypeID *string `json:"work_type_id"`
}

// TimeTrackResponse represents a timer.
type TimeTrackResponse struct {
	ID         string     `json:"id"`
	TicketID   string     `json:"ticket_id"`
	ActorID    string     `json:"actor_id"`
	WorkTypeID *string    `json:"work_type_id"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at"`
}

// TimerStopResponse reports the stopped timer and the work log it produced, if any.
type TimerStopResponse struct {
	TimeTrackID    string           `json:"time_track_id"`
	ElapsedMinutes int              `json:"elapsed_minutes"`
	WorkLog        *WorkLogResponse `json:"work_log"`
}

// CreateWorkLogRequest payload.
type CreateWorkLogRequest struct {
	TicketID   string  `json:"ticket_id"`
	WorkTypeID *string `json:"work_type_id"`
	Minutes    int     `json:"minutes"`
	Comment    string  `json:"comment"`
}

// WorkLogResponse represents logged work.
type WorkLogResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	ActorID    string    `json:"actor_id"`
	WorkTypeID *string   `json:"work_type_id"`
	Minutes    int       `json:"minutes"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

// DashboardResponse is the caller's overview.
type DashboardResponse struct {
	AssignedTickets         []TicketResponse   `json:"assigned_tickets"`
	AssignedCount           int                `json:"assigned_count"`
	MyMinutesToday          int                `json:"my_minutes_today"`
	TotalMinutesToday       int                `json:"total_minutes_today"`
	MyCompletedThisMonth    int                `json:"my_completed_this_month"`
	TotalCompletedThisMonth int                `json:"total_completed_this_month"`
	TotalProjects           int                `json:"total_projects"`
	RecentLogs              []WorkLogResponse  `json:"recent_logs"`
	ActiveTimer             *TimeTrackResponse `json:"active_timer"`
}
