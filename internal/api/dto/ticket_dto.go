package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/worklane/ticket-tracker/internal/domain"
)

// Nullable tells an absent JSON key (Set false) apart from an explicit null (Set true, Value nil).
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON is only called when the key is present.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	ProjectID   string                `json:"project_id"`
	StageID     *string               `json:"stage_id"`
	AssigneeID  *string               `json:"assignee_id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	Tags        []string              `json:"tags"`
	StartDate   *time.Time            `json:"start_date"`
	DueDate     *time.Time            `json:"due_date"`
}

// UpdateTicketRequest is a partial update. Send null to clear a nullable field.
type UpdateTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Status      *domain.TicketStatus   `json:"status"`
	Priority    *domain.TicketPriority `json:"priority"`
	Tags        *[]string              `json:"tags"`
	StageID     Nullable[string]       `json:"stage_id"`
	AssigneeID  Nullable[string]       `json:"assignee_id"`
	StartDate   Nullable[time.Time]    `json:"start_date"`
	DueDate     Nullable[time.Time]    `json:"due_date"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Text string `json:"text"`
}

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	ID          string                `json:"id"`
	ProjectID   string                `json:"project_id"`
	StageID     *string               `json:"stage_id"`
	CreatorID   string                `json:"creator_id"`
	AssigneeID  *string               `json:"assignee_id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	Tags        []string              `json:"tags"`
	StartDate   *time.Time            `json:"start_date"`
	DueDate     *time.Time            `json:"due_date"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketResponse
	Comments      []CommentResponse       `json:"comments"`
	History       []TicketHistoryResponse `json:"history"`
	ActiveTimerID *string                 `json:"active_timer_id"`
}

// TicketMutationResponse wraps a committed ticket write.
type TicketMutationResponse struct {
	Ticket  TicketResponse         `json:"ticket"`
	History *TicketHistoryResponse `json:"history,omitempty"`
}

// CommentResponse represents one comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketHistoryResponse represents an audit entry.
type TicketHistoryResponse struct {
	ID        string    `json:"id"`
	ActorID   *string   `json:"actor_id"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}
