// Package history records one event per transfer attempt. Events are handed
// to a queue by a fire-and-forget Recorder and persisted by a Processor, so
// a slow or failing repository never holds up a conversation.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is one line of a user's history.
type Event struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"user_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewEvent stamps a new event with a random id.
func NewEvent(userID int64, description string, at time.Time) Event {
	return Event{
		ID:          uuid.NewString(),
		UserID:      userID,
		Description: description,
		CreatedAt:   at.UTC(),
	}
}

// Repository persists events.
type Repository interface {
	Append(ctx context.Context, event Event) error
	// ListByUser returns the newest events of userID first.
	ListByUser(ctx context.Context, userID int64, limit int) ([]Event, error)
}
