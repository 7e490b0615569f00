// Package session persists transfer conversation records between inputs.
// A store holds at most one record per session id; records expire after the
// store's TTL.
package session

import (
	"context"
	"time"
)

// State is a transfer conversation state.
type State string

const (
	StateIdle                 State = "idle"
	StateAwaitingAmount       State = "awaiting_amount"
	StateAwaitingRecipient    State = "awaiting_recipient"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateTerminated           State = "terminated"
)

// Pending holds the values collected so far. Amount is the canonical
// decimal string of a validated amount; Recipient a checksummed address.
type Pending struct {
	Amount    string `json:"amount,omitempty"`
	Recipient string `json:"recipient,omitempty"`
}

// Record is the persisted state of one conversation. It never holds key
// material.
type Record struct {
	SessionID string    `json:"session_id"`
	UserID    int64     `json:"user_id"`
	State     State     `json:"state"`
	Pending   Pending   `json:"pending"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the session persistence contract. Load reports ok=false when no
// record exists for id.
type Store interface {
	Load(ctx context.Context, id string) (Record, bool, error)
	Save(ctx context.Context, rec Record) error
	Delete(ctx context.Context, id string) error
	Close() error
}
