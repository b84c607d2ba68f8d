// Package conversation persists chat turns and the per-user tokens that bind
// them into retrievable threads.
package conversation

import (
	"errors"
	"time"
)

// Message role constants.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// ErrHistoryNotFound indicates a token with no persisted messages.
var ErrHistoryNotFound = errors.New("no messages for token")

// Message is one persisted turn. Rows are append-only; anonymous senders
// have no user id or token.
type Message struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id,omitempty"`
	PhoneNumber string    `json:"phone_number"`
	Token       string    `json:"token,omitempty"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// AppendInput carries the fields for persisting one turn.
type AppendInput struct {
	UserID      string
	PhoneNumber string
	Token       string
	Role        string
	Content     string
}
