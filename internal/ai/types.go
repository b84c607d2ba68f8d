// Package ai calls the generative backend that produces assistant replies.
package ai

import (
	"context"
	"errors"
)

// ErrService wraps any backend failure, including timeouts. Callers decide
// the user-facing treatment; the responder never retries.
var ErrService = errors.New("ai service unavailable")

// Responder produces assistant replies for text and vision requests.
type Responder interface {
	Ask(ctx context.Context, prompt string) (string, error)
	AskWithImage(ctx context.Context, prompt string, image []byte, mime string) (string, error)
}
