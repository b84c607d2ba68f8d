package transport

import (
	"context"
	"fmt"
	"log/slog"
)

// Dispatcher splits outbound messages into transport-safe chunks and sends
// them in order. Chunk sends are independent transport calls: a failure
// mid-sequence leaves earlier chunks delivered, and nothing is rolled back.
type Dispatcher struct {
	sender Sender
	limit  int
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher over the given sender.
func NewDispatcher(log *slog.Logger, sender Sender) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		sender: sender,
		limit:  MaxChunkChars,
		logger: log.With(slog.String("service", "dispatcher")),
	}
}

// Deliver sends fullText to the recipient, chunked and in order. Returns the
// first send error; chunks already sent stay delivered.
func (d *Dispatcher) Deliver(ctx context.Context, to, fullText string) error {
	chunks := SplitMessage(fullText, d.limit)
	for i, chunk := range chunks {
		if err := d.sender.Send(ctx, to, chunk); err != nil {
			return fmt.Errorf("send chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	if len(chunks) > 1 {
		d.logger.Debug("delivered chunked message",
			slog.String("to", to),
			slog.Int("chunks", len(chunks)))
	}
	return nil
}
