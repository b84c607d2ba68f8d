// Package transport delivers outbound WhatsApp messages through Twilio,
// chunked to the transport's message-size limit.
package transport

import "context"

// MaxChunkChars is the per-message chunk size. Twilio's hard limit is about
// 1600 characters; the margin is deliberate safety slack.
const MaxChunkChars = 1500

// Sender sends one message body to one recipient.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}
