// Package flow orchestrates one inbound event end to end: identity
// resolution, context assembly, the AI call, and persistence.
package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/seekhealth/seekbot/internal/ai"
	"github.com/seekhealth/seekbot/internal/conversation"
	"github.com/seekhealth/seekbot/internal/users"
)

// UserResolver resolves sender identity. A miss returns (nil, nil).
type UserResolver interface {
	ByPhone(ctx context.Context, phone string) (*users.User, error)
}

// Store is the conversation persistence surface the flow needs.
type Store interface {
	EnsureToken(ctx context.Context, userID string) (token string, isNew bool, err error)
	RecentHistory(ctx context.Context, userID string, limit int) ([]conversation.Message, error)
	Append(ctx context.Context, input conversation.AppendInput) (conversation.Message, error)
}

// Composer renders prompts for the AI backend.
type Composer interface {
	Compose(user *users.User, history []conversation.Message, question string) string
	ComposeVision() string
}

// MediaRelay fetches inbound media bytes and re-hosts them durably.
type MediaRelay interface {
	FetchImage(ctx context.Context, mediaURL string) (data []byte, mime string, err error)
	UploadBytes(ctx context.Context, data []byte) (string, error)
}

// Reply is the outcome of a handled text event.
type Reply struct {
	Answer    string
	ChatLink  string
	IsNewUser bool
}

// Runner wires the pipeline for one inbound event.
type Runner struct {
	resolver     UserResolver
	store        Store
	composer     Composer
	responder    ai.Responder
	media        MediaRelay
	baseURL      string
	historyLimit int
	logger       *slog.Logger
}

// NewRunner creates a flow runner. baseURL is the public address of this
// service, used to build chat-history links.
func NewRunner(log *slog.Logger, resolver UserResolver, store Store, composer Composer, responder ai.Responder, media MediaRelay, baseURL string, historyLimit int) *Runner {
	if log == nil {
		log = slog.Default()
	}
	if historyLimit <= 0 {
		historyLimit = conversation.DefaultHistoryLimit
	}
	return &Runner{
		resolver:     resolver,
		store:        store,
		composer:     composer,
		responder:    responder,
		media:        media,
		baseURL:      baseURL,
		historyLimit: historyLimit,
		logger:       log.With(slog.String("service", "flow")),
	}
}

// HandleText runs the text pipeline: resolve identity, assemble context,
// persist the user turn, ask the backend, persist the bot turn. Registry
// failures degrade to the anonymous path; only an AI failure is returned to
// the caller (with no bot turn persisted).
func (r *Runner) HandleText(ctx context.Context, phone, text string) (Reply, error) {
	user, err := r.resolver.ByPhone(ctx, phone)
	if err != nil {
		// Availability over completeness: a broken registry must not stall
		// message delivery.
		r.logger.Warn("identity lookup failed, continuing anonymous",
			slog.String("phone", phone), slog.Any("error", err))
		user = nil
	}

	var (
		token     string
		isNewUser bool
		history   []conversation.Message
	)
	if user != nil {
		token, isNewUser, err = r.store.EnsureToken(ctx, user.ID)
		if err != nil {
			return Reply{}, fmt.Errorf("ensure token: %w", err)
		}
		history, err = r.store.RecentHistory(ctx, user.ID, r.historyLimit)
		if err != nil {
			r.logger.Warn("history load failed, continuing without context",
				slog.String("user_id", user.ID), slog.Any("error", err))
			history = nil
		}

		// The user turn is written before the AI call so history read by a
		// subsequent event reflects completed prior turns.
		if _, err := r.store.Append(ctx, conversation.AppendInput{
			UserID:      user.ID,
			PhoneNumber: phone,
			Token:       token,
			Role:        conversation.RoleUser,
			Content:     text,
		}); err != nil {
			r.logger.Error("persist user turn failed",
				slog.String("user_id", user.ID), slog.Any("error", err))
		}
	}

	answer, err := r.responder.Ask(ctx, r.composer.Compose(user, history, text))
	if err != nil {
		return Reply{}, err
	}

	if user != nil {
		if _, err := r.store.Append(ctx, conversation.AppendInput{
			UserID:      user.ID,
			PhoneNumber: phone,
			Token:       token,
			Role:        conversation.RoleBot,
			Content:     answer,
		}); err != nil {
			// Best effort: the reply is still delivered.
			r.logger.Error("persist bot turn failed",
				slog.String("user_id", user.ID), slog.Any("error", err))
		}
	}

	reply := Reply{Answer: answer, IsNewUser: isNewUser}
	if isNewUser && token != "" {
		reply.ChatLink = fmt.Sprintf("%s/chat/%s", r.baseURL, token)
	}
	return reply, nil
}

// HandleMedia runs the image pipeline: fetch the media bytes with transport
// credentials, re-host them durably, and ask the vision backend. The media
// path does not touch the conversation store.
func (r *Runner) HandleMedia(ctx context.Context, phone, mediaURL string) (string, error) {
	data, mime, err := r.media.FetchImage(ctx, mediaURL)
	if err != nil {
		return "", err
	}

	hosted, err := r.media.UploadBytes(ctx, data)
	if err != nil {
		return "", err
	}
	r.logger.Info("inbound media re-hosted",
		slog.String("phone", phone), slog.String("url", hosted))

	return r.responder.AskWithImage(ctx, r.composer.ComposeVision(), data, mime)
}
