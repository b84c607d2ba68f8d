package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/seekhealth/seekbot/internal/conversation/flow"
	"github.com/seekhealth/seekbot/internal/transport"
)

// Fixed user-facing messages. Failures always surface as an apologetic chat
// message, never as silence or a transport-level error.
const (
	interimNotice  = "Got it! Seek is looking into that for you, one moment..."
	welcomeMessage = "Welcome to Seek! I'm your personal health and nutrition assistant. Ask me anything about your meals, medications, or wellness goals."
	apologyMessage = "Sorry, I ran into a problem answering that. Please try again in a moment."
	chatLinkFormat = "View your chat history: %s"
)

// Runner is the orchestration surface the webhook drives.
type Runner interface {
	HandleText(ctx context.Context, phone, text string) (flow.Reply, error)
	HandleMedia(ctx context.Context, phone, mediaURL string) (string, error)
}

// Deliverer sends outbound messages, chunked to the transport limit.
type Deliverer interface {
	Deliver(ctx context.Context, to, fullText string) error
}

// WebhookHandler receives inbound transport events. The acknowledgment to
// the transport is unconditionally positive: the reply travels on a separate
// outbound call, so internal failures are converted into apology messages
// instead of webhook errors.
type WebhookHandler struct {
	runner     Runner
	dispatcher Deliverer
	logger     *slog.Logger
}

// NewWebhookHandler creates the webhook handler.
func NewWebhookHandler(log *slog.Logger, runner Runner, dispatcher Deliverer) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{
		runner:     runner,
		dispatcher: dispatcher,
		logger:     log.With(slog.String("handler", "webhook")),
	}
}

func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST("/webhook", h.Receive)
}

// Receive handles one inbound event: form fields From, Body, MediaUrl0,
// NumMedia.
func (h *WebhookHandler) Receive(c echo.Context) error {
	ctx := c.Request().Context()
	phone := transport.StripWhatsAppPrefix(strings.TrimSpace(c.FormValue("From")))
	body := c.FormValue("Body")
	mediaURL := strings.TrimSpace(c.FormValue("MediaUrl0"))
	numMedia, _ := strconv.Atoi(strings.TrimSpace(c.FormValue("NumMedia")))

	if phone == "" {
		h.logger.Warn("inbound event without sender")
		return c.String(http.StatusOK, "ok")
	}

	h.deliver(ctx, phone, interimNotice)

	if numMedia > 0 && mediaURL != "" {
		h.handleMedia(ctx, phone, mediaURL)
	} else {
		h.handleText(ctx, phone, body)
	}

	return c.String(http.StatusOK, "ok")
}

func (h *WebhookHandler) handleMedia(ctx context.Context, phone, mediaURL string) {
	answer, err := h.runner.HandleMedia(ctx, phone, mediaURL)
	if err != nil {
		h.logger.Error("media pipeline failed",
			slog.String("phone", phone), slog.Any("error", err))
		h.deliver(ctx, phone, apologyMessage)
		return
	}
	h.deliver(ctx, phone, answer)
}

func (h *WebhookHandler) handleText(ctx context.Context, phone, text string) {
	reply, err := h.runner.HandleText(ctx, phone, text)
	if err != nil {
		h.logger.Error("text pipeline failed",
			slog.String("phone", phone), slog.Any("error", err))
		h.deliver(ctx, phone, apologyMessage)
		return
	}

	if reply.IsNewUser {
		h.deliver(ctx, phone, welcomeMessage)
	}
	h.deliver(ctx, phone, reply.Answer)
	if reply.IsNewUser && reply.ChatLink != "" {
		h.deliver(ctx, phone, fmt.Sprintf(chatLinkFormat, reply.ChatLink))
	}
}

// deliver is best effort: a failed outbound send is logged, not propagated,
// since the inbound acknowledgment has already been decided.
func (h *WebhookHandler) deliver(ctx context.Context, phone, text string) {
	if err := h.dispatcher.Deliver(ctx, phone, text); err != nil {
		h.logger.Error("outbound delivery failed",
			slog.String("phone", phone), slog.Any("error", err))
	}
}

