package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/seekhealth/seekbot/internal/conversation"
)

// HistoryReader reads persisted turns by conversation token.
type HistoryReader interface {
	HistoryByToken(ctx context.Context, token string) ([]conversation.Message, error)
}

// ChatEntry is one turn in the chat-history response.
type ChatEntry struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	Time    time.Time `json:"time"`
}

// ChatHistoryResponse is the chat-history payload, oldest turn first.
type ChatHistoryResponse struct {
	Messages []ChatEntry `json:"messages"`
}

// ChatHandler serves the read-only chat-history surface behind the links
// handed to first-contact users.
type ChatHandler struct {
	history HistoryReader
	logger  *slog.Logger
}

// NewChatHandler creates the chat-history handler.
func NewChatHandler(log *slog.Logger, history HistoryReader) *ChatHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ChatHandler{
		history: history,
		logger:  log.With(slog.String("handler", "chat")),
	}
}

func (h *ChatHandler) Register(e *echo.Echo) {
	e.GET("/chat/:token", h.History)
}

// History returns all turns bound to a token in chronological order.
// Malformed tokens are rejected before the store is touched.
func (h *ChatHandler) History(c echo.Context) error {
	token := c.Param("token")
	if _, err := uuid.Parse(token); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid token")
	}

	messages, err := h.history.HistoryByToken(c.Request().Context(), token)
	if err != nil {
		if errors.Is(err, conversation.ErrHistoryNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "invalid token")
		}
		h.logger.Error("history lookup failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load history")
	}

	entries := make([]ChatEntry, 0, len(messages))
	for _, msg := range messages {
		entries = append(entries, ChatEntry{
			Role:    msg.Role,
			Content: msg.Content,
			Time:    msg.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, ChatHistoryResponse{Messages: entries})
}
