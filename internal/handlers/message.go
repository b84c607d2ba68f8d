package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/seekhealth/seekbot/internal/ai"
)

// MessageRequest is the internal message endpoint's JSON body.
type MessageRequest struct {
	Phone   string `json:"phone" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// MessageResponse carries the answer; ChatLink is set only on first contact.
type MessageResponse struct {
	Answer   string `json:"answer"`
	ChatLink string `json:"chat_link,omitempty"`
}

// ErrorResponse is the structured error body.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MessageHandler exposes the text pipeline over JSON for internal callers.
type MessageHandler struct {
	runner   Runner
	validate *validator.Validate
	logger   *slog.Logger
}

// NewMessageHandler creates the message handler.
func NewMessageHandler(log *slog.Logger, runner Runner) *MessageHandler {
	if log == nil {
		log = slog.Default()
	}
	return &MessageHandler{
		runner:   runner,
		validate: validator.New(),
		logger:   log.With(slog.String("handler", "message")),
	}
}

func (h *MessageHandler) Register(e *echo.Echo) {
	e.POST("/message", h.Receive)
}

// Receive handles one text message and returns the answer, plus the chat
// link when this is the sender's first contact.
func (h *MessageHandler) Receive(c echo.Context) error {
	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	reply, err := h.runner.HandleText(c.Request().Context(), req.Phone, req.Message)
	if err != nil {
		if errors.Is(err, ai.ErrService) {
			h.logger.Error("ai backend failed", slog.Any("error", err))
			return c.JSON(http.StatusBadGateway, ErrorResponse{Detail: "assistant is temporarily unavailable"})
		}
		h.logger.Error("message pipeline failed", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "failed to process message"})
	}

	resp := MessageResponse{Answer: reply.Answer}
	if reply.IsNewUser {
		resp.ChatLink = reply.ChatLink
	}
	return c.JSON(http.StatusOK, resp)
}
