package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Gemini is the production Responder backed by the Gemini API.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewGemini creates a Gemini responder. The timeout bounds every call so a
// stuck backend surfaces as ErrService instead of holding the request open.
func NewGemini(ctx context.Context, log *slog.Logger, apiKey, model string, timeout time.Duration) (*Gemini, error) {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	return &Gemini{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  log.With(slog.String("service", "ai")),
	}, nil
}

// Ask sends a text prompt and returns the reply verbatim.
func (g *Gemini) Ask(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	return g.generate(ctx, contents)
}

// AskWithImage sends a prompt plus inline image bytes for vision analysis.
func (g *Gemini) AskWithImage(ctx context.Context, prompt string, image []byte, mime string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(image, mime),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	return g.generate(ctx, contents)
}

func (g *Gemini) generate(ctx context.Context, contents []*genai.Content) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	started := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrService, err)
	}
	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrService)
	}
	g.logger.Debug("generate content",
		slog.String("model", g.model),
		slog.Duration("latency", time.Since(started)))
	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
