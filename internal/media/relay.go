package media

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Relay downloads media from the transport's authenticated media host and
// re-hosts it through the Uploader. It never retries; the caller decides
// whether a failure warrants a user-facing apology.
type Relay struct {
	httpClient *http.Client
	uploader   Uploader
	username   string
	password   string
	logger     *slog.Logger
}

// NewRelay creates a media relay. username/password are the transport
// credentials used for the media fetch.
func NewRelay(log *slog.Logger, uploader Uploader, username, password string) *Relay {
	if log == nil {
		log = slog.Default()
	}
	return &Relay{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		uploader:   uploader,
		username:   username,
		password:   password,
		logger:     log.With(slog.String("service", "media")),
	}
}

// Relay fetches the media at mediaURL and re-hosts it, returning the durable
// public URL.
func (r *Relay) Relay(ctx context.Context, mediaURL string) (string, error) {
	data, _, err := r.FetchImage(ctx, mediaURL)
	if err != nil {
		return "", err
	}
	hosted, err := r.uploader.UploadImage(ctx, data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	r.logger.Info("media re-hosted",
		slog.Int("size_bytes", len(data)),
		slog.String("url", hosted))
	return hosted, nil
}

// FetchImage downloads the media bytes with transport credentials and
// returns them together with the reported content type.
func (r *Relay) FetchImage(ctx context.Context, mediaURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.SetBasicAuth(r.username, r.password)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("%w: unexpected status %d", ErrFetch, resp.StatusCode)
	}

	data, err := ReadAllWithLimit(resp.Body, MaxImageBytes)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrFetch, err)
	}

	mime := resp.Header.Get("Content-Type")
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	if mime == "" {
		mime = "image/jpeg"
	}
	return data, mime, nil
}

// UploadBytes re-hosts already-fetched media bytes, skipping the fetch step.
func (r *Relay) UploadBytes(ctx context.Context, data []byte) (string, error) {
	hosted, err := r.uploader.UploadImage(ctx, data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	return hosted, nil
}
