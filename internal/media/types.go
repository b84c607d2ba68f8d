// Package media re-hosts inbound transport media at durable public URLs and
// fetches image bytes for vision analysis. The transport's native media URLs
// are short-lived and authenticated, so they are unsuitable for the AI
// backend to consume directly.
package media

import (
	"context"
	"fmt"
	"io"
)

// MaxImageBytes is the largest inbound media payload the relay accepts.
const MaxImageBytes int64 = 16 * 1024 * 1024

// Uploader abstracts the object-storage collaborator: it stores image bytes
// and returns a durable public URL.
type Uploader interface {
	UploadImage(ctx context.Context, data []byte) (string, error)
}

// ReadAllWithLimit reads from reader and rejects payloads larger than maxBytes.
func ReadAllWithLimit(reader io.Reader, maxBytes int64) ([]byte, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader is required")
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("max bytes must be greater than 0")
	}
	limited := &io.LimitedReader{
		R: reader,
		N: maxBytes + 1,
	}
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: max %d bytes", ErrTooLarge, maxBytes)
	}
	return data, nil
}
