// Package cloudinary implements the media Uploader against Cloudinary.
package cloudinary

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Provider uploads images to a Cloudinary folder and returns the secure URL.
type Provider struct {
	client *cloudinary.Cloudinary
	folder string
}

// New creates a Cloudinary provider.
func New(cloudName, apiKey, apiSecret, folder string) (*Provider, error) {
	client, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	if folder == "" {
		folder = "seek-bot"
	}
	return &Provider{client: client, folder: folder}, nil
}

// UploadImage stores image bytes and returns the durable public URL.
func (p *Provider) UploadImage(ctx context.Context, data []byte) (string, error) {
	resp, err := p.client.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:       p.folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp == nil || resp.SecureURL == "" {
		return "", fmt.Errorf("cloudinary upload: empty secure url")
	}
	return resp.SecureURL, nil
}
