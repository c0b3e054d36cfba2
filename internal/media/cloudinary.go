// Package media stores tour images on Cloudinary.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/iliyamo/travel-agency-booking/internal/settings"
)

// DefaultFolder is used when an upload names no folder.
const DefaultFolder = "travel-agency"

// MaxUploadBytes caps a single image.
const MaxUploadBytes = 5 << 20

var ErrNotConfigured = errors.New("image host not configured")

// Image is a stored upload.
type Image struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
}

// Store uploads and deletes images.
type Store interface {
	Upload(ctx context.Context, file io.Reader, folder string) (*Image, error)
	Destroy(ctx context.Context, publicID string) error
}

// Cloudinary builds a client from current settings on each call.
type Cloudinary struct {
	settings *settings.Resolver
}

func NewCloudinary(s *settings.Resolver) *Cloudinary { return &Cloudinary{settings: s} }

func (c *Cloudinary) client(ctx context.Context) (*cloudinary.Cloudinary, error) {
	cfg := c.settings.Cloudinary(ctx)
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	cld.Config.URL.Secure = true
	return cld, nil
}

func (c *Cloudinary) Upload(ctx context.Context, file io.Reader, folder string) (*Image, error) {
	cld, err := c.client(ctx)
	if err != nil {
		return nil, err
	}
	if folder == "" {
		folder = DefaultFolder
	}
	res, err := cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "image",
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	return &Image{PublicID: res.PublicID, SecureURL: res.SecureURL}, nil
}

func (c *Cloudinary) Destroy(ctx context.Context, publicID string) error {
	cld, err := c.client(ctx)
	if err != nil {
		return err
	}
	res, err := cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", res.Error.Message)
	}
	return nil
}
