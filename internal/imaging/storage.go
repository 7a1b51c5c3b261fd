package imaging

import (
	"context"
	"fmt"

	"photoshare/internal/config"
)

// Storage abstracts where uploaded photos live and how transforms are produced.
// Upload returns a publicly reachable URL and the public ID that identifies the
// stored asset for later transforms and deletes.
type Storage interface {
	Upload(ctx context.Context, content []byte, contentType string) (url string, publicID string, err error)
	Transform(ctx context.Context, publicID string, effect Effect) (url string, err error)
	Delete(ctx context.Context, publicID string) error
}

// NewStorage builds the storage backend selected by MEDIA_PROVIDER.
func NewStorage(cfg *config.Config) (Storage, error) {
	switch cfg.MediaProvider {
	case "cloudinary":
		return NewCloudinaryStorage(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinarySecret), nil
	case "local":
		return NewLocalStorage(cfg.MediaDir, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unknown media provider %q", cfg.MediaProvider)
	}
}
