package attachment

import (
	"context"
	"fmt"

	"custodia/internal/platform/config"
)

// FromConfig selects the attachment driver.
func FromConfig(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(cfg.LocalDir)
	case "s3":
		return NewS3Store(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Prefix:    cfg.S3Prefix,
			Endpoint:  cfg.Endpoint,
			PathStyle: cfg.PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown attachment driver %q", cfg.Driver)
	}
}
