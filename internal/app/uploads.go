package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"bookreviews/internal/util"
)

const presignedURLExpiry = 7 * 24 * time.Hour

// ErrUploadsDisabled is returned when no object storage is configured.
var ErrUploadsDisabled = errors.New("uploads are not configured")

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadImage stores an uploaded image under the given prefix ("covers" or
// "avatars") and returns the URL clients should place in coverImage or
// profilePicture.
func (a *App) UploadImage(ctx context.Context, prefix string, r io.Reader, size int64, contentType string) (string, error) {
	if a.objects == nil {
		return "", ErrUploadsDisabled
	}
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", validationError([]FieldError{{Message: "Unsupported image type", Path: "file"}})
	}
	key := prefix + "/" + util.NewID() + ext
	if err := a.objects.Put(ctx, key, r, size, contentType); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	if a.publicObjectURL != "" {
		return a.publicObjectURL + "/" + key, nil
	}
	url, err := a.objects.PresignGet(ctx, key, presignedURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign upload: %w", err)
	}
	return url, nil
}
