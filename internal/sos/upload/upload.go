package upload

import (
	"context"
	"errors"
)

var ErrUpload = errors.New("upload failed")

// ImageUploader hosts one encoded image and returns its public URL.
// Best-effort: callers drop the artifact on error.
type ImageUploader interface {
	Upload(ctx context.Context, image []byte) (string, error)
}

// BlobStorage writes a named blob to durable storage and returns its
// public URL.
type BlobStorage interface {
	Upload(ctx context.Context, path string, data []byte) (string, error)
}
