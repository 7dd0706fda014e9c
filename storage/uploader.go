// Package storage хранит пользовательские файлы (аватары, фото площадок) во внешнем объектном хранилище.
package storage

import (
	"context"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader - объектное хранилище с публичной раздачей по ключу.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	// GetPublicURL returns "" when no public URL can be built for key.
	GetPublicURL(key string) string
}
