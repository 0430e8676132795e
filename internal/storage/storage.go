package storage

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrObjectNotFound = errors.New("stored object not found")
	ErrInvalidKey     = errors.New("invalid object key")
)

// Store persists documents under slash-separated keys.
type Store interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// NewObjectKey builds a collision-free key under folder keeping the upload's extension.
func NewObjectKey(folder string, filename string) string {
	extension := strings.ToLower(filepath.Ext(filename))
	if len(extension) > 10 {
		extension = ""
	}
	return path.Join(strings.Trim(folder, "/"), uuid.NewString()+extension)
}

// CleanKey rejects absolute keys and parent traversal.
func CleanKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" || strings.HasPrefix(trimmed, "/") || strings.Contains(trimmed, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(trimmed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
