package storage

import (
	"context"
	"io"
	"time"
)

// Storage defines the minimal interface for durable file storage backends.
// Keys are flat file names; GetURL maps them to the public path or URL.
type Storage interface {
	// Put stores a file under key.
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Delete removes a file by key. Returns nil if the file doesn't exist.
	Delete(ctx context.Context, key string) error

	// GetURL returns the public URL for a key.
	GetURL(key string) string
}

// Lister is implemented by backends that can enumerate stored files
type Lister interface {
	List(ctx context.Context) ([]FileInfo, error)
}

// FileInfo describes a stored file
type FileInfo struct {
	Key     string
	Size    int64
	URL     string
	ModTime time.Time
}
