// Package storage defines blob storage for short-lived audio artifacts.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by Download for a missing object.
var ErrNotFound = errors.New("storage: object not found")

// FileInfo contains metadata about a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// Storage is the blob store behind uploaded recordings.
type Storage interface {
	// Upload writes reader to path and returns the number of bytes written.
	Upload(ctx context.Context, path string, reader io.Reader) (int64, error)

	// Download returns a reader for the object at path. Callers close it.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at path. Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error

	// Exists reports whether an object exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// List returns metadata for objects whose path starts with prefix.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}
