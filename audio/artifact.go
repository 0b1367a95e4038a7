package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/voxboard/storage"
)

// Artifact is a sealed recording. Whoever holds it must call Release exactly
// once when done; extra calls are no-ops, so a deferred Release is always safe.
type Artifact struct {
	Name     string
	MIME     string
	Size     int64
	Format   Format
	Duration time.Duration

	open   func(ctx context.Context) (io.ReadCloser, error)
	remove func(ctx context.Context) error

	releaseOnce sync.Once
	releaseErr  error
	released    atomic.Bool
}

// NewArtifact builds an artifact over arbitrary open/remove callbacks.
func NewArtifact(name, mime string, size int64, open func(context.Context) (io.ReadCloser, error), remove func(context.Context) error) *Artifact {
	return &Artifact{Name: name, MIME: mime, Size: size, open: open, remove: remove}
}

// NewFileArtifact wraps a file on local disk. Release deletes the file.
func NewFileArtifact(path string) (*Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("audio: stat artifact: %w", err)
	}
	a := NewArtifact(filepath.Base(path), MIMEWAV, info.Size(),
		func(context.Context) (io.ReadCloser, error) { return os.Open(path) },
		func(context.Context) error {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return err
			}
			return nil
		})
	return a, nil
}

// NewStoredArtifact wraps an object held in a storage backend. Release deletes it.
func NewStoredArtifact(store storage.Storage, key, mime string, size int64) *Artifact {
	return NewArtifact(key, mime, size,
		func(ctx context.Context) (io.ReadCloser, error) { return store.Download(ctx, key) },
		func(ctx context.Context) error { return store.Delete(ctx, key) })
}

// Open returns a reader over the artifact's bytes.
func (a *Artifact) Open(ctx context.Context) (io.ReadCloser, error) {
	if a.released.Load() {
		return nil, fmt.Errorf("audio: artifact %s already released", a.Name)
	}
	return a.open(ctx)
}

// Bytes reads the whole artifact into memory.
func (a *Artifact) Bytes(ctx context.Context) ([]byte, error) {
	rc, err := a.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Inspect reads the artifact header and records its format and duration.
func (a *Artifact) Inspect(ctx context.Context) error {
	data, err := a.Bytes(ctx)
	if err != nil {
		return err
	}
	f, d, err := Inspect(bytes.NewReader(data))
	if err != nil {
		return err
	}
	a.Format, a.Duration = f, d
	return nil
}

// Release deletes the backing storage. Only the first call does work.
func (a *Artifact) Release(ctx context.Context) error {
	a.releaseOnce.Do(func() {
		a.released.Store(true)
		if a.remove != nil {
			a.releaseErr = a.remove(ctx)
		}
	})
	return a.releaseErr
}

// Released reports whether Release has run.
func (a *Artifact) Released() bool {
	return a.released.Load()
}
