// Package storage keeps uploaded post images.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Read when the named file does not exist.
var ErrNotFound = errors.New("file not found")

// FileStore persists files by flat name. Delete of a missing file is not an error.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) error
	Read(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
}
