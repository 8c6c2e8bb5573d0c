// Package storage defines the storage-root file-system abstraction.
package storage

import (
	"io"

	"github.com/starford/marquee/internal/models"
)

// TempPrefix marks in-flight atomic writes. Watchers and listings skip it.
const TempPrefix = ".marquee-tmp-"

// Provider is the interface for storage-root file operations. All paths are
// relative to the storage root.
type Provider interface {
	// List returns metadata for every regular file directly under dir.
	List(dir string) ([]models.FileMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Exists reports whether a file exists at path.
	Exists(path string) (bool, error)
	// Write atomically writes content to path, creating parent directories first.
	Write(path string, content []byte) error
	// WriteFrom atomically copies r to path, creating parent directories first.
	WriteFrom(path string, r io.Reader) error
	// Delete removes the file at path.
	Delete(path string) error
	// Abs resolves path to an absolute path inside the root.
	Abs(path string) (string, error)
	// Lock acquires the in-process lock for path and returns its release func.
	Lock(path string) (unlock func())
}
