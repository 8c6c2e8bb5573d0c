// Package images stores operator-picked image files under the storage root.
package images

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/marquee/internal/apperr"
	"github.com/starford/marquee/internal/models"
	"github.com/starford/marquee/internal/storage"
)

// Dir is the storage-root subdirectory holding uploaded images.
const Dir = "images"

// AllowedExtensions lists the image types the picker offers.
var AllowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}

// Allowed reports whether name has a supported image extension.
func Allowed(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range AllowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

// Store saves and deletes image files.
type Store struct {
	fs     storage.Provider
	logger *slog.Logger
}

// New creates an image Store on top of fs.
func New(fs storage.Provider, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{fs: fs, logger: logger}
}

// Save asks p for a source file and copies it into the image directory under
// a name that does not collide with an existing image. It returns the stored
// filename, or an error wrapping apperr.ErrCancelled when nothing was picked.
func (s *Store) Save(ctx context.Context, p Picker) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src, err := p.Pick(ctx)
	if err != nil {
		return "", fmt.Errorf("images: pick: %w", err)
	}
	if src == "" {
		return "", fmt.Errorf("images: pick: %w", apperr.ErrCancelled)
	}

	name := filepath.Base(src)
	if err := checkName(name); err != nil {
		return "", err
	}
	if !Allowed(name) {
		return "", fmt.Errorf("images: %w: unsupported file type %q", apperr.ErrInvalid, filepath.Ext(name))
	}

	f, err := os.Open(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("images: source %s: %w", src, apperr.ErrNotFound)
		}
		return "", fmt.Errorf("images: open source: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("images: stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("images: %w: %s is not a regular file", apperr.ErrInvalid, src)
	}

	// Naming and copying happen under one lock so two saves of the same
	// name cannot both claim it.
	unlock := s.fs.Lock(Dir)
	defer unlock()

	final, err := s.UniqueName(name)
	if err != nil {
		return "", err
	}
	if err := s.fs.WriteFrom(filepath.Join(Dir, final), f); err != nil {
		s.logger.Error("images: save failed", slog.String("source", src), slog.String("error", err.Error()))
		return "", fmt.Errorf("images: copy: %w", err)
	}

	s.logger.Info("images: saved", slog.String("source", src), slog.String("name", final))
	return final, nil
}

// UniqueName returns name, or name with an "_<n>" suffix before the
// extension, whichever is the first not yet present in the image directory.
func (s *Store) UniqueName(name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := name
	for n := 1; ; n++ {
		exists, err := s.fs.Exists(filepath.Join(Dir, candidate))
		if err != nil {
			return "", fmt.Errorf("images: check name: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, n, ext)
	}
}

// Delete removes the named image.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkName(name); err != nil {
		return err
	}

	unlock := s.fs.Lock(Dir)
	defer unlock()

	if err := s.fs.Delete(filepath.Join(Dir, name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("images: %s: %w", name, apperr.ErrNotFound)
		}
		return fmt.Errorf("images: delete: %w", err)
	}
	s.logger.Info("images: deleted", slog.String("name", name))
	return nil
}

// List returns every stored image.
func (s *Store) List() ([]models.FileMeta, error) {
	return s.fs.List(Dir)
}

// Path resolves the absolute path of the named image for serving.
func (s *Store) Path(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	return s.fs.Abs(filepath.Join(Dir, name))
}

// checkName accepts plain file names only.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		filepath.Base(name) != name || strings.ContainsAny(name, `/\`) ||
		strings.HasPrefix(name, storage.TempPrefix) {
		return fmt.Errorf("images: %w: bad file name %q", apperr.ErrInvalid, name)
	}
	return nil
}
