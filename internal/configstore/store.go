// Package configstore persists named flat JSON documents under the
// storage root's config directory.
package configstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/marquee/internal/apperr"
	"github.com/starford/marquee/internal/storage"
)

// Dir is the storage-root subdirectory holding every JSON document.
const Dir = "config"

// Well-known document names.
const (
	CellsDocument    = "cellsConfig.json"
	StyleDocument    = "styleConfig.json"
	MainCellDocument = "mainCellConfig.json"
	MainDocument     = "mainConfig.json"
)

// Document is a flat key/value settings document.
type Document map[string]any

// Store reads and writes config documents.
type Store struct {
	fs     storage.Provider
	logger *slog.Logger
}

// New creates a Store on top of fs.
func New(fs storage.Provider, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{fs: fs, logger: logger}
}

// DocumentPath maps a logical document name to its path relative to the
// storage root. Only plain ".json" names are accepted.
func DocumentPath(file string) (string, error) {
	if file == "" {
		return "", fmt.Errorf("configstore: %w: empty document name", apperr.ErrInvalid)
	}
	if filepath.Base(file) != file || strings.ContainsAny(file, `/\`) || strings.HasPrefix(file, ".") {
		return "", fmt.Errorf("configstore: %w: bad document name %q", apperr.ErrInvalid, file)
	}
	if filepath.Ext(file) != ".json" {
		return "", fmt.Errorf("configstore: %w: document %q is not .json", apperr.ErrInvalid, file)
	}
	return filepath.Join(Dir, file), nil
}

// Get returns the document named file. A missing document is created empty.
// The returned document is always usable: on a read or parse failure it is
// empty and the error says why.
func (s *Store) Get(ctx context.Context, file string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	rel, err := DocumentPath(file)
	if err != nil {
		return Document{}, err
	}

	unlock := s.fs.Lock(rel)
	defer unlock()

	return s.load(rel, true)
}

// Set upserts a single key in the document named file.
func (s *Store) Set(ctx context.Context, file, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("configstore: %w: empty key", apperr.ErrInvalid)
	}
	if file == CellsDocument {
		return fmt.Errorf("configstore: %w: %s is managed by the cell store", apperr.ErrInvalid, file)
	}
	rel, err := DocumentPath(file)
	if err != nil {
		return err
	}

	unlock := s.fs.Lock(rel)
	defer unlock()

	doc, err := s.load(rel, false)
	if err != nil {
		s.logger.Warn("configstore: starting from empty document",
			slog.String("document", file), slog.String("error", err.Error()))
		doc = Document{}
	}
	doc[key] = value

	if err := s.write(rel, doc); err != nil {
		return err
	}
	s.logger.Debug("configstore: key updated", slog.String("document", file), slog.String("key", key))
	return nil
}

// load reads rel. Callers must hold the document lock.
func (s *Store) load(rel string, create bool) (Document, error) {
	data, err := s.fs.Read(rel)
	if errors.Is(err, os.ErrNotExist) {
		doc := Document{}
		if create {
			if werr := s.write(rel, doc); werr != nil {
				s.logger.Error("configstore: create document failed",
					slog.String("path", rel), slog.String("error", werr.Error()))
				return doc, werr
			}
			s.logger.Info("configstore: created empty document", slog.String("path", rel))
		}
		return doc, nil
	}
	if err != nil {
		s.logger.Error("configstore: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return Document{}, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Error("configstore: parse failed", slog.String("path", rel), slog.String("error", err.Error()))
		return Document{}, fmt.Errorf("configstore: %s: %w: %v", rel, apperr.ErrCorrupt, err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

func (s *Store) write(rel string, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("configstore: encode %s: %w", rel, err)
	}
	return s.fs.Write(rel, data)
}
