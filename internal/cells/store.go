// Package cells owns the cell collection document: validation, ID
// generation, order assignment and exchange, and the image cascade.
package cells

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/starford/marquee/internal/apperr"
	"github.com/starford/marquee/internal/configstore"
	"github.com/starford/marquee/internal/models"
	"github.com/starford/marquee/internal/parser"
	"github.com/starford/marquee/internal/storage"
)

var idRe = regexp.MustCompile(`^cell_\d+$`)

// ValidID reports whether id has the cell_<digits> form.
func ValidID(id string) bool {
	return idRe.MatchString(id)
}

// ImageDeleter is the part of the image store the cascade needs.
type ImageDeleter interface {
	Delete(ctx context.Context, name string) error
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for fresh IDs.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store reads and mutates the cell collection.
type Store struct {
	fs     storage.Provider
	images ImageDeleter
	logger *slog.Logger
	path   string
	now    func() time.Time

	idMu   sync.Mutex
	lastID int64
}

// New creates a cell Store. images may be nil, in which case no cascade runs.
func New(fs storage.Provider, images ImageDeleter, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	path, err := configstore.DocumentPath(configstore.CellsDocument)
	if err != nil {
		panic(err) // constant name, cannot fail
	}
	s := &Store{
		fs:     fs,
		images: images,
		logger: logger,
		path:   path,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchAll returns the whole collection. A missing document is created
// empty; an unreadable one is logged and reported as empty.
func (s *Store) FetchAll(ctx context.Context) models.Collection {
	if err := ctx.Err(); err != nil {
		return models.Collection{}
	}
	unlock := s.fs.Lock(s.path)
	defer unlock()

	col, err := s.load(true)
	if err != nil {
		s.logger.Error("cells: fetch failed", slog.String("error", err.Error()))
		return models.Collection{}
	}
	return col
}

// FetchOne returns the cell stored under id.
func (s *Store) FetchOne(ctx context.Context, id string) (models.Cell, bool) {
	cell, ok := s.FetchAll(ctx)[id]
	return cell, ok
}

// Upsert writes in under id and returns the ID actually used. An id that is
// not of the cell_<digits> form is replaced by a fresh one. Edits keep the
// stored order; new cells are ranked after every existing one.
func (s *Store) Upsert(ctx context.Context, id string, in models.Cell) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	unlock := s.fs.Lock(s.path)
	defer unlock()

	col, err := s.load(false)
	if err != nil {
		return "", err
	}

	if !ValidID(id) {
		id = s.newID(col)
	}
	prior, existed := col[id]
	if existed {
		in.Order = copyOrder(prior.Order)
	}
	if in.Order == nil {
		in.Order = models.IntPtr(col.NextOrder())
	}
	if err := Validate(in); err != nil {
		return "", fmt.Errorf("cells: %w: %v", apperr.ErrInvalid, err)
	}

	col[id] = in
	if err := s.save(col); err != nil {
		return "", err
	}
	if existed {
		s.cascadeImage(ctx, prior, &in)
	}

	s.logger.Info("cells: upserted", slog.String("id", id), slog.Bool("created", !existed), slog.Int("order", *in.Order))
	return id, nil
}

// Delete removes the cell stored under id together with the image it owns.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.fs.Lock(s.path)
	defer unlock()

	col, err := s.load(false)
	if err != nil {
		return err
	}
	cell, ok := col[id]
	if !ok {
		return fmt.Errorf("cells: %s: %w", id, apperr.ErrNotFound)
	}

	delete(col, id)
	if err := s.save(col); err != nil {
		return err
	}
	s.cascadeImage(ctx, cell, nil)

	s.logger.Info("cells: deleted", slog.String("id", id))
	return nil
}

// ExchangeOrder swaps the orders of cells a and b. When the order one cell
// would hand over is unset, the receiving cell gets a fresh max+1 instead.
func (s *Store) ExchangeOrder(ctx context.Context, a, b string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.fs.Lock(s.path)
	defer unlock()

	col, err := s.load(false)
	if err != nil {
		return err
	}
	cellA, okA := col[a]
	cellB, okB := col[b]
	if !okA || !okB {
		return fmt.Errorf("cells: exchange %s/%s: %w", a, b, apperr.ErrNotFound)
	}
	if a == b {
		return nil
	}

	orderA, orderB := cellA.Order, cellB.Order

	if orderB != nil {
		cellA.Order = copyOrder(orderB)
	} else {
		cellA.Order = models.IntPtr(col.NextOrder())
	}
	col[a] = cellA

	if orderA != nil {
		cellB.Order = copyOrder(orderA)
	} else {
		cellB.Order = models.IntPtr(col.NextOrder())
	}
	col[b] = cellB

	if err := s.save(col); err != nil {
		return err
	}
	s.logger.Info("cells: orders exchanged",
		slog.String("a", a), slog.Int("a_order", *cellA.Order),
		slog.String("b", b), slog.Int("b_order", *cellB.Order))
	return nil
}

// cascadeImage deletes the image owned by prior unless next still
// references the same file. It runs after the collection is persisted and
// is not bound to the caller's cancellation.
func (s *Store) cascadeImage(ctx context.Context, prior models.Cell, next *models.Cell) {
	name, ok := parser.ImageRef(prior.Description)
	if !ok || s.images == nil {
		return
	}
	if next != nil && parser.SameImage(prior.Description, next.Description) {
		s.logger.Debug("cells: image kept", slog.String("image", name))
		return
	}
	if err := s.images.Delete(context.WithoutCancel(ctx), name); err != nil {
		s.logger.Warn("cells: image cascade failed", slog.String("image", name), slog.String("error", err.Error()))
		return
	}
	s.logger.Debug("cells: image cascaded", slog.String("image", name))
}

// load reads the collection. Callers must hold the document lock. A missing
// document yields an empty collection, persisted first when create is set.
func (s *Store) load(create bool) (models.Collection, error) {
	data, err := s.fs.Read(s.path)
	if errors.Is(err, os.ErrNotExist) {
		col := models.Collection{}
		if create {
			if err := s.save(col); err != nil {
				return col, err
			}
			s.logger.Info("cells: created empty collection", slog.String("path", s.path))
		}
		return col, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cells: read: %w", err)
	}

	var col models.Collection
	if err := json.Unmarshal(data, &col); err != nil {
		return nil, fmt.Errorf("cells: %w: %v", apperr.ErrCorrupt, err)
	}
	if col == nil {
		col = models.Collection{}
	}
	return col, nil
}

func (s *Store) save(col models.Collection) error {
	data, err := json.MarshalIndent(col, "", "  ")
	if err != nil {
		return fmt.Errorf("cells: encode: %w", err)
	}
	if err := s.fs.Write(s.path, data); err != nil {
		return fmt.Errorf("cells: write: %w", err)
	}
	return nil
}

// newID returns a cell_<millis> ID that is strictly greater than any ID this
// store handed out before and absent from col.
func (s *Store) newID(col models.Collection) string {
	s.idMu.Lock()
	defer s.idMu.Unlock()

	n := s.now().UnixMilli()
	if n <= s.lastID {
		n = s.lastID + 1
	}
	for {
		id := fmt.Sprintf("cell_%d", n)
		if _, taken := col[id]; !taken {
			s.lastID = n
			return id
		}
		n++
	}
}

func copyOrder(o *int) *int {
	if o == nil {
		return nil
	}
	return models.IntPtr(*o)
}
