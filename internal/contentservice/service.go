// Package contentservice exposes the boundary operations over the cell,
// image and config stores. Every operation fails soft: callers get a
// models.Result or an empty value, never an error.
package contentservice

import (
	"context"
	"log/slog"

	"github.com/starford/marquee/internal/apperr"
	"github.com/starford/marquee/internal/cells"
	"github.com/starford/marquee/internal/configstore"
	"github.com/starford/marquee/internal/images"
	"github.com/starford/marquee/internal/journal"
	"github.com/starford/marquee/internal/models"
)

// Operation names as recorded in the journal.
const (
	OpSetCell        = "set_cell"
	OpDeleteCell     = "delete_cell"
	OpExchangeOrders = "exchange_orders"
	OpSaveImage      = "save_image"
	OpDeleteImage    = "delete_image"
	OpSetConfig      = "set_config"
	OpGetConfig      = "get_config"
)

// Journal is the slice of the journal the service writes to and reads from.
type Journal interface {
	Record(ctx context.Context, e journal.Entry) error
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// Service coordinates the stores behind the boundary operations.
type Service struct {
	cells   *cells.Store
	images  *images.Store
	config  *configstore.Store
	journal Journal
	logger  *slog.Logger
}

// NewService creates a content service. j may be nil.
func NewService(c *cells.Store, i *images.Store, cfg *configstore.Store, j Journal, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cells: c, images: i, config: cfg, journal: j, logger: logger}
}

// FetchCells returns every cell keyed by ID.
func (s *Service) FetchCells(ctx context.Context) models.Collection {
	return s.cells.FetchAll(ctx)
}

// FetchCell returns the cell stored under id, or nil.
func (s *Service) FetchCell(ctx context.Context, id string) *models.Cell {
	cell, ok := s.cells.FetchOne(ctx, id)
	if !ok {
		return nil
	}
	return &cell
}

// SetCell creates or replaces the cell under id. An empty or malformed id
// creates a new cell; the result carries the ID actually used. Any order on
// in is ignored: edits keep the stored order and new cells go last.
func (s *Service) SetCell(ctx context.Context, id string, in models.Cell) models.Result {
	in.Order = nil
	used, err := s.cells.Upsert(ctx, id, in)
	if err != nil {
		return s.finish(ctx, OpSetCell, id, models.Failed(err))
	}
	return s.finish(ctx, OpSetCell, used, models.OK(used))
}

// DeleteCell removes the cell under id and the image it owns.
func (s *Service) DeleteCell(ctx context.Context, id string) models.Result {
	if err := s.cells.Delete(ctx, id); err != nil {
		return s.finish(ctx, OpDeleteCell, id, models.Failed(err))
	}
	return s.finish(ctx, OpDeleteCell, id, models.OK(""))
}

// ExchangeOrders swaps the display orders of cells a and b.
func (s *Service) ExchangeOrders(ctx context.Context, a, b string) models.Result {
	if err := s.cells.ExchangeOrder(ctx, a, b); err != nil {
		return s.finish(ctx, OpExchangeOrders, a+","+b, models.Failed(err))
	}
	return s.finish(ctx, OpExchangeOrders, a+","+b, models.OK(""))
}

// SaveImage stores the file chosen by p. The result names the stored file.
func (s *Service) SaveImage(ctx context.Context, p images.Picker) models.Result {
	name, err := s.images.Save(ctx, p)
	if err != nil {
		return s.finish(ctx, OpSaveImage, "", models.Failed(err))
	}
	return s.finish(ctx, OpSaveImage, name, models.Saved(name))
}

// DeleteImage removes a stored image by name. Cells referencing it are left
// untouched.
func (s *Service) DeleteImage(ctx context.Context, name string) models.Result {
	if err := s.images.Delete(ctx, name); err != nil {
		return s.finish(ctx, OpDeleteImage, name, models.Failed(err))
	}
	return s.finish(ctx, OpDeleteImage, name, models.Saved(name))
}

// ListImages returns the stored images, or an empty list when the image
// directory cannot be read.
func (s *Service) ListImages(_ context.Context) []models.FileMeta {
	items, err := s.images.List()
	if err != nil {
		s.logger.Error("list images failed", slog.String("error", err.Error()))
		return []models.FileMeta{}
	}
	if items == nil {
		items = []models.FileMeta{}
	}
	return items
}

// ImagePath resolves a stored image for serving.
func (s *Service) ImagePath(name string) (string, error) {
	return s.images.Path(name)
}

// GetConfig returns the named config document. Unreadable or invalid
// documents come back empty.
func (s *Service) GetConfig(ctx context.Context, file string) configstore.Document {
	doc, err := s.config.Get(ctx, file)
	if err != nil {
		s.logger.Warn("get config failed",
			slog.String("file", file),
			slog.String("kind", apperr.Kind(err)),
			slog.String("error", err.Error()))
		s.record(ctx, OpGetConfig, file, models.Failed(err))
	}
	if doc == nil {
		doc = configstore.Document{}
	}
	return doc
}

// SetConfig sets one key in the named config document.
func (s *Service) SetConfig(ctx context.Context, file, key string, value any) models.Result {
	if err := s.config.Set(ctx, file, key, value); err != nil {
		return s.finish(ctx, OpSetConfig, file+"#"+key, models.Failed(err))
	}
	return s.finish(ctx, OpSetConfig, file+"#"+key, models.OK(""))
}

// Journal returns the most recent journal entries, newest first.
func (s *Service) Journal(ctx context.Context, limit int) []journal.Entry {
	if s.journal == nil {
		return []journal.Entry{}
	}
	entries, err := s.journal.Recent(ctx, limit)
	if err != nil {
		s.logger.Error("read journal failed", slog.String("error", err.Error()))
		return []journal.Entry{}
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	return entries
}

// finish logs and journals res, then returns it unchanged.
func (s *Service) finish(ctx context.Context, op, target string, res models.Result) models.Result {
	if res.Success {
		s.logger.Info("operation succeeded", slog.String("op", op), slog.String("target", target))
	} else {
		s.logger.Error("operation failed",
			slog.String("op", op),
			slog.String("target", target),
			slog.String("kind", apperr.Kind(res.Err)),
			slog.String("error", res.Err.Error()))
	}
	s.record(ctx, op, target, res)
	return res
}

func (s *Service) record(ctx context.Context, op, target string, res models.Result) {
	if s.journal == nil {
		return
	}
	e := journal.Entry{
		Op:      op,
		Target:  target,
		Success: res.Success,
		Kind:    apperr.Kind(res.Err),
	}
	if res.Err != nil {
		e.Detail = res.Err.Error()
	}
	if err := s.journal.Record(context.WithoutCancel(ctx), e); err != nil {
		s.logger.Warn("journal record failed", slog.String("op", op), slog.String("error", err.Error()))
	}
}
