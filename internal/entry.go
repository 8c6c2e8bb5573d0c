// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/marquee/internal/api"
	"github.com/starford/marquee/internal/cells"
	"github.com/starford/marquee/internal/configstore"
	"github.com/starford/marquee/internal/contentservice"
	"github.com/starford/marquee/internal/images"
	"github.com/starford/marquee/internal/journal"
	"github.com/starford/marquee/internal/mcpserver"
	"github.com/starford/marquee/internal/parser"
	"github.com/starford/marquee/internal/picker"
	"github.com/starford/marquee/internal/sse"
	"github.com/starford/marquee/internal/storage"
	"github.com/starford/marquee/internal/watch"
)

// deps is what every command opens before doing its work.
type deps struct {
	logger *slog.Logger
	store  *storage.FS
	db     *journal.DB
	svc    *contentservice.Service
}

func (rt *deps) Close() error {
	return rt.db.Close()
}

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", stdout: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// open prepares storage, journal and service. Logs go to w.
func (a *application) open(w io.Writer) (*deps, error) {
	cfg := a.config

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_root", cfg.Storage.Root),
		slog.String("journal_path", cfg.Journal.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Storage.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	store, err := storage.NewFS(cfg.Storage.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Journal.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	db, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("init journal: %w", err)
	}

	imgs := images.New(store, logger)
	svc := contentservice.NewService(
		cells.New(store, imgs, logger),
		imgs,
		configstore.New(store, logger),
		db,
		logger,
	)

	return &deps{logger: logger, store: store, db: db, svc: svc}, nil
}

// Run starts the HTTP server, the storage watcher and the SSE broker.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	rt, err := app.open(os.Stdout)
	if err != nil {
		return err
	}
	defer rt.Close()
	logger := rt.logger

	if err := watch.Sync(ctx, rt.store, rt.db, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// No RealIP: LocalOnly trusts RemoteAddr.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", api.NewRouter(rt.svc, broker))
	api.MountDisplay(r, rt.svc, cfg.Display.PublicDir)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := watch.Watch(gCtx, rt.store.Root(), rt.store, rt.db, logger, func(ev watch.Event) {
			broker.PublishChange(ev.Kind, ev.Name, ev.Removed)
		})
		if err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown ends the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the content tools over stdio. Logs go to stderr since
// stdout carries the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	rt, err := app.open(os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.logger.Info("MCP server starting on stdio")
	return mcpserver.New(rt.svc, app.version).ServeStdio()
}

// RunImageAdd imports one image into the store. With an empty src the
// operator picks the file in a terminal browser. The stored name and the
// tag to paste into a cell are printed.
func RunImageAdd(ctx context.Context, src string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	rt, err := app.open(os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	var p images.Picker = images.PathPicker(src)
	if src == "" {
		p = picker.New("")
	}

	res := rt.svc.SaveImage(ctx, p)
	if !res.Success {
		return fmt.Errorf("save image: %w", res.Err)
	}
	_, err = fmt.Fprintf(app.stdout, "%s\t%s\n", res.Name, parser.ImageTag(res.Name))
	return err
}
