package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/marquee/internal/contentservice"
)

// NewRouter creates the router mounted at /api. Read-only display routes are
// public; everything under /admin is restricted to loopback clients.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *contentservice.Service, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	// Display surface.
	r.Get("/cells", h.ListCells)
	r.Get("/cells/main", h.MainCell)
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	// Operator surface.
	r.Route("/admin", func(r chi.Router) {
		r.Use(LocalOnly)

		r.Get("/cells", h.ListCells)
		r.Post("/cells", h.CreateCell)
		r.Post("/cells/exchange", h.ExchangeOrders)
		r.Get("/cells/{id}", h.GetCell)
		r.Put("/cells/{id}", h.PutCell)
		r.Delete("/cells/{id}", h.DeleteCell)

		r.Get("/images", h.ListImages)
		r.Post("/images", h.SaveImage)
		r.Delete("/images/{filename}", h.DeleteImage)

		r.Get("/config/{file}", h.GetConfig)
		r.Put("/config/{file}", h.SetConfig)

		r.Get("/journal", h.Journal)
	})

	return r
}

// MountDisplay adds the display page assets to r: generated CSS, uploaded
// images and, when publicDir is set, the static page itself at /.
func MountDisplay(r chi.Router, svc *contentservice.Service, publicDir string) {
	d := NewDisplayHandler(svc)

	r.Get("/css/variables.css", d.VariablesCSS)
	r.Get("/uploads/{filename}", d.ServeUpload)

	if publicDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(publicDir)))
	}
}
