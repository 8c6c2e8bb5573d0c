package api

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/marquee/internal/configstore"
	"github.com/starford/marquee/internal/contentservice"
	"github.com/starford/marquee/internal/images"
)

// Style defaults used when styleConfig.json lacks a key.
var styleDefaults = map[string]any{
	"first_color":  "#ffffff",
	"second_color": "#000000",
	"third_color":  "#f0f0f0",
	"font_size":    16,
}

// DisplayHandler serves the assets of the public display page.
type DisplayHandler struct {
	svc *contentservice.Service
}

// NewDisplayHandler creates a handler backed by svc.
func NewDisplayHandler(svc *contentservice.Service) *DisplayHandler {
	return &DisplayHandler{svc: svc}
}

// ServeUpload handles GET /uploads/{filename}.
// Only image types are served, whatever else sits in the directory.
func (h *DisplayHandler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if !images.Allowed(name) {
		http.NotFound(w, r)
		return
	}
	abs, err := h.svc.ImagePath(name)
	if err != nil {
		http.Error(w, "invalid filename", http.StatusBadRequest)
		return
	}
	info, statErr := os.Stat(abs)
	if statErr != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// VariablesCSS handles GET /css/variables.css.
func (h *DisplayHandler) VariablesCSS(w http.ResponseWriter, r *http.Request) {
	style := h.svc.GetConfig(r.Context(), configstore.StyleDocument)
	get := func(key string) string {
		v, ok := style[key]
		if !ok || v == nil {
			v = styleDefaults[key]
		}
		return cssValue(fmt.Sprint(v))
	}

	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprintf(w, ":root {\n"+
		"  --main-color: %s;\n"+
		"  --secondary-color: %s;\n"+
		"  --third-color: %s;\n"+
		"  --font-size: %spx;\n"+
		"}\n",
		get("first_color"), get("second_color"), get("third_color"), get("font_size"))
}

// cssValue strips characters that would end a declaration or a block.
func cssValue(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ';', '{', '}', '<', '>', '\n', '\r':
			return -1
		}
		return r
	}, s)
}
