package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/marquee/internal/checksum"
	"github.com/starford/marquee/internal/configstore"
	"github.com/starford/marquee/internal/contentservice"
	"github.com/starford/marquee/internal/images"
)

const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *contentservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *contentservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListCells handles GET /api/cells and GET /api/admin/cells.
//
//	@Summary		All cells keyed by ID
//	@Tags			cells
//	@Produce		json
//	@Success		200	{object}	CellsResponse
//	@Success		304	"Not modified"
//	@Router			/cells [get]
func (h *Handler) ListCells(w http.ResponseWriter, r *http.Request) {
	body, err := json.Marshal(h.svc.FetchCells(r.Context()))
	if err != nil {
		slog.Error("encode cells failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	etag := checksum.ETag(body)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(body, '\n'))
}

// MainCell handles GET /api/cells/main.
//
//	@Summary		Main cell display settings
//	@Tags			cells
//	@Produce		json
//	@Success		200	{object}	ConfigResponse
//	@Router			/cells/main [get]
func (h *Handler) MainCell(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.GetConfig(r.Context(), configstore.MainCellDocument))
}

// GetCell handles GET /api/admin/cells/{id}.
//
//	@Summary		One cell by ID
//	@Tags			admin
//	@Produce		json
//	@Param			id	path		string	true	"Cell ID"
//	@Success		200	{object}	models.Cell
//	@Failure		404	{object}	errResponse
//	@Router			/admin/cells/{id} [get]
func (h *Handler) GetCell(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cell := h.svc.FetchCell(r.Context(), id)
	if cell == nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, cell)
}

// CreateCell handles POST /api/admin/cells.
//
//	@Summary		Create a cell under a fresh ID
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CellRequest	true	"Cell"
//	@Success		201		{object}	models.Result
//	@Failure		422		{object}	models.Result
//	@Router			/admin/cells [post]
func (h *Handler) CreateCell(w http.ResponseWriter, r *http.Request) {
	var req CellRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, http.StatusCreated, h.svc.SetCell(r.Context(), "", req.Cell()))
}

// PutCell handles PUT /api/admin/cells/{id}. A malformed id creates a new
// cell under a fresh ID, which the result reports.
//
//	@Summary		Create or replace a cell
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Cell ID"
//	@Param			body	body		CellRequest	true	"Cell"
//	@Success		200		{object}	models.Result
//	@Failure		422		{object}	models.Result
//	@Router			/admin/cells/{id} [put]
func (h *Handler) PutCell(w http.ResponseWriter, r *http.Request) {
	var req CellRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, http.StatusOK, h.svc.SetCell(r.Context(), chi.URLParam(r, "id"), req.Cell()))
}

// DeleteCell handles DELETE /api/admin/cells/{id}.
//
//	@Summary		Delete a cell and the image it owns
//	@Tags			admin
//	@Produce		json
//	@Param			id	path		string	true	"Cell ID"
//	@Success		200	{object}	models.Result
//	@Failure		404	{object}	models.Result
//	@Router			/admin/cells/{id} [delete]
func (h *Handler) DeleteCell(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, h.svc.DeleteCell(r.Context(), chi.URLParam(r, "id")))
}

// ExchangeOrders handles POST /api/admin/cells/exchange.
//
//	@Summary		Swap the display order of two cells
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ExchangeRequest	true	"Cell pair"
//	@Success		200		{object}	models.Result
//	@Failure		404		{object}	models.Result
//	@Router			/admin/cells/exchange [post]
func (h *Handler) ExchangeOrders(w http.ResponseWriter, r *http.Request) {
	var req ExchangeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.A == "" || req.B == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("a and b are required"))
		return
	}
	writeResult(w, http.StatusOK, h.svc.ExchangeOrders(r.Context(), req.A, req.B))
}

// SaveImage handles POST /api/admin/images.
//
//	@Summary		Copy a local file into the image store
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImageRequest	true	"Source path"
//	@Success		201		{object}	models.Result
//	@Failure		404		{object}	models.Result
//	@Failure		422		{object}	models.Result
//	@Router			/admin/images [post]
func (h *Handler) SaveImage(w http.ResponseWriter, r *http.Request) {
	var req ImageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, http.StatusCreated, h.svc.SaveImage(r.Context(), images.PathPicker(req.Path)))
}

// ListImages handles GET /api/admin/images.
//
//	@Summary		Stored images
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	ImageListResponse
//	@Router			/admin/images [get]
func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ImageListResponse{Images: h.svc.ListImages(r.Context())})
}

// DeleteImage handles DELETE /api/admin/images/{filename}.
//
//	@Summary		Delete a stored image
//	@Tags			admin
//	@Produce		json
//	@Param			filename	path		string	true	"Image file name"
//	@Success		200			{object}	models.Result
//	@Failure		404			{object}	models.Result
//	@Router			/admin/images/{filename} [delete]
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, h.svc.DeleteImage(r.Context(), chi.URLParam(r, "filename")))
}

// GetConfig handles GET /api/admin/config/{file}.
//
//	@Summary		A config document
//	@Tags			admin
//	@Produce		json
//	@Param			file	path		string	true	"Document name, e.g. styleConfig.json"
//	@Success		200		{object}	ConfigResponse
//	@Router			/admin/config/{file} [get]
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.GetConfig(r.Context(), chi.URLParam(r, "file")))
}

// SetConfig handles PUT /api/admin/config/{file}.
//
//	@Summary		Set one key of a config document
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			file	path		string			true	"Document name"
//	@Param			body	body		ConfigRequest	true	"Key and value"
//	@Success		200		{object}	models.Result
//	@Failure		422		{object}	models.Result
//	@Router			/admin/config/{file} [put]
func (h *Handler) SetConfig(w http.ResponseWriter, r *http.Request) {
	var req ConfigRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var value any
	if len(bytes.TrimSpace(req.Value)) > 0 {
		if err := json.Unmarshal(req.Value, &value); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid value"))
			return
		}
	}
	writeResult(w, http.StatusOK, h.svc.SetConfig(r.Context(), chi.URLParam(r, "file"), req.Key, value))
}

// Journal handles GET /api/admin/journal.
//
//	@Summary		Recent operations, newest first
//	@Tags			admin
//	@Produce		json
//	@Param			limit	query		int	false	"Max entries"
//	@Success		200		{object}	JournalResponse
//	@Router			/admin/journal [get]
func (h *Handler) Journal(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	writeJSON(w, http.StatusOK, JournalResponse{Entries: h.svc.Journal(r.Context(), limit)})
}

// decodeBody decodes a JSON request body into v, answering 400 itself when
// the body is unusable.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}
