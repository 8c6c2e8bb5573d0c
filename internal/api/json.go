package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starford/marquee/internal/apperr"
	"github.com/starford/marquee/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeResult writes res with okStatus on success, or with the status its
// error kind maps to. The body is the result either way.
func writeResult(w http.ResponseWriter, okStatus int, res models.Result) {
	if res.Success {
		writeJSON(w, okStatus, res)
		return
	}
	writeJSON(w, statusFor(res.Err), res)
}

func statusFor(err error) int {
	switch apperr.Kind(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalid:
		return http.StatusUnprocessableEntity
	case apperr.KindCancelled:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
