package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/starford/notepress/internal/apperr"
)

const maxBodyBytes = 1 << 20

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("api: encode response", slog.String("error", err.Error()))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errResponse{Error: msg})
}

// readJSON decodes an optional JSON body into v. An empty body leaves v as is.
func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// fail maps ErrNotFound to 404 and logs everything else as a 500.
func fail(w http.ResponseWriter, msg string, err error, attr slog.Attr) {
	if errors.Is(err, apperr.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	slog.Error(msg, attr, slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "internal error")
}
