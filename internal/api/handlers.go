package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notepress/internal/apperr"
	"github.com/starford/notepress/internal/publishservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *publishservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *publishservice.Service) *Handler {
	return &Handler{svc: svc}
}

// folderPath extracts the folder path from the URL (everything after
// /api/folders/). Supports encoded slashes.
func folderPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Publish handles POST /api/publish.
//
//	@Summary		Publish the vault as one batch
//	@Tags			publish
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PublishRequest	false	"Optional session id"
//	@Success		200		{object}	PublishResult
//	@Failure		409		{object}	errResponse
//	@Failure		500		{object}	PublishFailure
//	@Router			/publish [post]
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.svc.Publish(r.Context(), strings.TrimSpace(req.SessionID))
	if err != nil {
		if errors.Is(err, apperr.ErrPublishInProgress) {
			writeError(w, http.StatusConflict, "publish already in progress")
			return
		}
		slog.Error("publish failed", slog.String("session_id", result.SessionID), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, PublishFailure{Error: err.Error(), Result: result})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Status handles GET /api/status.
//
//	@Summary		Report whether a publish is running
//	@Tags			publish
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Publishing: h.svc.Running()})
}

// Manifest handles GET /api/manifest.
//
//	@Summary		Get the site manifest
//	@Tags			site
//	@Produce		json
//	@Success		200	{object}	Manifest
//	@Failure		404	{object}	errResponse
//	@Router			/manifest [get]
func (h *Handler) Manifest(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Manifest(r.Context())
	if err != nil {
		fail(w, "get manifest failed", err, slog.String("op", "manifest"))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Folder handles GET /api/folders and GET /api/folders/*.
//
//	@Summary		Get the index document of a folder
//	@Tags			site
//	@Produce		json
//	@Param			path	path		string	false	"Folder path"
//	@Success		200		{object}	FolderIndex
//	@Failure		404		{object}	errResponse
//	@Router			/folders/{path} [get]
func (h *Handler) Folder(w http.ResponseWriter, r *http.Request) {
	folder := folderPath(r)
	doc, err := h.svc.Folder(r.Context(), folder)
	if err != nil {
		fail(w, "get folder failed", err, slog.String("folder", folder))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Search handles GET /api/search.
//
//	@Summary		Search published pages
//	@Tags			site
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Preview handles GET /api/preview.
//
//	@Summary		Process one note without saving it
//	@Tags			publish
//	@Produce		json
//	@Param			path	query		string	true	"Vault path of the note"
//	@Success		200		{object}	Preview
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/preview [get]
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	p := strings.TrimSpace(r.URL.Query().Get("path"))
	if p == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'path' is required")
		return
	}
	preview, err := h.svc.Preview(r.Context(), p)
	if err != nil {
		fail(w, "preview failed", err, slog.String("path", p))
		return
	}
	writeJSON(w, http.StatusOK, preview)
}
