// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/vmtlabs/tinsel/internal/adapters/tenor"
)

// MemesHandler serves the decorative GIF catalog.
type MemesHandler struct {
	deps MemeDependencies
}

// NewMemesHandler creates a new memes handler.
func NewMemesHandler(deps MemeDependencies) *MemesHandler {
	return &MemesHandler{deps: deps}
}

type memesResponse struct {
	Memes []tenor.GIF `json:"memes"`
}

// HandleGetMemes handles GET /memes?q=query&limit=N requests.
func (h *MemesHandler) HandleGetMemes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		writePreflight(w)
		return
	case http.MethodGet:
	default:
		writeError(w, http.StatusMethodNotAllowed, errors.New("Method not allowed"))
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, errors.New("q is required"))
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a positive number"))
			return
		}
		limit = n
	}

	gifs, err := h.deps.SearchMemes(r.Context(), query, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, memesResponse{Memes: gifs})
}
