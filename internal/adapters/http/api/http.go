// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vmtlabs/tinsel/internal/adapters/tenor"
	"github.com/vmtlabs/tinsel/internal/domain/model"
	"github.com/vmtlabs/tinsel/internal/domain/roster"
)

// Dependencies bundles everything the HTTP handlers need. Using an interface
// bundle keeps the handler layer loosely coupled to the service package.
type Dependencies interface {
	LeaderboardDependencies
	RevealDependencies
	MemeDependencies
}

// LeaderboardDependencies defines the synchronizer operations.
type LeaderboardDependencies interface {
	// DefaultEventID is used when a request names no event.
	DefaultEventID() string

	// Leaderboard returns the capped, ordered rows for an event.
	Leaderboard(ctx context.Context, eventID string) ([]model.ScoreRecord, error)

	// SubmitScore merges one submission into the stored row.
	SubmitScore(ctx context.Context, eventID string, sub model.Submission) (model.SyncResult, error)
}

// RevealDependencies defines the Secret Santa reveal operation.
type RevealDependencies interface {
	Reveal(participantID, pin string) (roster.Participant, error)
}

// MemeDependencies defines the decorative GIF catalog lookup.
type MemeDependencies interface {
	SearchMemes(ctx context.Context, query string, limit int) ([]tenor.GIF, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	leaderboardHandler *LeaderboardHandler
	revealHandler      *RevealHandler
	memesHandler       *MemesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		leaderboardHandler: NewLeaderboardHandler(deps),
		revealHandler:      NewRevealHandler(deps),
		memesHandler:       NewMemesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleLeaderboard, "leaderboard"))
	mux.HandleFunc("/reveal", MetricsMiddleware(s.revealHandler.HandleReveal, "reveal"))
	mux.HandleFunc("/memes", MetricsMiddleware(s.memesHandler.HandleGetMemes, "memes"))
}

// errorResponse is the uniform error body. Hint carries provisioning advice
// when the failure shape is recognizable (e.g. meme columns missing).
type errorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

// setCORS applies the permissive cross-origin headers the party client
// relies on; deployments sit behind their own origin anyway.
func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writePreflight answers an OPTIONS negotiation with no body and no store
// access.
func writePreflight(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "content-type")
	w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	setCORS(w)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeErrorHint(w http.ResponseWriter, status int, err error, hint string) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg, Hint: hint})
}
