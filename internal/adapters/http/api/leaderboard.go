// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/vmtlabs/tinsel/internal/adapters/store"
	"github.com/vmtlabs/tinsel/internal/domain/model"
)

// maxMemeURLLength bounds the meme URL fields accepted on a write.
const maxMemeURLLength = 2000

// LeaderboardHandler handles leaderboard reads and score submissions.
type LeaderboardHandler struct {
	deps LeaderboardDependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// leaderboardResponse mirrors the read endpoint schema.
type leaderboardResponse struct {
	EventID     string              `json:"eventId"`
	Leaderboard []model.ScoreRecord `json:"leaderboard"`
}

// syncResponse mirrors the write endpoint schema.
type syncResponse struct {
	OK           bool `json:"ok"`
	UpdatedScore bool `json:"updatedScore"`
	UpdatedMeme  bool `json:"updatedMeme"`
}

// scoreRequest mirrors the write endpoint payload. Score fields are pointers
// so "absent" is distinguishable from zero; meme fields are tri-state.
type scoreRequest struct {
	ParticipantID string               `json:"participant_id"`
	Name          string               `json:"name"`
	BestScore     *int                 `json:"best_score"`
	Moves         *int                 `json:"moves"`
	Seconds       *int                 `json:"seconds"`
	MemeURL       model.OptionalString `json:"meme_url"`
	MemeTinyURL   model.OptionalString `json:"meme_tiny_url"`
}

func (r scoreRequest) validate() error {
	if r.ParticipantID == "" || r.Name == "" {
		return errors.New("participant_id and name are required")
	}
	if r.BestScore == nil || r.Moves == nil || r.Seconds == nil {
		return errors.New("best_score, moves, seconds must be numbers")
	}
	if r.MemeURL.Valid && len(r.MemeURL.Value) > maxMemeURLLength {
		return errors.New("meme_url too long")
	}
	if r.MemeTinyURL.Valid && len(r.MemeTinyURL.Value) > maxMemeURLLength {
		return errors.New("meme_tiny_url too long")
	}
	return nil
}

func (r scoreRequest) submission() model.Submission {
	return model.Submission{
		ParticipantID: r.ParticipantID,
		Name:          r.Name,
		BestScore:     *r.BestScore,
		Moves:         *r.Moves,
		Seconds:       *r.Seconds,
		MemeURL:       r.MemeURL,
		MemeTinyURL:   r.MemeTinyURL,
	}
}

// HandleLeaderboard handles GET, POST and OPTIONS on /leaderboard.
func (h *LeaderboardHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		writePreflight(w)
	case http.MethodGet:
		h.handleRead(w, r)
	case http.MethodPost:
		h.handleWrite(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, errors.New("Method not allowed"))
	}
}

// eventID resolves the event scope: query parameter, then the configured
// default.
func (h *LeaderboardHandler) eventID(r *http.Request) string {
	if id := r.URL.Query().Get("eventId"); id != "" {
		return id
	}
	return h.deps.DefaultEventID()
}

func (h *LeaderboardHandler) handleRead(w http.ResponseWriter, r *http.Request) {
	eventID := h.eventID(r)
	rows, err := h.deps.Leaderboard(r.Context(), eventID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if rows == nil {
		rows = []model.ScoreRecord{}
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{EventID: eventID, Leaderboard: rows})
}

func (h *LeaderboardHandler) handleWrite(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, decodeError(err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.deps.SubmitScore(r.Context(), h.eventID(r), req.submission())
	if err != nil {
		if store.IsMissingMemeColumn(err) {
			writeErrorHint(w, http.StatusInternalServerError, err,
				"If you just enabled memes, ensure your scores table has columns meme_url and meme_tiny_url.")
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, syncResponse{
		OK:           true,
		UpdatedScore: result.UpdatedScore,
		UpdatedMeme:  result.UpdatedMeme,
	})
}

// decodeError translates JSON decoding failures into client-facing messages.
func decodeError(err error) error {
	if errors.Is(err, io.EOF) {
		return errors.New("Missing JSON body")
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		switch typeErr.Field {
		case "best_score", "moves", "seconds":
			return errors.New("best_score, moves, seconds must be numbers")
		case "meme_url":
			return errors.New("meme_url must be a string")
		case "meme_tiny_url":
			return errors.New("meme_tiny_url must be a string")
		}
	}
	return errors.New("Invalid JSON body")
}
