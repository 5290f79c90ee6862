// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vmtlabs/tinsel/internal/app"
)

// RevealHandler handles Secret Santa reveal requests.
type RevealHandler struct {
	deps RevealDependencies
}

// NewRevealHandler creates a new reveal handler.
func NewRevealHandler(deps RevealDependencies) *RevealHandler {
	return &RevealHandler{deps: deps}
}

type revealRequest struct {
	ParticipantID string `json:"participant_id"`
	PIN           string `json:"pin"`
}

type revealResponse struct {
	ParticipantID string `json:"participant_id"`
	RecipientID   string `json:"recipient_id"`
	RecipientName string `json:"recipient_name"`
}

// HandleReveal handles POST /reveal requests.
func (h *RevealHandler) HandleReveal(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		writePreflight(w)
		return
	case http.MethodPost:
	default:
		writeError(w, http.StatusMethodNotAllowed, errors.New("Method not allowed"))
		return
	}

	var req revealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, decodeError(err))
		return
	}
	if req.ParticipantID == "" || req.PIN == "" {
		writeError(w, http.StatusBadRequest, errors.New("participant_id and pin are required"))
		return
	}

	recipient, err := h.deps.Reveal(req.ParticipantID, req.PIN)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrBadPIN):
			writeError(w, http.StatusUnauthorized, err)
		case errors.Is(err, app.ErrUnknownParticipant):
			writeError(w, http.StatusNotFound, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, revealResponse{
		ParticipantID: req.ParticipantID,
		RecipientID:   recipient.ID,
		RecipientName: recipient.Name,
	})
}
