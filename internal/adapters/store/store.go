// Package store defines the leaderboard row-store interface and its drivers.
//
// The store owns the only correctness boundary for concurrent submissions:
// Upsert must converge to a single row per (event_id, participant_id) via the
// store's native conflict resolution. BestScore is an advisory read used to
// pick between Patch and Upsert; it is not a lock.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/vmtlabs/tinsel/internal/domain/model"
)

// Store provides read/write access to leaderboard rows.
type Store interface {
	// BestScore returns the stored best score for a participant and whether
	// a row exists.
	BestScore(ctx context.Context, eventID, participantID string) (int, bool, error)

	// Top returns up to limit rows for an event ordered by best_score
	// descending, ties broken by updated_at ascending.
	Top(ctx context.Context, eventID string, limit int) ([]model.ScoreRecord, error)

	// Patch partially updates an existing row: name, updated_at and any meme
	// field explicitly present in the patch. Score fields are untouched.
	Patch(ctx context.Context, eventID, participantID string, p model.Patch) error

	// Upsert atomically inserts or replaces the row keyed by
	// (event_id, participant_id).
	Upsert(ctx context.Context, rec model.ScoreRecord) error
}

// Sentinel kinds for store errors.
var (
	// ErrConfig marks missing or malformed store connection settings,
	// detected before any store call.
	ErrConfig = errors.New("store not configured")
	// ErrUnavailable marks a failed store call; the store's own message is
	// wrapped alongside it.
	ErrUnavailable = errors.New("store unavailable")
)

// IsMissingMemeColumn reports whether err looks like the scores table lacks
// the meme columns, so callers can attach a provisioning hint.
func IsMissingMemeColumn(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "meme") && strings.Contains(msg, "column")
}
