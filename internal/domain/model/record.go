// Package model contains domain models passed between layers.
package model

import "time"

// ScoreRecord is one leaderboard row, unique per (event_id, participant_id).
// Field names mirror the row-store schema.
type ScoreRecord struct {
	EventID       string    `json:"event_id"`
	ParticipantID string    `json:"participant_id"`
	Name          string    `json:"name"`
	BestScore     int       `json:"best_score"`
	Moves         int       `json:"moves"`
	Seconds       int       `json:"seconds"`
	MemeURL       *string   `json:"meme_url"`
	MemeTinyURL   *string   `json:"meme_tiny_url"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Submission is a validated score submission from a client. Meme fields are
// tri-state: absent means "leave unchanged", null means "clear".
type Submission struct {
	ParticipantID string
	Name          string
	BestScore     int
	Moves         int
	Seconds       int
	MemeURL       OptionalString
	MemeTinyURL   OptionalString
}

// HasMemeUpdate reports whether the payload explicitly carried a meme field,
// including an explicit null.
func (s Submission) HasMemeUpdate() bool {
	return s.MemeURL.Set || s.MemeTinyURL.Set
}

// Patch is a partial row update used when the submitted score did not beat
// the stored best: only name, updated_at and explicitly present meme fields
// are written.
type Patch struct {
	Name        string
	UpdatedAt   time.Time
	MemeURL     OptionalString
	MemeTinyURL OptionalString
}

// SyncResult reports what a submission changed.
type SyncResult struct {
	UpdatedScore bool
	UpdatedMeme  bool
}
