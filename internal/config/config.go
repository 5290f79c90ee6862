// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// DefaultEventID scopes leaderboard rows when no event id is supplied by the
// caller or the environment.
const DefaultEventID = "vmt-secret-santa-2025"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the row-store backend: "postgrest" or "memory".
	StoreDriver string `koanf:"store_driver"`

	// StoreURL is the base URL of the row-store project, e.g.
	// https://xxxx.supabase.co. Required for the postgrest driver.
	StoreURL string `koanf:"store_url"`

	// StoreServiceKey is the privileged (service-role) credential for the
	// row-store. Required for the postgrest driver.
	StoreServiceKey string `koanf:"store_service_key"`

	// StoreTimeoutMS bounds a single row-store HTTP call.
	StoreTimeoutMS int `koanf:"store_timeout_ms"`

	// EventID is the default event scope for reads and writes.
	EventID string `koanf:"event_id"`

	// MaxLeaderboardRows caps the rows returned by a leaderboard read.
	MaxLeaderboardRows int `koanf:"max_leaderboard_rows"`

	// RosterPath points to the YAML participant roster.
	RosterPath string `koanf:"roster_path"`

	// AssignmentSource selects how gift assignments are produced:
	// "seeded" (deterministic derangement) or "curated" (hand-authored
	// pairing loaded from PairingPath).
	AssignmentSource string `koanf:"assignment_source"`

	// AssignmentSeed seeds the deterministic derangement.
	AssignmentSeed string `koanf:"assignment_seed"`

	// PairingPath points to the YAML name->name pairing used by the
	// curated assignment source.
	PairingPath string `koanf:"pairing_path"`

	// TenorKey enables the decorative meme catalog. Empty disables it.
	TenorKey string `koanf:"tenor_key"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		StoreDriver:        "postgrest",
		StoreTimeoutMS:     10_000,
		EventID:            DefaultEventID,
		MaxLeaderboardRows: 50,
		RosterPath:         "participants.yaml",
		AssignmentSource:   "seeded",
		AssignmentSeed:     DefaultEventID,
	}
}
