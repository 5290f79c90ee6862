package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if TINSEL_CONFIG is set
//  3. env (prefix TINSEL_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("TINSEL_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: TINSEL_ADDR, TINSEL_STORE_URL, ...
	// Map env keys like TINSEL_STORE_URL -> store_url (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("TINSEL_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "tinsel_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Basic validation. Store credentials are deliberately NOT validated
	// here: their absence is reported per-request as a configuration
	// failure so a misdeployed function answers with a useful error body
	// instead of refusing to boot.
	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	switch cfg.StoreDriver {
	case "postgrest", "memory":
	default:
		return nil, fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, cfg.StoreDriver)
	}
	switch cfg.AssignmentSource {
	case "seeded", "curated":
	default:
		return nil, fmt.Errorf("%w: unknown assignment_source %q", ErrInvalidConfig, cfg.AssignmentSource)
	}
	if cfg.MaxLeaderboardRows < 1 {
		return nil, fmt.Errorf("%w: max_leaderboard_rows must be positive", ErrInvalidConfig)
	}
	return &cfg, nil
}
