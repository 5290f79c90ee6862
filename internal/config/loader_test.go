package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/vmtlabs/tinsel/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "postgrest")
				convey.So(cfg.EventID, convey.ShouldEqual, config.DefaultEventID)
				convey.So(cfg.MaxLeaderboardRows, convey.ShouldEqual, 50)
				convey.So(cfg.AssignmentSource, convey.ShouldEqual, "seeded")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TINSEL_ADDR", ":8080")
			_ = os.Setenv("TINSEL_STORE_DRIVER", "memory")
			_ = os.Setenv("TINSEL_EVENT_ID", "summer-bash")
			_ = os.Setenv("TINSEL_MAX_LEADERBOARD_ROWS", "10")
			_ = os.Setenv("TINSEL_TENOR_KEY", "test-key")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "memory")
				convey.So(cfg.EventID, convey.ShouldEqual, "summer-bash")
				convey.So(cfg.MaxLeaderboardRows, convey.ShouldEqual, 10)
				convey.So(cfg.TenorKey, convey.ShouldEqual, "test-key")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
store_driver: memory
event_id: winter-games
max_leaderboard_rows: 25
assignment_source: curated
pairing_path: pairing.yaml
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TINSEL_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "memory")
				convey.So(cfg.EventID, convey.ShouldEqual, "winter-games")
				convey.So(cfg.MaxLeaderboardRows, convey.ShouldEqual, 25)
				convey.So(cfg.AssignmentSource, convey.ShouldEqual, "curated")
				convey.So(cfg.PairingPath, convey.ShouldEqual, "pairing.yaml")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
event_id: winter-games
max_leaderboard_rows: 25
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TINSEL_CONFIG", tmpFile)
			_ = os.Setenv("TINSEL_ADDR", ":8080") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")           // Overridden by env
				convey.So(cfg.EventID, convey.ShouldEqual, "winter-games") // From file
				convey.So(cfg.MaxLeaderboardRows, convey.ShouldEqual, 25)  // From file
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("TINSEL_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("TINSEL_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown store driver", func() {
			_ = os.Setenv("TINSEL_STORE_DRIVER", "dynamo")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "store_driver")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown assignment source", func() {
			_ = os.Setenv("TINSEL_ASSIGNMENT_SOURCE", "tarot")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "assignment_source")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-positive row cap", func() {
			_ = os.Setenv("TINSEL_MAX_LEADERBOARD_ROWS", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "max_leaderboard_rows")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config without store credentials", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then loading still succeeds; the store reports per request", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.StoreURL, convey.ShouldBeEmpty)
				convey.So(cfg.StoreServiceKey, convey.ShouldBeEmpty)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"TINSEL_CONFIG",
		"TINSEL_ADDR",
		"TINSEL_STORE_DRIVER",
		"TINSEL_STORE_URL",
		"TINSEL_STORE_SERVICE_KEY",
		"TINSEL_EVENT_ID",
		"TINSEL_MAX_LEADERBOARD_ROWS",
		"TINSEL_ASSIGNMENT_SOURCE",
		"TINSEL_TENOR_KEY",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "tinsel-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
