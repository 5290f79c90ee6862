package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vmtlabs/tinsel/internal/adapters/http/api"
	"github.com/vmtlabs/tinsel/internal/adapters/store"
	"github.com/vmtlabs/tinsel/internal/adapters/tenor"
	"github.com/vmtlabs/tinsel/internal/app"
	"github.com/vmtlabs/tinsel/internal/config"
	"github.com/vmtlabs/tinsel/internal/domain/assign"
	"github.com/vmtlabs/tinsel/internal/domain/roster"
	"github.com/vmtlabs/tinsel/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logger: " + err.Error() + "\n")
		}
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Participant roster is fixed per deployment.
	participants, err := roster.Load(cfg.RosterPath)
	if err != nil {
		os.Stderr.WriteString("failed to load roster: " + err.Error() + "\n")
		return
	}
	log.Info(ctx, "roster loaded", logger.String("path", cfg.RosterPath), logger.Int("participants", participants.Len()))

	// Gift assignments: deterministic derangement by default, or a
	// hand-curated pairing validated here at startup.
	var source assign.Source
	switch cfg.AssignmentSource {
	case "curated":
		pairing, err := assign.LoadPairing(cfg.PairingPath)
		if err != nil {
			os.Stderr.WriteString("failed to load pairing: " + err.Error() + "\n")
			return
		}
		source, err = assign.NewCurated(participants, pairing)
		if err != nil {
			os.Stderr.WriteString("invalid pairing: " + err.Error() + "\n")
			return
		}
	default:
		source = assign.NewSeeded(participants.IDs(), cfg.AssignmentSeed)
	}

	// Row-store driver. Missing postgrest credentials are reported
	// per-request as a configuration failure, not here.
	var rows store.Store
	switch cfg.StoreDriver {
	case "memory":
		rows = store.NewMemory()
		log.Warn(ctx, "using in-memory store; rows will not survive a restart")
	default:
		rows = store.NewPostgREST(cfg.StoreURL, cfg.StoreServiceKey,
			store.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.StoreTimeoutMS) * time.Millisecond}))
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithStore(rows),
		app.WithRoster(participants),
		app.WithAssignmentSource(source),
		app.WithMemeCatalog(tenor.New(cfg.TenorKey)),
		app.WithDefaultEventID(cfg.EventID),
		app.WithMaxRows(cfg.MaxLeaderboardRows),
	)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("event_id", cfg.EventID))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}
