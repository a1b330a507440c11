// Package main is the entry point for the blog API server.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main" package.
// The main package should be kept minimal — its job is to:
// 1. Read configuration (from env vars, flags, or config files)
// 2. Create dependencies (logger, database connections, etc.)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
// This separation makes the app testable and its components reusable.
//
// WHY cmd/server/?
// The cmd/ directory is a Go convention for executable entry points.
// A project might have multiple executables (e.g., cmd/server, cmd/migrate, cmd/cli).
// Each gets its own directory with its own main.go.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/sakif/blog-api/internal/config"
	"github.com/sakif/blog-api/internal/server"
)

func main() {
	// === 1. LOAD .env (IF PRESENT) ===
	// godotenv reads key=value pairs from a local .env file into the
	// process environment. Real deployments set env vars directly, so a
	// missing file is not an error — it just means nothing to load.
	_ = godotenv.Load()

	// === 2. READ CONFIGURATION ===
	// config.Load pulls everything from the environment via viper and
	// validates it in one place, so the rest of the app can trust the
	// values it receives.
	cfg, err := config.Load()
	if err != nil {
		// Logger isn't set up yet, so write directly to stderr.
		os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(1)
	}

	// === 3. SET UP LOGGING ===
	// Two handlers, picked by environment:
	// - development: tint gives colourised, human-readable output for the terminal
	// - production: slog's TextHandler emits plain key=value lines that log
	//   collectors can parse
	//
	// Log levels (from least to most severe): Debug → Info → Warn → Error
	var logHandler slog.Handler
	if cfg.IsDevelopment() {
		logHandler = tint.NewHandler(os.Stdout, &tint.Options{
			Level: slog.LevelDebug,
		})
	} else {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	logger := slog.New(logHandler)

	// === 4. ENSURE THE DATABASE DIRECTORY EXISTS ===
	// os.MkdirAll creates all parent directories if needed (like `mkdir -p`).
	// 0755 = owner can read/write/execute, others can read/execute.
	// ":memory:" has no directory, so skip it.
	if cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 5. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
