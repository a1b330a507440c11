// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer — it connects handlers, middleware, and routes.
// Think of it as the control centre that decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go creates config + logger and passes them to New(), which builds
// the entire graph in one place (the "composition root"):
//
//	sqlite.DB → UserStore/PostStore
//	          → AuthService (with TokenService + PasswordService)
//	          → PostService
//	          → AuthHandler / PostHandler
//	          → routes
//
// Nothing in this app is a package-level singleton; every dependency is an
// explicitly constructed value with an explicit lifecycle
// (construct → serve → shut down). That's what makes the whole stack
// testable: the end-to-end tests construct a Server against ":memory:" and
// drive its router directly.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/config"
	"github.com/sakif/blog-api/internal/handler"
	"github.com/sakif/blog-api/internal/middleware"
	sqliteRepo "github.com/sakif/blog-api/internal/repository/sqlite"
	"github.com/sakif/blog-api/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. When the server shuts down, it
// must close this connection to flush any pending writes and release the
// file lock. This is handled in Start() during graceful shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB // owned by server, closed on shutdown
}

// New creates a new Server with the given config.
//
// IMPORT ALIAS:
// We import repository/sqlite as `sqliteRepo` to avoid confusion with
// the sqlite driver package. Import aliases are common in Go when
// package names would otherwise collide or be unclear.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close() // Clean up DB if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Router exposes the fully wired handler, primarily for tests that want to
// drive the server through httptest without opening a real listener.
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /auth/register         → create account
//	POST   /auth/login            → verify credentials, issue JWT
//	POST   /auth/logout           → clear the token cookie
//	GET    /auth/github/login     → OAuth redirect (only if configured)
//	GET    /auth/github/callback  → OAuth completion (only if configured)
//	GET    /api/me                → own profile           [auth]
//	PUT    /api/me                → update username/email [auth]
//	DELETE /api/me                → deactivate account    [auth]
//	GET    /posts                 → list posts (paginated)
//	GET    /posts/{id}            → get single post
//	POST   /posts                 → create post           [auth]
//	PUT    /posts/{id}            → update post           [auth, owner]
//	DELETE /posts/{id}            → delete post           [auth, owner]
//	GET    /healthz               → liveness check
//	GET    /metrics               → Prometheus metrics
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added. Our order:
// 1. RequestID — assigns unique ID to each request (for tracing)
// 2. RealIP — extracts real client IP from proxy headers
// 3. Recoverer — catches panics and returns 500 instead of crashing
// 4. Logger/Metrics — observe every request, including panicking ones
// 5. CORS — reject disallowed cross-origin requests early
//
// RequireAuth is NOT global: it's scoped to the route groups that need it,
// so public reads don't pay for token parsing and the 401 short-circuit
// happens before any handler or storage code runs on protected routes.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID) // Adds X-Request-ID header
	s.router.Use(chimiddleware.RealIP)    // Extracts real IP from X-Forwarded-For
	s.router.Use(chimiddleware.Recoverer) // Recovers from panics, returns 500

	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// === Build the dependency graph ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	authService := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)
	postService := service.NewPostService(s.db.Posts(), s.logger)

	authHandler := handler.NewAuthHandler(authService, github, tokens.TTL(), s.logger)
	postHandler := handler.NewPostHandler(postService, s.logger)

	// === Operational endpoints ===
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	s.router.Handle("/metrics", promhttp.Handler())

	// === Auth routes (public) ===
	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)

		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	// RequireAuth checks more than the signature: the token's subject must
	// still resolve to a live account, so a deleted user's unexpired token
	// can't keep mutating state.
	requireAuth := auth.RequireAuth(tokens, s.db.Users())

	// === Account routes (authenticated) ===
	s.router.Route("/api", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/me", authHandler.HandleMe)
		r.Put("/me", authHandler.HandleUpdateMe)
		r.Delete("/me", authHandler.HandleDeleteMe)
	})

	// === Post routes ===
	// Reads are public; mutations require a valid token. The ownership
	// check (owner-only update/delete) happens in the service layer,
	// after the post is confirmed to exist.
	s.router.Route("/posts", func(r chi.Router) {
		// Reads accept but never require a token: a logged-in caller's
		// identity rides along for identity-aware rendering.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens, s.db.Users()))
			r.Get("/", postHandler.HandleList)
			r.Get("/{id}", postHandler.HandleGetByID)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", postHandler.HandleCreate)
			r.Put("/{id}", postHandler.HandleUpdate)
			r.Delete("/{id}", postHandler.HandleDelete)
		})
	})

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
//
// If we skip step 3, the database file might be left in an inconsistent state.
// The `defer s.db.Close()` ensures this happens even if something panics.
func (s *Server) Start() error {
	// Ensure the database is closed when the server stops.
	defer s.db.Close()

	// Create the HTTP server with sensible timeouts
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to receive OS signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Channel to receive server errors
	serverErrors := make(chan error, 1)

	// Start the server in a goroutine (so it doesn't block)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.Env),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	// Block until we receive a signal or server error
	select {
	case err := <-serverErrors:
		// Server failed to start
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		// Received shutdown signal
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give in-flight requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
