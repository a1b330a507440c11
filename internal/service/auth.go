// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// AuthService is the business logic for identity: registration, login,
// profile changes, and account deactivation. It sits between the HTTP
// handlers and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT) + PasswordService (bcrypt)
//
// It does NOT set cookies, read requests, or know about Chi — those are
// handler concerns. That separation is what makes this layer testable with
// plain function calls and mock repositories.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

// Validation constants for registration input.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MinPasswordLength = 8
	MaxEmailLength    = 254 // RFC 5321 upper bound
)

// AuthService handles the authentication business logic.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// Call this in server.go when wiring the dependency graph.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult is returned by authentication operations.
// It bundles the user record and the issued JWT together so the caller
// (the HTTP handler) can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new account from username/email/password.
//
// VALIDATION ORDER:
// All input validation happens before any storage access — a request that
// fails validation must leave the database untouched. Uniqueness, on the
// other hand, is enforced by the repository (the database's UNIQUE
// constraints), because only the database can check it without races.
//
// The password is hashed here; the plaintext never reaches the repository.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))

	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be between %d and %d characters", MinUsernameLength, MaxUsernameLength))
	}
	if !validEmail(email) {
		return nil, apperror.ValidationFailed("email", "email address is not valid")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		// Hash only fails on >72-byte input — a client error, not a server one.
		return nil, apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Conflict passes through untouched; anything else is a storage failure.
		return nil, err
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login verifies credentials and issues a JWT on success.
//
// The identifier may be a username OR an email — clients get one login box.
//
// NO INFORMATION LEAK:
// Every failure path returns the SAME error (apperror.Unauthorized with the
// same message) and costs the SAME amount of work. When the lookup misses,
// we still burn one bcrypt compare via DummyVerify so an attacker can't
// distinguish "unknown user" from "wrong password" by response timing.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperror.ValidationFailed("identifier", "identifier and password are required")
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		s.passwords.DummyVerify(password)
		return nil, apperror.Unauthorized("invalid credentials")
	}

	// GitHub-only accounts have no password hash; they must log in via
	// OAuth. The dummy compare keeps this path's timing in line too.
	if user.PasswordHash == "" {
		s.passwords.DummyVerify(password)
		return nil, apperror.Unauthorized("invalid credentials")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}

	s.logger.Info("user logged in",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// LoginOrRegisterGitHub handles the GitHub OAuth callback.
//
// After the handler exchanges the GitHub code for a GitHubUser profile, it
// calls this method to:
//
//  1. Upsert the user in the database (create on first login, refresh on
//     subsequent logins, keyed on the stable GitHub ID)
//  2. Generate a JWT access token for the authenticated user
//  3. Return both so the handler can set the HttpOnly cookie and redirect
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	// Build the user model from GitHub profile data. GitHub accounts have
	// no password hash — they can only authenticate via OAuth.
	user := &model.User{
		GitHubID: ghUser.ID,
		Username: ghUser.Login,
		Email:    strings.ToLower(ghUser.Email),
	}
	if user.Email == "" {
		// GitHub lets users hide their email. Synthesize a stable
		// placeholder so the NOT NULL UNIQUE column stays satisfied.
		user.Email = fmt.Sprintf("%d+%s@users.noreply.github.com", ghUser.ID, ghUser.Login)
	}

	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.Int64("userID", user.ID),
		slog.String("login", ghUser.Login),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the user for the given internal ID.
//
// Used by the /api/me handler after the middleware validates the JWT.
// A token whose subject refers to a deactivated user fails here with
// NotFound — which the handler surfaces as 401, since the credential no
// longer resolves to a live identity.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	if id <= 0 {
		return nil, apperror.NotFound("user", id)
	}
	return s.users.GetByID(ctx, id)
}

// UpdateProfile changes the authenticated user's username and/or email.
// A nil field means "leave unchanged". Uniqueness violations surface as
// Conflict, exactly like registration.
func (s *AuthService) UpdateProfile(ctx context.Context, id int64, username, email *string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if username != nil {
		name := strings.TrimSpace(*username)
		if len(name) < MinUsernameLength || len(name) > MaxUsernameLength {
			return nil, apperror.ValidationFailed("username",
				fmt.Sprintf("username must be between %d and %d characters", MinUsernameLength, MaxUsernameLength))
		}
		user.Username = name
	}
	if email != nil {
		addr := strings.TrimSpace(strings.ToLower(*email))
		if !validEmail(addr) {
			return nil, apperror.ValidationFailed("email", "email address is not valid")
		}
		user.Email = addr
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.Int64("userID", user.ID))
	return user, nil
}

// DeactivateAccount soft-deletes the authenticated user's account and
// removes their posts (the ownership cascade). Their tokens keep verifying
// until expiry, but every identity lookup after this fails — the account
// is gone as far as the API is concerned.
func (s *AuthService) DeactivateAccount(ctx context.Context, id int64) error {
	if err := s.users.Deactivate(ctx, id); err != nil {
		return err
	}
	s.logger.Info("account deactivated", slog.Int64("userID", id))
	return nil
}

// validEmail is a deliberately loose check: something@something.something.
// Real validation is sending a confirmation mail; a stricter regexp only
// rejects legitimate addresses.
func validEmail(email string) bool {
	if email == "" || len(email) > MaxEmailLength {
		return false
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.Contains(email, " ")
}
