package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "userID", id), ANY package that knows the string "userID"
// can read or shadow your value. Using a package-private type prevents collisions:
// only THIS package can create a key of type contextKey, so only this package
// can read or write userID values in the context.
type contextKey string

const userIDKey contextKey = "userID"

// UserResolver answers "does this token subject still name a live account?".
// The sqlite user store satisfies it; returning apperror.ErrNotFound means
// the account is gone (deleted or never existed).
type UserResolver interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It looks for the JWT in two places, in order:
//  1. The Authorization header: "Authorization: Bearer <token>" — the
//     standard way for API clients and the conceptual contract of this API
//  2. The "token" HttpOnly cookie — convenient for browser clients, since
//     the browser attaches it automatically
//
// A valid signature is NOT enough: the subject must also resolve to a live
// account. Tokens are stateless, so a user who deleted their account still
// holds a cryptographically valid token until it expires — the resolver
// lookup is what turns that token into a 401 instead of letting a ghost
// account keep writing.
//
// If both checks pass, the userID is stored in the request context and the
// chain continues. Otherwise the request terminates BEFORE any handler or
// storage code runs: 401 for a bad token or dead subject, 500 if the
// liveness lookup itself fails.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware is a function that takes an http.Handler and returns a new
// http.Handler. The new handler "wraps" the original:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... do stuff before the handler ...
//	        next.ServeHTTP(w, r)
//	        // ... do stuff after the handler ...
//	    })
//	}
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(tokens *TokenService, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized)
				return
			}

			if _, err := users.GetByID(r.Context(), userID); err != nil {
				if errors.Is(err, apperror.ErrNotFound) {
					// Signature fine, account gone — same 401 as a bad token.
					writeAuthError(w, http.StatusUnauthorized)
					return
				}
				// The lookup failed for storage reasons; that's our fault,
				// not the client's.
				writeAuthError(w, http.StatusInternalServerError)
				return
			}

			// Store userID in context so handlers can read it
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth is a middleware that extracts the user identity if a valid
// token with a live subject is present, but does NOT block the request if
// it's missing, invalid, or belongs to a deleted account.
//
// The router applies this to the public post reads (GET /posts and
// GET /posts/{id}): anonymous users can always read, while logged-in users
// carry their identity into the handler for anything identity-aware
// (e.g. marking the caller's own posts in a listing).
//
// Handlers check for the user via UserIDFromContext — if it returns
// (0, false), the request is anonymous.
func OptionalAuth(tokens *TokenService, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := extractUserID(r, tokens); err == nil && userID > 0 {
				if _, err := users.GetByID(r.Context(), userID); err == nil {
					ctx := context.WithValue(r.Context(), userIDKey, userID)
					r = r.WithContext(ctx)
				}
			}
			// Always continue — no 401 even if no token
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request context.
//
// Returns (0, false) if the request is anonymous (no valid token was present).
// Returns (id, true) if the user is authenticated.
//
// Usage in handlers:
//
//	userID, ok := auth.UserIDFromContext(r.Context())
//	if !ok {
//	    // anonymous user
//	}
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}

// WithUserID returns a context carrying the given userID, exactly as
// RequireAuth would set it. Exported for handler tests, which call handlers
// directly without running the middleware chain.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// extractUserID finds and validates the JWT on a request.
// This is a private helper shared by RequireAuth and OptionalAuth.
func extractUserID(r *http.Request, tokens *TokenService) (int64, error) {
	// Authorization header wins over the cookie — an API client that sets
	// the header explicitly shouldn't be trumped by a stale browser cookie.
	if h := r.Header.Get("Authorization"); h != "" {
		if tokenStr, ok := strings.CutPrefix(h, "Bearer "); ok {
			return tokens.Validate(strings.TrimSpace(tokenStr))
		}
	}

	cookie, err := r.Cookie("token")
	if err != nil {
		// http.ErrNoCookie means the cookie isn't present — not an error, just anonymous
		return 0, err
	}

	return tokens.Validate(cookie.Value)
}

// writeAuthError emits the middleware's fixed JSON error bodies. The
// middleware can't use the handler package's helpers (that would be an
// import cycle), so the two possible responses are spelled out here.
func writeAuthError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status == http.StatusInternalServerError {
		w.Write([]byte(`{"error":"internal_error","message":"An internal error occurred"}`))
		return
	}
	w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
}
