// Package handler contains the HTTP layer: request parsing, response
// encoding, and nothing else. All business rules live in the service layer.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/service"
)

// PostHandler manages CRUD operations for posts.
//
// REQUEST PIPELINE (for mutating routes):
// The router wraps these handlers in auth.RequireAuth, so by the time
// HandleCreate/HandleUpdate/HandleDelete runs, the JWT has already been
// validated and the userID sits in the request context. The handler's job
// is parse → call service → encode. Ownership checks live in the service.
type PostHandler struct {
	posts  *service.PostService
	logger *slog.Logger
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(posts *service.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: logger}
}

// createPostRequest is the expected body for POST /posts.
//
// WHY A SEPARATE REQUEST STRUCT (not model.Post)?
// Decoding straight into the model would let clients set fields they must
// not control (id, userId, timestamps). A dedicated request type makes the
// accepted surface explicit.
type createPostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// updatePostRequest is the body for PUT /posts/{id}.
// Pointer fields distinguish "field absent" (nil → leave unchanged) from
// "field present but empty" (→ validation error).
type updatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// HandleList returns one page of posts.
//
// HTTP: GET /posts?page=1&pageSize=20
//
// Missing parameters get defaults; present-but-garbage parameters are a
// 400, not silently corrected — a client that sends page=banana has a bug
// it should hear about.
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeError(w, apperror.ValidationFailed("page", "page must be a positive integer"))
		return
	}
	pageSize, err := queryInt(r, "pageSize", service.DefaultPageSize)
	if err != nil {
		writeError(w, apperror.ValidationFailed("pageSize", "pageSize must be a positive integer"))
		return
	}

	result, err := h.posts.List(r.Context(), page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleGetByID returns a single post.
//
// HTTP: GET /posts/{id}
//
// URL PARAMETERS:
// Chi provides r.PathValue("id") to extract URL parameters. A non-numeric
// id can't name any post, so it's a plain 404 — same as a numeric id with
// no row behind it.
func (h *PostHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, apperror.NotFound("post", 0))
		return
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// HandleCreate saves a new post owned by the authenticated user.
//
// HTTP: POST /posts
// Auth: required
// BODY: {"title": "Hi", "content": "World"}
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Should never happen on a RequireAuth-protected route, but be safe.
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid post JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "request body must be valid JSON"))
		return
	}

	post, err := h.posts.Create(r.Context(), userID, req.Title, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

// HandleUpdate modifies an existing post.
//
// HTTP: PUT /posts/{id}
// Auth: required; only the owner may update (403 otherwise, 404 if the
// post doesn't exist — existence is checked first)
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	id, idOK := pathID(r)
	if !idOK {
		writeError(w, apperror.NotFound("post", 0))
		return
	}

	var req updatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid post JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "request body must be valid JSON"))
		return
	}

	post, err := h.posts.Update(r.Context(), id, userID, req.Title, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// HandleDelete removes a post.
//
// HTTP: DELETE /posts/{id}
// Auth: required; owner only.
// Success is 204 No Content — there's nothing useful to say about a
// deleted resource.
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	id, idOK := pathID(r)
	if !idOK {
		writeError(w, apperror.NotFound("post", 0))
		return
	}

	if err := h.posts.Delete(r.Context(), id, userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pathID parses the {id} URL parameter as a positive integer.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryInt parses an optional positive-integer query parameter.
// Absent → def. Present but non-numeric or non-positive → error.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, apperror.ValidationFailed(name, name+" must be a positive integer")
	}
	return n, nil
}
