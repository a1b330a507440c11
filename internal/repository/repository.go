// Package repository declares the storage interfaces the service layer
// programs against. The sqlite subpackage provides the real implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/blog-api/internal/model"
)

// ListOptions carries LIMIT/OFFSET pagination down to the storage layer.
// The service layer is responsible for turning (page, pageSize) into these.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository is the credential store: user records with salted-hash
// passwords. Implementations must report duplicate usernames/emails as
// apperror.ErrConflict and missing-or-inactive users as apperror.ErrNotFound.
type UserRepository interface {
	// Create inserts a new user. The caller provides Username, Email and
	// PasswordHash (or GitHubID); the repository assigns ID and timestamps.
	Create(ctx context.Context, user *model.User) error

	// GetByID returns the ACTIVE user with the given id.
	// Soft-deleted users are reported as not found.
	GetByID(ctx context.Context, id int64) (*model.User, error)

	// GetByIdentifier looks an active user up by username OR email.
	// Login accepts either in a single field.
	GetByIdentifier(ctx context.Context, identifier string) (*model.User, error)

	// GetByGitHubID returns the active user bound to the given GitHub account.
	GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error)

	// UpsertGitHub inserts a user on first GitHub login and refreshes the
	// profile on subsequent logins, keyed on GitHubID.
	UpsertGitHub(ctx context.Context, user *model.User) error

	// Update persists username/email changes, enforcing the same
	// uniqueness rules as Create.
	Update(ctx context.Context, user *model.User) error

	// Deactivate soft-deletes the user and hard-deletes all their posts
	// in a single transaction (the ownership cascade).
	Deactivate(ctx context.Context, id int64) error
}

// PostRepository is the resource store for posts.
type PostRepository interface {
	// Create inserts a post. The repository assigns ID and timestamps
	// (CreatedAt == UpdatedAt on insert).
	Create(ctx context.Context, post *model.Post) error

	// GetByID returns a post with AuthorUsername populated.
	GetByID(ctx context.Context, id int64) (*model.Post, error)

	// List returns posts ordered newest-first. The ordering is
	// deterministic: repeated calls over unchanged data return the same slice.
	List(ctx context.Context, opts ListOptions) ([]model.Post, error)

	// Count returns the total number of posts, for pagination metadata.
	Count(ctx context.Context) (int64, error)

	// Update rewrites title/content and refreshes UpdatedAt.
	Update(ctx context.Context, post *model.Post) error

	// Delete removes a post by id.
	Delete(ctx context.Context, id int64) error
}
