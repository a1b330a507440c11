package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

// Validation and pagination constants.
// Defining these as constants (not magic numbers in code) makes them:
// - Easy to find and change
// - Self-documenting (the name explains the purpose)
// - Referenceable in error messages
const (
	MaxTitleLength   = 200
	MaxContentLength = 50000
	DefaultPageSize  = 20
	MaxPageSize      = 100
)

// PostService handles business logic for posts: validation, ownership
// enforcement, and pagination arithmetic.
//
// DEPENDENCY INJECTION:
// PostService takes a repository.PostRepository (interface), NOT a
// *sqlite.PostStore (concrete type). In tests we pass a mock repository;
// in production server.go passes the sqlite store. The service can't tell
// the difference — that's the point.
type PostService struct {
	repo   repository.PostRepository
	logger *slog.Logger
}

// NewPostService creates a new PostService.
func NewPostService(repo repository.PostRepository, logger *slog.Logger) *PostService {
	return &PostService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates and saves a new post owned by ownerID.
//
// VALIDATION BEFORE MUTATION:
// Every constraint is checked before the repository is touched, so a
// rejected request can't leave partial state behind.
func (s *PostService) Create(ctx context.Context, ownerID int64, title, content string) (*model.Post, error) {
	title = strings.TrimSpace(title)

	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperror.ValidationFailed("content", "content is required")
	}
	if len(content) > MaxContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxContentLength))
	}

	post := &model.Post{
		Title:   title,
		Content: content,
		UserID:  ownerID,
	}

	if err := s.repo.Create(ctx, post); err != nil {
		s.logger.Error("failed to create post",
			slog.Int64("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.Int64("id", post.ID),
		slog.Int64("ownerID", ownerID),
	)

	return post, nil
}

// GetByID retrieves a post by its ID.
// Returns apperror.ErrNotFound if the post doesn't exist.
func (s *PostService) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	if id <= 0 {
		return nil, apperror.NotFound("post", id)
	}
	return s.repo.GetByID(ctx, id)
}

// List returns one page of posts, newest first, plus pagination metadata.
//
// PAGINATION CONTRACT:
// page and pageSize are 1-based positive integers. pageSize is clamped to
// MaxPageSize so nobody can request the whole table. A page past the end
// is NOT an error — it returns an empty items slice with the correct
// total/pageCount, which is what paging UIs expect.
//
// Example: 25 posts, pageSize 10 → pageCount 3; page 3 has 5 items.
func (s *PostService) List(ctx context.Context, page, pageSize int) (*model.PostPage, error) {
	if page <= 0 {
		return nil, apperror.ValidationFailed("page", "page must be a positive integer")
	}
	if pageSize <= 0 {
		return nil, apperror.ValidationFailed("pageSize", "pageSize must be a positive integer")
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error("failed to count posts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("counting posts: %w", err)
	}

	items, err := s.repo.List(ctx, repository.ListOptions{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		s.logger.Error("failed to list posts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing posts: %w", err)
	}

	// Ceiling division: 25 items at pageSize 10 → 3 pages.
	pageCount := int((total + int64(pageSize) - 1) / int64(pageSize))

	return &model.PostPage{
		Items:     items,
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
		PageCount: pageCount,
	}, nil
}

// Update modifies a post on behalf of requesterID.
//
// CHECK ORDER — EXISTENCE BEFORE OWNERSHIP:
// We fetch the post first. A missing post returns NotFound to EVERYONE,
// owner or not — the 403 is reserved for posts that exist but belong to
// someone else. Doing it the other way round would either leak existence
// information inconsistently or mask real 404s. Tests pin this ordering.
//
// PARTIAL UPDATE:
// title and content are pointers: nil means "leave unchanged", a non-nil
// pointer (even to an empty string) means "set to this value" — and the
// empty string then fails validation, since both fields are required to
// be non-empty.
func (s *PostService) Update(ctx context.Context, id, requesterID int64, title, content *string) (*model.Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if post.UserID != requesterID {
		return nil, apperror.Forbidden("you do not own this post")
	}

	if title != nil {
		t := strings.TrimSpace(*title)
		if t == "" {
			return nil, apperror.ValidationFailed("title", "title is required")
		}
		if len(t) > MaxTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
		}
		post.Title = t
	}
	if content != nil {
		if strings.TrimSpace(*content) == "" {
			return nil, apperror.ValidationFailed("content", "content is required")
		}
		if len(*content) > MaxContentLength {
			return nil, apperror.ValidationFailed("content",
				fmt.Sprintf("content must be %d characters or less", MaxContentLength))
		}
		post.Content = *content
	}

	if err := s.repo.Update(ctx, post); err != nil {
		s.logger.Error("failed to update post",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating post: %w", err)
	}

	s.logger.Info("post updated", slog.Int64("id", post.ID))

	return post, nil
}

// Delete removes a post on behalf of requesterID.
// Same existence-before-ownership ordering as Update.
func (s *PostService) Delete(ctx context.Context, id, requesterID int64) error {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if post.UserID != requesterID {
		return apperror.Forbidden("you do not own this post")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("post deleted", slog.Int64("id", id))
	return nil
}
