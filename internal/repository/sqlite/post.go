package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

// compile-time check that *PostStore implements repository.PostRepository
var _ repository.PostRepository = (*PostStore)(nil)

// PostStore implements repository.PostRepository over the shared *DB.
type PostStore struct {
	db *DB
}

// Create inserts a new post owned by post.UserID.
//
// The database assigns the numeric ID (INTEGER PRIMARY KEY AUTOINCREMENT);
// we read it back with LastInsertId and write it into the caller's struct.
// CreatedAt and UpdatedAt start equal — UpdatedAt only diverges on the
// first Update.
//
// PARAMETERIZED QUERIES (the ? placeholders):
// NEVER build SQL strings with fmt.Sprintf or string concatenation!
// That creates SQL injection vulnerabilities:
//
//	BAD:  "WHERE id = '" + userInput + "'"   ← attacker sends: ' OR 1=1 --
//	GOOD: "WHERE id = ?", userInput           ← driver safely escapes the value
func (s *PostStore) Create(ctx context.Context, post *model.Post) error {
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now

	res, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO posts (title, content, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		post.Title,
		post.Content,
		post.UserID,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new post id: %w", err)
	}
	post.ID = id

	// Fill in AuthorUsername so the caller can serialize the post without
	// a second round trip.
	if post.AuthorUsername == "" {
		err = s.db.conn.QueryRowContext(ctx,
			`SELECT username FROM users WHERE id = ?`, post.UserID,
		).Scan(&post.AuthorUsername)
		if err != nil {
			return fmt.Errorf("sqlite: resolving author of post %d: %w", post.ID, err)
		}
	}

	return nil
}

// GetByID retrieves a single post with its author's username.
//
// THE JOIN:
// The API representation exposes authorUsername, not the numeric owner id,
// so every read joins users. Posts of deactivated users don't exist (the
// cascade removed them), which keeps this join simple.
func (s *PostStore) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	var p model.Post

	err := s.db.conn.QueryRowContext(ctx,
		`SELECT p.id, p.title, p.content, p.user_id, u.username, p.created_at, p.updated_at
		 FROM posts p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.id = ?`,
		id,
	).Scan(
		&p.ID,
		&p.Title,
		&p.Content,
		&p.UserID,
		&p.AuthorUsername,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %d: %w", id, err)
	}

	return &p, nil
}

// List retrieves posts newest-first with LIMIT/OFFSET pagination.
//
// DETERMINISTIC ORDERING:
// created_at alone is not a total order — two posts created in the same
// clock tick would tie, and SQLite would be free to return them in either
// order on different calls. Adding `id DESC` as a tiebreaker makes the
// ordering total, so the same page request always returns the same slice.
func (s *PostStore) List(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT p.id, p.title, p.content, p.user_id, u.username, p.created_at, p.updated_at
		 FROM posts p
		 JOIN users u ON u.id = p.user_id
		 ORDER BY p.created_at DESC, p.id DESC
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	// CRITICAL: always close rows when done! sql.Rows holds a pool
	// connection; forgetting Close leaks it.
	defer rows.Close()

	posts := make([]model.Post, 0, limit)

	for rows.Next() {
		var p model.Post
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Content, &p.UserID, &p.AuthorUsername,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, p)
	}

	// rows.Err() catches errors that happened DURING iteration
	// (connection dropped mid-stream, etc.).
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}

	return posts, nil
}

// Count returns the total number of posts. The service layer combines it
// with List to build pagination metadata (total, pageCount).
func (s *PostStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting posts: %w", err)
	}
	return n, nil
}

// Update rewrites a post's title and content and refreshes updated_at.
//
// Ownership is NOT checked here — the service layer has already fetched
// the post and compared owners. The repository's job is only to persist.
func (s *PostStore) Update(ctx context.Context, post *model.Post) error {
	post.UpdatedAt = time.Now()

	result, err := s.db.conn.ExecContext(ctx,
		`UPDATE posts SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
		post.Title,
		post.Content,
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %d: %w", post.ID, err)
	}

	// RowsAffected() tells us how many rows were changed by the UPDATE.
	// If 0 rows were affected, the WHERE clause didn't match anything → not found.
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", post.ID)
	}

	return nil
}

// Delete removes a post from the database by its ID.
//
// Same pattern as Update — check RowsAffected to detect "not found".
func (s *PostStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.conn.ExecContext(ctx,
		`DELETE FROM posts WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", id)
	}

	return nil
}
