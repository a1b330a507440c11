package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// This line verifies AT COMPILE TIME that *UserStore implements
// repository.UserRepository.
//
// How it works:
//   - `var _ X = (*Y)(nil)` creates a nil pointer of type *Y
//   - It assigns it to a variable of type X (the interface)
//   - If *Y doesn't implement X, the compiler errors immediately
//   - The `_` means we don't actually use the variable — it's just a check
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore implements repository.UserRepository over the shared *DB.
type UserStore struct {
	db *DB
}

// userColumns is the canonical SELECT list, kept in one place so every
// query scans the same fields in the same order.
const userColumns = `id, username, email, password_hash, COALESCE(github_id, 0), active, created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.GitHubID,
		&u.Active,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure on
// the given column. modernc.org/sqlite doesn't export typed constraint
// errors, but its messages always name the violated column as
// "UNIQUE constraint failed: table.column".
func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}

// Create inserts a new user.
//
// UNIQUENESS:
// We let the database's UNIQUE constraints do the checking rather than
// SELECTing first — a pre-check would leave a race window between the
// check and the INSERT where another request could grab the same username.
// The constraint violation is translated into apperror.Conflict naming
// the offending field, which the handler maps to 409.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Active = true

	// github_id must be NULL (not 0) for password accounts, or the partial
	// unique index would collide on the second one.
	var githubID any
	if user.GitHubID != 0 {
		githubID = user.GitHubID
	}

	res, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, github_id, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?)`,
		user.Username,
		user.Email,
		user.PasswordHash,
		githubID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "users.username"):
			return apperror.Conflict("username", "username already taken")
		case isUniqueViolation(err, "users.email"):
			return apperror.Conflict("email", "email already registered")
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	// LastInsertId returns the AUTOINCREMENT id the database just assigned.
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}
	user.ID = id

	return nil
}

// GetByID retrieves an ACTIVE user by their ID.
// Returns apperror.ErrNotFound if no such user exists or the account is
// soft-deleted — a deactivated account is indistinguishable from a missing one.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? AND active = 1`, id)

	u, err := scanUser(row)
	if err != nil {
		// sql.ErrNoRows is a sentinel error — it just means "no matching
		// row exists". We translate it to our app's NotFound error so the
		// handler knows to return 404.
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return u, nil
}

// GetByIdentifier looks an active user up by username or email.
// The UNIQUE constraints guarantee at most one row can match.
func (s *UserStore) GetByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE (username = ? OR email = ?) AND active = 1`,
		identifier, identifier)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: "user not found",
			}
		}
		return nil, fmt.Errorf("sqlite: getting user %q: %w", identifier, err)
	}
	return u, nil
}

// GetByGitHubID retrieves the active user bound to a GitHub account.
func (s *UserStore) GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE github_id = ? AND active = 1`, githubID)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: "user not found",
			}
		}
		return nil, fmt.Errorf("sqlite: getting user by github_id %d: %w", githubID, err)
	}
	return u, nil
}

// UpsertGitHub inserts a user on first GitHub login and refreshes their
// email on subsequent logins, keyed on github_id.
//
// We keep the user's existing internal ID across logins — one GitHub
// account maps to exactly one app account forever. GitHub's OAuth
// guarantees the GitHub ID is stable and unique, so upserting on it is safe.
func (s *UserStore) UpsertGitHub(ctx context.Context, user *model.User) error {
	existing, err := s.GetByGitHubID(ctx, user.GitHubID)
	if err == nil {
		// User already exists — update the profile in case the email changed
		// on GitHub, and keep the existing internal ID and username.
		user.ID = existing.ID
		user.Username = existing.Username
		user.CreatedAt = existing.CreatedAt
		user.Active = true
		user.UpdatedAt = time.Now()
		if user.Email == "" {
			user.Email = existing.Email
		}

		_, err = s.db.conn.ExecContext(ctx,
			`UPDATE users SET email = ?, updated_at = ? WHERE id = ?`,
			user.Email, user.UpdatedAt, user.ID)
		if err != nil {
			return fmt.Errorf("sqlite: updating github user %d: %w", user.ID, err)
		}
		return nil
	}

	// First login — insert. Create handles ID, timestamps, and will report
	// a Conflict if the GitHub login collides with an existing username.
	return s.Create(ctx, user)
}

// Update persists username/email changes for an existing user, enforcing
// the same uniqueness rules as Create.
func (s *UserStore) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	res, err := s.db.conn.ExecContext(ctx,
		`UPDATE users SET username = ?, email = ?, updated_at = ?
		 WHERE id = ? AND active = 1`,
		user.Username, user.Email, user.UpdatedAt, user.ID)
	if err != nil {
		switch {
		case isUniqueViolation(err, "users.username"):
			return apperror.Conflict("username", "username already taken")
		case isUniqueViolation(err, "users.email"):
			return apperror.Conflict("email", "email already registered")
		}
		return fmt.Errorf("sqlite: updating user %d: %w", user.ID, err)
	}

	// RowsAffected() tells us how many rows matched the WHERE clause.
	// 0 means the user doesn't exist (or is already deactivated).
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// Deactivate soft-deletes a user and removes all their posts.
//
// WHY A TRANSACTION?
// Deleting a user must also delete their posts, and that cannot ride on
// the FK's ON DELETE CASCADE here, because we never DELETE the user
// row — we flip the active flag. So the cascade is explicit: both writes
// happen inside one transaction, and a failure of either leaves the
// database exactly as it was.
func (s *UserStore) Deactivate(ctx context.Context, id int64) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning deactivate tx: %w", err)
	}
	// Rollback is a no-op after a successful Commit, so deferring it
	// unconditionally is the standard cleanup pattern.
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET active = 0, updated_at = ? WHERE id = ? AND active = 1`,
		time.Now(), id)
	if err != nil {
		return fmt.Errorf("sqlite: deactivating user %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("user", id)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM posts WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: cascading post delete for user %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing deactivate tx: %w", err)
	}

	return nil
}
