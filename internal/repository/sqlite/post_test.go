package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

// createTestPost inserts a post for the given author and returns it.
func createTestPost(t *testing.T, db *DB, userID int64, title string) *model.Post {
	t.Helper()

	p := &model.Post{
		Title:   title,
		Content: "content of " + title,
		UserID:  userID,
	}
	if err := db.Posts().Create(context.Background(), p); err != nil {
		t.Fatalf("creating test post %q: %v", title, err)
	}
	return p
}

// =========================================================================
// Create TESTS
// =========================================================================

func TestPostCreate_AssignsIDAndAuthor(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "ann", "ann@example.com")

	p := createTestPost(t, db, author.ID, "hello world")

	if p.ID == 0 {
		t.Error("Create() did not assign an ID")
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
	if p.AuthorUsername != "ann" {
		t.Errorf("AuthorUsername = %q, want %q", p.AuthorUsername, "ann")
	}
}

func TestPostCreate_TimestampsStartEqual(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "ann", "ann@example.com")

	p := createTestPost(t, db, author.ID, "fresh")

	if !p.CreatedAt.Equal(p.UpdatedAt) {
		t.Errorf("CreatedAt (%v) and UpdatedAt (%v) should start equal", p.CreatedAt, p.UpdatedAt)
	}
}

// =========================================================================
// GetByID TESTS
// =========================================================================

func TestPostGetByID_JoinsAuthorUsername(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "ann", "ann@example.com")
	created := createTestPost(t, db, author.ID, "joined")

	got, err := db.Posts().GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "joined" {
		t.Errorf("Title = %q, want %q", got.Title, "joined")
	}
	if got.AuthorUsername != "ann" {
		t.Errorf("AuthorUsername = %q, want %q", got.AuthorUsername, "ann")
	}
}

func TestPostGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Posts().GetByID(context.Background(), 9999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByID() missing post error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// List / Count TESTS
// =========================================================================

func TestPostList_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "ann", "ann@example.com")

	// Posts created in the same millisecond tie on created_at; the id
	// tiebreaker must still put the later insert first.
	for i := 1; i <= 5; i++ {
		createTestPost(t, db, author.ID, fmt.Sprintf("post %d", i))
	}

	posts, err := db.Posts().List(context.Background(), repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(posts) != 5 {
		t.Fatalf("List() returned %d posts, want 5", len(posts))
	}

	for i := 1; i < len(posts); i++ {
		prev, cur := posts[i-1], posts[i]
		if cur.CreatedAt.After(prev.CreatedAt) {
			t.Errorf("posts out of order: %q (%v) before %q (%v)",
				prev.Title, prev.CreatedAt, cur.Title, cur.CreatedAt)
		}
		if cur.CreatedAt.Equal(prev.CreatedAt) && cur.ID > prev.ID {
			t.Errorf("tie on created_at must break by id DESC: %d before %d", prev.ID, cur.ID)
		}
	}
}

func TestPostList_LimitAndOffset(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "ann", "ann@example.com")

	for i := 1; i <= 7; i++ {
		createTestPost(t, db, author.ID, fmt.Sprintf("post %d", i))
	}

	page1, err := db.Posts().List(context.Background(), repository.ListOptions{Limit: 3, Offset: 0})
	if err != nil {
		t.Fatalf("List() page 1 error = %v", err)
	}
	page2, err := db.Posts().List(context.Background(), repository.ListOptions{Limit: 3, Offset: 3})
	if err != nil {
		t.Fatalf("List() page 2 error = %v", err)
	}
	page3, err := db.Posts().List(context.Background(), repository.ListOptions{Limit: 3, Offset: 6})
	if err != nil {
		t.Fatalf("List() page 3 error = %v", err)
	}

	if len(page1) != 3 || len(page2) != 3 || len(page3) != 1 {
		t.Fatalf("page sizes = %d/%d/%d, want 3/3/1", len(page1), len(page2), len(page3))
	}

	// No post may appear on two pages.
	seen := map[int64]bool{}
	for _, p := range append(append(page1, page2...), page3...) {
		if seen[p.ID] {
			t.Errorf("post %d appears on more than one page", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestPostList_OffsetPastEnd(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "ann", "ann@example.com")
	createTestPost(t, db, author.ID, "only one")

	posts, err := db.Posts().List(context.Background(), repository.ListOptions{Limit: 10, Offset: 100})
	if err != nil {
		t.Fatalf("List() past end error = %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("List() past end returned %d posts, want empty slice", len(posts))
	}
	if posts == nil {
		t.Error("List() should return an empty slice, not nil — it serializes as [] not null")
	}
}

func TestPostList_Empty(t *testing.T) {
	db := newTestDB(t)

	posts, err := db.Posts().List(context.Background(), repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("List() on empty table error = %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("List() on empty table returned %d posts", len(posts))
	}
}

func TestPostCount(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "ann", "ann@example.com")

	n, err := db.Posts().Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Count() on empty table = %d, want 0", n)
	}

	for i := 0; i < 4; i++ {
		createTestPost(t, db, author.ID, fmt.Sprintf("post %d", i))
	}

	n, err = db.Posts().Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 4 {
		t.Errorf("Count() = %d, want 4", n)
	}
}

// =========================================================================
// Update TESTS
// =========================================================================

func TestPostUpdate_ChangesFieldsAndRefreshesUpdatedAt(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "ann", "ann@example.com")
	p := createTestPost(t, db, author.ID, "original")

	originalCreated := p.CreatedAt

	// Make sure the clock moves past the creation timestamp.
	time.Sleep(5 * time.Millisecond)

	p.Title = "edited"
	p.Content = "edited content"
	if err := db.Posts().Update(context.Background(), p); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := db.Posts().GetByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetByID() after update error = %v", err)
	}
	if got.Title != "edited" || got.Content != "edited content" {
		t.Errorf("after update = %q/%q, want edited fields", got.Title, got.Content)
	}
	if !got.CreatedAt.Equal(originalCreated) {
		t.Error("Update() must not touch CreatedAt")
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Errorf("UpdatedAt (%v) should be after CreatedAt (%v)", got.UpdatedAt, got.CreatedAt)
	}
}

func TestPostUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	ghost := &model.Post{ID: 9999, Title: "x", Content: "y"}
	err := db.Posts().Update(context.Background(), ghost)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Update() missing post error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// Delete TESTS
// =========================================================================

func TestPostDelete(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "ann", "ann@example.com")
	p := createTestPost(t, db, author.ID, "doomed")

	if err := db.Posts().Delete(context.Background(), p.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := db.Posts().GetByID(context.Background(), p.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestPostDelete_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Posts().Delete(context.Background(), 9999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Delete() missing post error = %v, want ErrNotFound", err)
	}
}
