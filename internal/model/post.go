package model

import "time"

// Post represents a blog post owned by exactly one user.
//
// The `json:"..."` tags control how the struct serializes in API responses.
// UserID is internal — clients see the human-readable AuthorUsername, which
// the repository fills in with a JOIN when reading posts back.
type Post struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	UserID         int64     `json:"-"`
	AuthorUsername string    `json:"authorUsername"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// PostPage is one page of a post listing plus the metadata a client needs
// to render pagination controls.
type PostPage struct {
	Items     []Post `json:"items"`
	Total     int64  `json:"total"`
	Page      int    `json:"page"`
	PageSize  int    `json:"pageSize"`
	PageCount int    `json:"pageCount"`
}
