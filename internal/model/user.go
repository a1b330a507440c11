// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered account.
//
// Accounts come from two places: classic username/email + password
// registration, and GitHub OAuth login. Both end up in the same users table
// and get the same numeric ID.
//
// WHY `json:"-"` ON PasswordHash?
// The password hash must NEVER appear in an API response. The `-` tag tells
// encoding/json to skip the field entirely, so even a lazy
// `writeJSON(w, 200, user)` cannot leak it. Defence at the type level beats
// remembering to strip it in every handler.
//
// WHY Active INSTEAD OF DELETING ROWS?
// Deleting an account marks it inactive (a "soft delete") rather than
// removing the row. The username/email stay reserved and audit history
// survives. Every lookup treats inactive users as nonexistent.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GitHubID     int64     `json:"-"` // 0 unless the account was created via GitHub OAuth
	Active       bool      `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"-"`
}
