// Package model defines domain entities for the application.
package model

import "time"

// User represents a registered account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthContext holds the authenticated identity attached to a request
// after the bearer token has been verified.
type AuthContext struct {
	UserID    int64
	Email     string
	TokenID   string
	ExpiresAt time.Time
}
