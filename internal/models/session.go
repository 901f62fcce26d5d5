package models

import "time"

// Session is the server-held state behind a session handle
type Session struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is stale at the given instant
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// LoginRequest is the payload for POST /
type LoginRequest struct {
	Email string `json:"email" binding:"required,max=320"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	Email string `json:"email"`
}

// SessionStatusResponse is returned by GET /
type SessionStatusResponse struct {
	LoggedIn bool   `json:"loggedIn"`
	Email    string `json:"email,omitempty"`
}

// LogoutResponse is returned after logout
type LogoutResponse struct {
	Message string `json:"message"`
}
