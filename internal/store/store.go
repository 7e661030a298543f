// Package store persists users, their preferences, their shortlisted
// internships and web sessions. SQLite and in-memory backends share one
// contract.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("not found")
	// ErrUserExists is returned by CreateUser for a taken username.
	ErrUserExists = errors.New("username already exists")
)

// User is a registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Preferences are the last search inputs of a user.
type Preferences struct {
	UserID    int64
	Education string
	Skills    string
	Sector    string
	Location  string
	UpdatedAt time.Time
}

// ShortlistedInternship is a liked recommendation. Display fields are copied
// so the shortlist survives catalog changes.
type ShortlistedInternship struct {
	ID           int64
	UserID       int64
	InternshipID string
	Title        string
	Company      string
	Sector       string
	Location     string
	Duration     string
	Stipend      string
	CreatedAt    time.Time
}

// SessionRecord is an opaque serialized web session.
type SessionRecord struct {
	Token     string
	Data      []byte
	ExpiresAt time.Time
}

// UserStore manages accounts.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (User, error)
	FindUserByUsername(ctx context.Context, username string) (User, error)
}

// PreferenceStore keeps one Preferences row per user.
type PreferenceStore interface {
	SavePreferences(ctx context.Context, p Preferences) error
	// FindPreferences returns ErrNotFound when the user never searched.
	FindPreferences(ctx context.Context, userID int64) (Preferences, error)
}

// ShortlistStore manages saved internships.
type ShortlistStore interface {
	AddShortlisted(ctx context.Context, item ShortlistedInternship) (ShortlistedInternship, error)
	// ListShortlisted returns the user's items in insertion order.
	ListShortlisted(ctx context.Context, userID int64) ([]ShortlistedInternship, error)
	CountShortlisted(ctx context.Context, userID int64) (int, error)
	// RemoveShortlisted deletes item id only if it belongs to userID.
	RemoveShortlisted(ctx context.Context, userID, id int64) (bool, error)
}

// SessionStore persists web sessions.
type SessionStore interface {
	SaveSession(ctx context.Context, rec SessionRecord) error
	// LoadSession returns ErrNotFound for unknown or expired tokens.
	LoadSession(ctx context.Context, token string, now time.Time) (SessionRecord, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Store is the full persistence surface.
type Store interface {
	UserStore
	PreferenceStore
	ShortlistStore
	SessionStore
	Close() error
}
