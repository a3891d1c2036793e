package ports

import "context"

// SessionStore persists API tokens server-side, keyed by an opaque session id
// carried in a cookie.
type SessionStore interface {
	// Store saves the token under a fresh session id and returns that id.
	Store(ctx context.Context, token string) (string, error)
	// Token returns the token for the session id, or "" when no session exists.
	Token(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}
