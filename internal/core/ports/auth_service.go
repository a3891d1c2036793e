package ports

import (
	"context"

	"github.com/memberbase/accounts-api/internal/core/domain"
)

// LoginResult carries the outcome of a successful login. Exactly one of
// APIToken and SessionID is set: the token is either returned to the caller
// or stored server-side in a session.
type LoginResult struct {
	APIToken  string
	SessionID string
}

type AuthService interface {
	Login(ctx context.Context, username, password string, storeInSession bool) (*LoginResult, error)
	Signup(ctx context.Context, username, password, name string) (*domain.Account, error)
	Logout(ctx context.Context, sessionID string) error
}
