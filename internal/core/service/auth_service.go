package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/memberbase/accounts-api/internal/core/domain"
	"github.com/memberbase/accounts-api/internal/core/ports"
)

// AuthService implements login, signup and session logout.
type AuthService struct {
	accounts ports.AccountService
	repo     ports.AccountRepository
	tokens   ports.TokenService
	sessions ports.SessionStore
	logger   zerolog.Logger
}

func NewAuthService(accounts ports.AccountService, repo ports.AccountRepository, tokens ports.TokenService, sessions ports.SessionStore, logger zerolog.Logger) *AuthService {
	return &AuthService{
		accounts: accounts,
		repo:     repo,
		tokens:   tokens,
		sessions: sessions,
		logger:   logger,
	}
}

// Login validates credentials and issues an API token. When storeInSession is
// set, the token is kept server-side and only the session id is returned;
// otherwise the token itself is returned and no session is created.
func (s *AuthService) Login(ctx context.Context, username, password string, storeInSession bool) (*ports.LoginResult, error) {
	if username == "" || password == "" {
		return nil, domain.ErrValidation
	}

	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidUsername
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidPassword
	}

	token, err := s.tokens.Issue(domain.TokenClaims{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      account.Role,
	})
	if err != nil {
		return nil, err
	}

	result := &ports.LoginResult{}
	if storeInSession {
		sid, err := s.sessions.Store(ctx, token)
		if err != nil {
			return nil, err
		}
		result.SessionID = sid
	} else {
		result.APIToken = token
	}

	s.logger.Info().
		Str("username", account.Username).
		Bool("session", storeInSession).
		Msg("login successful")

	return result, nil
}

// Signup creates a self-service account with the user role.
func (s *AuthService) Signup(ctx context.Context, username, password, name string) (*domain.Account, error) {
	return s.accounts.Create(ctx, username, password, name, domain.RoleUser)
}

// Logout removes the session, if any. Logging out a non-existent session is
// not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info().Msg("session logged out")
	return nil
}
