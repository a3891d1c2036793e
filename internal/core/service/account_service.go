package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/memberbase/accounts-api/internal/core/domain"
	"github.com/memberbase/accounts-api/internal/core/ports"
)

const defaultAdminName = "Admin"

// AccountService implements account listing, creation and mutation, enforcing
// the reserved-username and last-admin invariants.
type AccountService struct {
	repo   ports.AccountRepository
	logger zerolog.Logger
}

func NewAccountService(repo ports.AccountRepository, logger zerolog.Logger) *AccountService {
	return &AccountService{repo: repo, logger: logger}
}

// List returns all accounts ordered by creation id ascending.
func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	return s.repo.FindAll(ctx)
}

// Create adds a new account with a freshly hashed password. A reserved
// username is only allowed when the new account itself is an admin.
func (s *AccountService) Create(ctx context.Context, username, password, name, role string) (*domain.Account, error) {
	if username == "" || password == "" || name == "" {
		return nil, domain.ErrValidation
	}
	if !domain.ValidRole(role) {
		return nil, domain.ErrValidation
	}
	if domain.IsReservedUsername(username) && role != domain.RoleAdmin {
		return nil, domain.ErrReservedUsername
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Username:     username,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("username", created.Username).
		Str("role", created.Role).
		Msg("account created")

	return created, nil
}

// Update applies the patch to target on behalf of actor. The whole patch is
// atomic: the first rejected field aborts the call and nothing is persisted.
func (s *AccountService) Update(ctx context.Context, actor domain.TokenClaims, target *domain.Account, patch ports.AccountPatch) (*domain.Account, error) {
	updated := *target
	changed := false

	if patch.Username != nil && *patch.Username != target.Username {
		// Only an account that already carries the admin role may claim a
		// reserved name.
		if domain.IsReservedUsername(*patch.Username) && !target.IsAdmin() {
			return nil, domain.ErrReservedUsername
		}
		updated.Username = *patch.Username
		changed = true
	}

	if patch.Name != nil && *patch.Name != target.Name {
		if *patch.Name == "" {
			return nil, domain.ErrValidation
		}
		updated.Name = *patch.Name
		changed = true
	}

	if patch.Password != nil {
		if *patch.Password == "" {
			return nil, domain.ErrValidation
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		updated.PasswordHash = string(hash)
		changed = true
	}

	demotingAdmin := false
	if patch.Role != nil && *patch.Role != target.Role {
		if !domain.ValidRole(*patch.Role) {
			return nil, domain.ErrValidation
		}
		if !actor.IsAdmin() {
			return nil, domain.ErrForbidden
		}
		demotingAdmin = target.IsAdmin()
		updated.Role = *patch.Role
		changed = true
	}

	if !changed {
		return target, nil
	}

	updated.UpdatedAt = time.Now().UTC()

	var err error
	if demotingAdmin {
		// Conditional persist: the store refuses the write unless another
		// admin exists, so the system can never be left with zero admins.
		err = s.repo.DemoteAdmin(ctx, &updated)
	} else {
		err = s.repo.Update(ctx, &updated)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("account_id", updated.ID).
		Str("actor", actor.Username).
		Msg("account updated")

	return &updated, nil
}

// EnsureAdmin seeds the default admin account when no admin-role account
// exists yet. It backs the bootstrap invariant that at least one admin is
// always present.
func (s *AccountService) EnsureAdmin(ctx context.Context, defaultPassword string) error {
	n, err := s.repo.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	s.logger.Warn().Msg("admin account missing, creating default admin")

	_, err = s.Create(ctx, "admin", defaultPassword, defaultAdminName, domain.RoleAdmin)
	if err != nil && !errors.Is(err, domain.ErrUsernameTaken) {
		return err
	}
	return nil
}
