package ports

import (
	"context"

	"github.com/memberbase/accounts-api/internal/core/domain"
)

// AccountPatch is a partial update to an account. Nil fields are untouched.
type AccountPatch struct {
	Username *string
	Name     *string
	Role     *string
	Password *string
}

type AccountService interface {
	List(ctx context.Context) ([]domain.Account, error)
	Create(ctx context.Context, username, password, name, role string) (*domain.Account, error)
	// Update applies the patch to target on behalf of actor. The patch is
	// all-or-nothing: any rejected field aborts the whole call and leaves the
	// stored record untouched.
	Update(ctx context.Context, actor domain.TokenClaims, target *domain.Account, patch AccountPatch) (*domain.Account, error)
	// EnsureAdmin seeds the default admin account when no admin exists.
	EnsureAdmin(ctx context.Context, defaultPassword string) error
}
