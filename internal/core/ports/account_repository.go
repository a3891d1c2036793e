package ports

import (
	"context"

	"github.com/memberbase/accounts-api/internal/core/domain"
)

// AccountRepository defines the persistence contract for account records.
// Username uniqueness is enforced by the store; reserved-name rejection is
// checked by the core and redundantly defended at the store boundary.
type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	// FindAll returns all accounts ordered by creation id ascending.
	FindAll(ctx context.Context) ([]domain.Account, error)
	CountByRole(ctx context.Context, role string) (int64, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	Update(ctx context.Context, account *domain.Account) error
	// DemoteAdmin persists account (whose stored role is admin and whose new
	// role is not) only if at least one other admin exists, as a single
	// conditional store operation. Fails with domain.ErrLastAdmin otherwise.
	DemoteAdmin(ctx context.Context, account *domain.Account) error
}
