package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/memberbase/accounts-api/internal/core/domain"
	"github.com/memberbase/accounts-api/internal/core/ports"
)

// meSentinel in the accountId path segment resolves to the principal's own id.
const meSentinel = "me"

// ResolveTarget loads the account named by the :accountId path parameter into
// the context. Runs after Auth so the "me" sentinel always has a principal to
// resolve against.
func ResolveTarget(accounts ports.AccountRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Param("accountId")
			if id == "" {
				return domain.ErrTargetNotProvided
			}
			if id == meSentinel {
				id, _ = c.Get(CtxAccountID).(string)
			}

			account, err := accounts.FindByID(c.Request().Context(), id)
			if err != nil {
				if errors.Is(err, domain.ErrAccountNotFound) {
					return domain.ErrAccountNotFound
				}
				return err
			}

			c.Set(CtxTargetAccount, account)
			return next(c)
		}
	}
}

// SelfOrAdmin passes only when the principal is the resolved target account
// or carries the admin role.
func SelfOrAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			target, _ := c.Get(CtxTargetAccount).(*domain.Account)
			if target == nil {
				return domain.ErrTargetNotProvided
			}

			principal := Principal(c)
			if principal.AccountID != target.ID && !principal.IsAdmin() {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

// TargetAccount returns the account resolved by ResolveTarget.
func TargetAccount(c echo.Context) (*domain.Account, error) {
	target, _ := c.Get(CtxTargetAccount).(*domain.Account)
	if target == nil {
		return nil, domain.ErrTargetNotProvided
	}
	return target, nil
}
