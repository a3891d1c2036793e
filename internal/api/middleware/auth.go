package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/memberbase/accounts-api/internal/core/domain"
	"github.com/memberbase/accounts-api/internal/core/ports"
)

// SessionCookie is the cookie carrying the server-side session id.
const SessionCookie = "session_id"

// Context keys populated by the guard chain.
const (
	CtxAccountID     = "account_id"
	CtxUsername      = "username"
	CtxRole          = "role"
	CtxTargetAccount = "target_account"
)

// Auth is the token-presence guard. It normalizes a single token string from
// the Authorization header or, failing that, the session store keyed by the
// session cookie, verifies it and injects the claims into the context.
func Auth(tokens ports.TokenService, sessions ports.SessionStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)

			if token == "" && sessions != nil {
				if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
					stored, err := sessions.Token(c.Request().Context(), cookie.Value)
					if err != nil {
						return err
					}
					token = stored
				}
			}

			if token == "" {
				return domain.ErrUnauthorized
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				return domain.ErrInvalidToken
			}

			c.Set(CtxAccountID, claims.AccountID)
			c.Set(CtxUsername, claims.Username)
			c.Set(CtxRole, claims.Role)

			return next(c)
		}
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header, or returns "" when the header is absent or malformed.
func bearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// Principal rebuilds the authenticated claims injected by Auth.
func Principal(c echo.Context) domain.TokenClaims {
	accountID, _ := c.Get(CtxAccountID).(string)
	username, _ := c.Get(CtxUsername).(string)
	role, _ := c.Get(CtxRole).(string)
	return domain.TokenClaims{AccountID: accountID, Username: username, Role: role}
}
