package ports

import "github.com/memberbase/accounts-api/internal/core/domain"

// TokenService signs and verifies bearer tokens carrying identity claims.
type TokenService interface {
	Issue(claims domain.TokenClaims) (string, error)
	// Verify checks signature and expiry. It never panics on untrusted input;
	// any malformed, tampered or expired token yields domain.ErrInvalidToken.
	Verify(token string) (*domain.TokenClaims, error)
}
