package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/memberbase/accounts-api/internal/core/domain"
)

// TokenService issues and verifies HS256-signed API tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue serializes the claims plus issued-at/expiry into a signed token.
func (s *TokenService) Issue(claims domain.TokenClaims) (string, error) {
	now := s.now().UTC()
	mapClaims := jwt.MapClaims{
		"account_id": claims.AccountID,
		"username":   claims.Username,
		"role":       claims.Role,
		"iat":        now.Unix(),
		"exp":        now.Add(s.ttl).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	return t.SignedString(s.secret)
}

// Verify checks signature and expiry and decodes the identity claims.
// Untrusted input never causes a panic: every failure mode maps to
// domain.ErrInvalidToken.
func (s *TokenService) Verify(token string) (*domain.TokenClaims, error) {
	mapClaims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, mapClaims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !tkn.Valid {
		return nil, domain.ErrInvalidToken
	}

	accountID, _ := mapClaims["account_id"].(string)
	username, _ := mapClaims["username"].(string)
	role, _ := mapClaims["role"].(string)
	if accountID == "" || username == "" || role == "" {
		return nil, domain.ErrInvalidToken
	}

	return &domain.TokenClaims{
		AccountID: accountID,
		Username:  username,
		Role:      role,
	}, nil
}
