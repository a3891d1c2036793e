package domain

import "errors"

var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrUnauthorized      = errors.New("token required")
	ErrForbidden         = errors.New("insufficient permissions")
	ErrAccountNotFound   = errors.New("account not found")
	ErrTargetNotProvided = errors.New("account not provided")
	ErrReservedUsername  = errors.New("username is reserved")
	ErrLastAdmin         = errors.New("cannot demote the last admin")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrInvalidUsername   = errors.New("invalid username")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrValidation        = errors.New("missing required fields")
	ErrPersistence       = errors.New("persistence failure")
)
