package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Authentication outcomes
	ErrBadCredentials  = errors.New("username or password incorrect")
	ErrAccountLocked   = errors.New("account is locked")
	ErrAccountDisabled = errors.New("account is disabled")
	ErrTokenInvalid    = errors.New("token could not be verified")

	// Identity validation outcomes
	ErrUsernameExists  = errors.New("username already exists")
	ErrEmailExists     = errors.New("email already exists")
	ErrAccountNotFound = errors.New("no account found by username")
	ErrInvalidRole     = errors.New("unknown role")
	ErrWeakPassword    = errors.New("password does not meet requirements")
)
