// Package common defines shared constants, sentinel errors and small helpers
// used across the account store, its transport and the CLI. Callers should
// use errors.Is to match the sentinel values.
package common

import "errors"

var (
	// Session errors.
	ErrInvalidToken = errors.New("invalid token")

	// Credential errors.
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrUnknownAccount    = errors.New("unknown account")
	ErrAccountExists     = errors.New("account already exists")
	ErrUserCanceled      = errors.New("user canceled")

	// Request errors.
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrThrottled        = errors.New("too many requests")
)
