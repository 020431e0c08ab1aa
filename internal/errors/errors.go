package errors

import (
	"errors"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrTooManyLoginAttempts = errors.New("too many failed login attempts")
	ErrEmailAlreadyInUse    = errors.New("email already in use")
	ErrPhoneAlreadyInUse    = errors.New("phone already in use")
	ErrInvalidResetToken    = errors.New("invalid or expired reset token")
	ErrWriteConflict        = errors.New("credential was modified concurrently")
	ErrMailDelivery         = errors.New("failed to deliver reset email")
)
