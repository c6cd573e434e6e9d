package password

import "errors"

var (
	// ErrInvalidDigest is returned when a stored digest cannot be parsed.
	ErrInvalidDigest = errors.New("invalid password digest")
	// ErrHashing is returned when digest computation fails internally.
	ErrHashing = errors.New("password hashing failed")
	// ErrInvalidConfig is returned by constructors for out-of-range parameters.
	ErrInvalidConfig = errors.New("invalid password hasher configuration")
)
