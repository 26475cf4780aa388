package preserve

import "errors"

// Sentinel errors for library operations.
var (
	// ErrInvalidOption reports an option value that cannot be accepted.
	ErrInvalidOption = errors.New("invalid option")

	// Store errors.
	ErrStoreClosed = errors.New("store is closed")
	ErrEmptyKey    = errors.New("store key cannot be empty")

	// ErrFormat wraps a failure returned by a formatter.
	ErrFormat = errors.New("formatting failed")

	// ErrUnknownChannel reports a channel name outside content, excerpt, comment.
	ErrUnknownChannel = errors.New("unknown channel")
)
