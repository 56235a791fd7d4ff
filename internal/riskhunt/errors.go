package riskhunt

import "errors"

var (
	// ErrValidation marks malformed shapes, zones, patches and configs.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks unknown session, image, game or zone ids.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState marks operations the current state does not allow,
	// such as clicking in a completed session.
	ErrInvalidState = errors.New("invalid state")
)
