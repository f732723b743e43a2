package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrRoomUnavailable = errors.New("room is not available for the requested dates")

	ErrInvalidTransition = errors.New("booking status transition not allowed")
)
