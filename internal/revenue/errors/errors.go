package errors

import "errors"

var (
	ErrNotFound  = errors.New("revenue record not found")
	ErrInvalidID = errors.New("invalid revenue ID")
)
