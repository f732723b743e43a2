package errors

import "errors"

var (
	ErrItemNotFound = errors.New("food item not found")

	ErrOrderNotFound = errors.New("food order not found")

	ErrInvalidID = errors.New("invalid food ID format")

	ErrStockConflict = errors.New("stock changed while applying order")
)
