package models

import (
	"errors"
	"fmt"
)

// Business rejections and lookup failures. Handlers map these to HTTP
// status codes with errors.Is / errors.As; anything else is treated as
// an infrastructure failure.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnknownItem  = errors.New("unknown menu item")
	ErrNotFound     = errors.New("not found")
)

// StockExceededError rejects an admission that would breach an item's
// daily quantity ceiling. The whole order is rejected, never a subset.
type StockExceededError struct {
	MenuItemID int64
	Name       string
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.Name)
}
