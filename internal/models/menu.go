package models

import (
	"fmt"
	"strings"
	"time"
)

// MenuItem is a catalog entry. The engine reads it, the menu service
// owns it. DailyQuantity is the ceiling on units sellable per calendar
// day; the admission controller never admits past it.
type MenuItem struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description,omitempty"`
	Price         int64     `json:"price"`
	DailyQuantity int       `json:"daily_quantity"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// UpsertMenuItemRequest is the admin payload for creating or updating
// a catalog entry.
type UpsertMenuItemRequest struct {
	Name          string  `json:"name"`
	Description   *string `json:"description,omitempty"`
	Price         int64   `json:"price"`
	DailyQuantity int     `json:"daily_quantity"`
}

func (req *UpsertMenuItemRequest) Validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(req.Name) > 100 {
		return fmt.Errorf("%w: name must not exceed 100 characters", ErrInvalidInput)
	}
	if req.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if req.DailyQuantity < 0 {
		return fmt.Errorf("%w: daily_quantity must not be negative", ErrInvalidInput)
	}
	return nil
}
