package models

import (
	"fmt"
	"time"
)

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "Paid"
	PaymentPending PaymentStatus = "Pending"
)

// PrepStatus represents the preparation state of an order
type PrepStatus string

const (
	PrepPreparing PrepStatus = "Preparing"
	PrepReady     PrepStatus = "Ready"
)

// PaymentReferenceStub stands in for a real payment gateway reference.
const PaymentReferenceStub = "DUMMY_PAYMENT_ID"

// Currency for all prices. Prices are whole currency units, never floats.
const Currency = "INR"

// OrderLine is one item position of an order
type OrderLine struct {
	MenuItemID int64  `json:"menu_item_id"`
	Name       string `json:"name,omitempty"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
}

// Order is a durable order record. It is created once by the admission
// controller and afterwards only its payment status, preparation status
// and cancelled flag may change. TokenNumber is the patron-visible
// queue ticket, unique and dense per calendar day.
type Order struct {
	ID               int64         `json:"id"`
	UserID           int64         `json:"user_id"`
	Lines            []OrderLine   `json:"items"`
	TotalPrice       int64         `json:"total_price"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	Status           PrepStatus    `json:"status"`
	PaymentReference string        `json:"payment_reference,omitempty"`
	TokenNumber      int           `json:"token_number"`
	Cancelled        bool          `json:"cancelled"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// OrderLineRequest is one requested item position
type OrderLineRequest struct {
	MenuItemID int64 `json:"menu_item_id"`
	Quantity   int   `json:"quantity"`
}

// PlaceOrderRequest is the payload for placing a new order
type PlaceOrderRequest struct {
	Items         []OrderLineRequest `json:"items"`
	PaymentStatus string             `json:"payment_status"`
}

// Validate checks the structural preconditions of a placement request.
// Stock and catalog membership are checked later by the admission
// controller.
func (req *PlaceOrderRequest) Validate() error {
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: items array cannot be empty", ErrInvalidInput)
	}
	for i, line := range req.Items {
		if line.MenuItemID <= 0 {
			return fmt.Errorf("%w: items[%d].menu_item_id is required", ErrInvalidInput, i)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: items[%d].quantity must be a positive integer", ErrInvalidInput, i)
		}
	}
	return nil
}

// NormalizePaymentIntent coerces the requested payment intent. Anything
// other than exactly "Paid" is stored as "Pending" (pay-at-counter
// default, preserved behavior).
func NormalizePaymentIntent(intent string) PaymentStatus {
	if intent == string(PaymentPaid) {
		return PaymentPaid
	}
	return PaymentPending
}

// PlaceOrderResponse is returned after a successful admission
type PlaceOrderResponse struct {
	OrderID          int64  `json:"order_id"`
	TokenNumber      int    `json:"token_number"`
	TotalPrice       int64  `json:"total_price"`
	PaymentReference string `json:"payment_reference"`
	Currency         string `json:"currency"`
}

// DayBounds is a half-open [Start, End) calendar-day range. It is
// derived once per operation and passed down, never re-read from the
// wall clock mid-operation.
type DayBounds struct {
	Start time.Time
	End   time.Time
}

// DayFor returns the local calendar day containing t.
func DayFor(t time.Time) DayBounds {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return DayBounds{Start: start, End: start.AddDate(0, 0, 1)}
}

// Key returns a stable identifier for the day, used for lock scoping.
func (d DayBounds) Key() string {
	return d.Start.Format("2006-01-02")
}

// Contains reports whether t falls inside the day range.
func (d DayBounds) Contains(t time.Time) bool {
	return !t.Before(d.Start) && t.Before(d.End)
}
