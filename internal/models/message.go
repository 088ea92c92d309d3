package models

import (
	"fmt"
	"time"
)

// OrderPlacedMessage is published to the kitchen display when an order
// is admitted
type OrderPlacedMessage struct {
	OrderID       int64       `json:"order_id"`
	TokenNumber   int         `json:"token_number"`
	UserID        int64       `json:"user_id"`
	Items         []OrderLine `json:"items"`
	TotalPrice    int64       `json:"total_price"`
	PaymentStatus string      `json:"payment_status"`
	PlacedAt      time.Time   `json:"placed_at"`
}

// StatusUpdateMessage is fanned out to subscribers on every lifecycle
// change
type StatusUpdateMessage struct {
	OrderID     int64     `json:"order_id"`
	TokenNumber int       `json:"token_number"`
	OldStatus   string    `json:"old_status"`
	NewStatus   string    `json:"new_status"`
	ChangedBy   string    `json:"changed_by"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewOrderPlacedMessage builds the kitchen event for an admitted order
func NewOrderPlacedMessage(o *Order) *OrderPlacedMessage {
	return &OrderPlacedMessage{
		OrderID:       o.ID,
		TokenNumber:   o.TokenNumber,
		UserID:        o.UserID,
		Items:         o.Lines,
		TotalPrice:    o.TotalPrice,
		PaymentStatus: string(o.PaymentStatus),
		PlacedAt:      o.CreatedAt,
	}
}

// NewStatusUpdateMessage builds a fanout notification for a lifecycle
// change
func NewStatusUpdateMessage(o *Order, oldStatus, newStatus, changedBy string) *StatusUpdateMessage {
	return &StatusUpdateMessage{
		OrderID:     o.ID,
		TokenNumber: o.TokenNumber,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
		ChangedBy:   changedBy,
		Timestamp:   time.Now().UTC(),
	}
}

// PlacedRoutingKey is the routing key for order placement events.
func PlacedRoutingKey(paymentStatus PaymentStatus) string {
	return fmt.Sprintf("order.placed.%s", paymentStatus)
}
