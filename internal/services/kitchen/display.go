// Package kitchen consumes order placement events and prints them for
// the preparation counter. Staff drive preparation through the API;
// the display only tells them what to cook next.
package kitchen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"canteen-connect/internal/logger"
	"canteen-connect/internal/messaging"
	"canteen-connect/internal/models"
)

// Display consumes placement events for the kitchen counter
type Display struct {
	consumer *messaging.Consumer
	logger   *logger.Logger
}

func NewDisplay(consumer *messaging.Consumer, log *logger.Logger) *Display {
	return &Display{
		consumer: consumer,
		logger:   log,
	}
}

// Start consumes until the context is cancelled.
func (d *Display) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	d.logger.Info("service_started", "Kitchen display started", requestID, nil)

	err := d.consumer.StartConsuming(ctx, d.handleOrder)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("kitchen consumer failed: %w", err)
	}
	return nil
}

func (d *Display) handleOrder(ctx context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	var placed models.OrderPlacedMessage
	if err := json.Unmarshal(body, &placed); err != nil {
		d.logger.Error("message_parsing_failed", "Failed to parse placement event", requestID, err, nil)
		return fmt.Errorf("failed to parse placement event: %w", err)
	}

	lines := make([]string, 0, len(placed.Items))
	for _, item := range placed.Items {
		lines = append(lines, fmt.Sprintf("%dx %s", item.Quantity, item.Name))
	}

	fmt.Printf("[%s] Token %d (%s): %s\n",
		placed.PlacedAt.Format("15:04:05"),
		placed.TokenNumber,
		placed.PaymentStatus,
		strings.Join(lines, ", "),
	)

	d.logger.Debug("order_displayed", "Order shown on kitchen display", requestID, map[string]interface{}{
		"order_id":     placed.OrderID,
		"token_number": placed.TokenNumber,
	})
	return nil
}

// Close stops the display
func (d *Display) Close() error {
	return d.consumer.Close()
}
