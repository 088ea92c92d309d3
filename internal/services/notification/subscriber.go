// Package notification consumes the status fanout and prints
// patron-facing updates keyed by token number.
package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"canteen-connect/internal/logger"
	"canteen-connect/internal/messaging"
	"canteen-connect/internal/models"
)

// Subscriber handles status update notifications
type Subscriber struct {
	consumer *messaging.Consumer
	logger   *logger.Logger
}

func NewSubscriber(consumer *messaging.Consumer, log *logger.Logger) *Subscriber {
	return &Subscriber{
		consumer: consumer,
		logger:   log,
	}
}

// Start consumes until the context is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	err := s.consumer.StartConsuming(ctx, s.handleNotification)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("notification consumer failed: %w", err)
	}
	return nil
}

func (s *Subscriber) handleNotification(ctx context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	var update models.StatusUpdateMessage
	if err := json.Unmarshal(body, &update); err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse notification message", requestID, err, nil)
		return fmt.Errorf("failed to parse notification: %w", err)
	}

	fmt.Println(formatNotification(&update))

	s.logger.Debug("notification_displayed", "Notification displayed", requestID, map[string]interface{}{
		"order_id":     update.OrderID,
		"token_number": update.TokenNumber,
		"new_status":   update.NewStatus,
	})
	return nil
}

func formatNotification(update *models.StatusUpdateMessage) string {
	timestamp := update.Timestamp.Format("15:04:05")

	switch update.NewStatus {
	case string(models.PrepReady):
		return fmt.Sprintf("[%s] Token %d: your order is ready for pickup!", timestamp, update.TokenNumber)
	case string(models.PaymentPaid):
		return fmt.Sprintf("[%s] Token %d: payment received.", timestamp, update.TokenNumber)
	case "cancelled":
		return fmt.Sprintf("[%s] Order %d was cancelled (unpaid past the grace window).", timestamp, update.OrderID)
	default:
		return fmt.Sprintf("[%s] Token %d: status changed from '%s' to '%s'.", timestamp, update.TokenNumber, update.OldStatus, update.NewStatus)
	}
}

// Close stops the subscriber
func (s *Subscriber) Close() error {
	return s.consumer.Close()
}
