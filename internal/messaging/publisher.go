package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"canteen-connect/internal/logger"
	"canteen-connect/internal/models"
)

// Publisher handles message publishing to RabbitMQ
type Publisher struct {
	conn   *Connection
	logger *logger.Logger
}

// NewPublisher creates a new message publisher
func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: log,
	}
}

// PublishOrderPlaced publishes an admitted order to the kitchen display
func (p *Publisher) PublishOrderPlaced(ctx context.Context, msg *models.OrderPlacedMessage) error {
	routingKey := models.PlacedRoutingKey(models.PaymentStatus(msg.PaymentStatus))
	return p.publishMessage(ctx, OrdersExchange, routingKey, msg, true)
}

// PublishStatusUpdate fans a lifecycle change out to all subscribers
func (p *Publisher) PublishStatusUpdate(ctx context.Context, msg *models.StatusUpdateMessage) error {
	return p.publishMessage(ctx, NotificationsExchange, "", msg, false)
}

func (p *Publisher) publishMessage(ctx context.Context, exchange, routingKey string, message interface{}, persistent bool) error {
	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	deliveryMode := uint8(1)
	if persistent {
		deliveryMode = 2
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: deliveryMode,
		Timestamp:    time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.conn.Channel().PublishWithContext(
		ctx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		publishing,
	)

	if err != nil {
		p.logger.Error("message_publish_failed",
			fmt.Sprintf("Failed to publish message to exchange %s", exchange),
			"", err, map[string]interface{}{
				"exchange":    exchange,
				"routing_key": routingKey,
			})
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("message_published",
		fmt.Sprintf("Published message to exchange %s", exchange),
		"", map[string]interface{}{
			"exchange":     exchange,
			"routing_key":  routingKey,
			"message_size": len(body),
		})

	return nil
}

// Close closes the publisher
func (p *Publisher) Close() error {
	return p.conn.Close()
}
