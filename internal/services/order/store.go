package order

import (
	"context"

	"canteen-connect/internal/models"
)

// Store is the durable order store as seen by the admission controller
// and the lifecycle operations. The service holds keyed locks across
// CommittedQuantity / CountOrders and InsertOrder, so implementations
// only need each individual call to be atomic.
type Store interface {
	// MenuItemsByID resolves catalog entries. Missing ids are simply
	// absent from the result map.
	MenuItemsByID(ctx context.Context, ids []int64) (map[int64]models.MenuItem, error)

	// CommittedQuantity is the demand accumulator: units of the item
	// already promised to paid, non-cancelled orders created within the
	// day. Must observe one consistent snapshot per call.
	CommittedQuantity(ctx context.Context, menuItemID int64, day models.DayBounds) (int, error)

	// CountOrders counts every order created within the day, cancelled
	// ones included.
	CountOrders(ctx context.Context, day models.DayBounds) (int, error)

	// InsertOrder persists the order and its lines atomically, filling
	// ID, CreatedAt and UpdatedAt.
	InsertOrder(ctx context.Context, o *models.Order) error

	OrdersForUser(ctx context.Context, userID int64) ([]models.Order, error)
	OrdersForDay(ctx context.Context, day models.DayBounds) ([]models.Order, error)

	// MarkPaid and MarkReady return models.ErrNotFound for absent or
	// cancelled orders. Both are no-op-safe when the order is already
	// in the target state.
	MarkPaid(ctx context.Context, orderID int64) (*models.Order, error)
	MarkReady(ctx context.Context, orderID int64) (*models.Order, error)
}

// EventPublisher pushes placement and lifecycle events to interested
// consumers. Publishing is best-effort; a failed publish never fails
// the order operation.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, msg *models.OrderPlacedMessage) error
	PublishStatusUpdate(ctx context.Context, msg *models.StatusUpdateMessage) error
}
