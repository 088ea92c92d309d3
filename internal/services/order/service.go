package order

import (
	"context"
	"fmt"
	"time"

	"canteen-connect/internal/keylock"
	"canteen-connect/internal/logger"
	"canteen-connect/internal/models"
)

// Service is the order admission and lifecycle engine. Admission is
// serialized through keyed mutual-exclusion regions: one per (item,
// day) held across the stock check and the insert, and one per day for
// token allocation. Unrelated items and days never contend.
type Service struct {
	store     Store
	locks     *keylock.KeyedMutex
	publisher EventPublisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewService creates the engine. publisher may be nil when no broker is
// configured.
func NewService(store Store, publisher EventPublisher, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		locks:     keylock.New(),
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

func stockKey(day models.DayBounds, menuItemID int64) string {
	return fmt.Sprintf("stock:%d:%s", menuItemID, day.Key())
}

func tokenKey(day models.DayBounds) string {
	return "token:" + day.Key()
}

// PlaceOrder admits a new order as one logically atomic unit: stock
// validation per distinct item, price computation, token assignment and
// persistence. The whole order is rejected on the first failing item.
func (s *Service) PlaceOrder(ctx context.Context, userID int64, req *models.PlaceOrderRequest, requestID string) (*models.PlaceOrderResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Day boundary is resolved once, at call start.
	day := models.DayFor(s.now())

	// Duplicate lines for the same item count jointly against the
	// ceiling.
	wanted := make(map[int64]int)
	ids := make([]int64, 0, len(req.Items))
	for _, line := range req.Items {
		if _, seen := wanted[line.MenuItemID]; !seen {
			ids = append(ids, line.MenuItemID)
		}
		wanted[line.MenuItemID] += line.Quantity
	}

	items, err := s.store.MenuItemsByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve menu items: %w", err)
	}
	for _, id := range ids {
		if _, ok := items[id]; !ok {
			return nil, fmt.Errorf("%w: menu item %d", models.ErrUnknownItem, id)
		}
	}

	// Hold the per-(item, day) regions across check and insert so two
	// concurrent admissions cannot jointly exceed a ceiling.
	stockKeys := make([]string, 0, len(ids))
	for _, id := range ids {
		stockKeys = append(stockKeys, stockKey(day, id))
	}
	unlockStock := s.locks.LockAll(stockKeys)
	defer unlockStock()

	for _, id := range ids {
		item := items[id]
		committed, err := s.store.CommittedQuantity(ctx, id, day)
		if err != nil {
			return nil, fmt.Errorf("failed to compute committed demand: %w", err)
		}
		if committed+wanted[id] > item.DailyQuantity {
			return nil, &models.StockExceededError{MenuItemID: id, Name: item.Name}
		}
	}

	var total int64
	lines := make([]models.OrderLine, 0, len(req.Items))
	for _, line := range req.Items {
		item := items[line.MenuItemID]
		total += item.Price * int64(line.Quantity)
		lines = append(lines, models.OrderLine{
			MenuItemID: item.ID,
			Name:       item.Name,
			Quantity:   line.Quantity,
			UnitPrice:  item.Price,
		})
	}

	o := &models.Order{
		UserID:           userID,
		Lines:            lines,
		TotalPrice:       total,
		PaymentStatus:    models.NormalizePaymentIntent(req.PaymentStatus),
		Status:           models.PrepPreparing,
		PaymentReference: models.PaymentReferenceStub,
	}

	// Token allocation is serialized per day, across all items, and
	// stays linearized with the insert below.
	unlockToken := s.locks.Lock(tokenKey(day))
	defer unlockToken()

	count, err := s.store.CountOrders(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate token: %w", err)
	}
	o.TokenNumber = count + 1

	if err := s.store.InsertOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	s.logger.Info("order_admitted", fmt.Sprintf("Order %d admitted with token %d", o.ID, o.TokenNumber), requestID, map[string]interface{}{
		"order_id":       o.ID,
		"token_number":   o.TokenNumber,
		"total_price":    o.TotalPrice,
		"payment_status": o.PaymentStatus,
	})

	if s.publisher != nil {
		if err := s.publisher.PublishOrderPlaced(ctx, models.NewOrderPlacedMessage(o)); err != nil {
			s.logger.Error("event_publish_failed", "Failed to publish placement event", requestID, err, map[string]interface{}{
				"order_id": o.ID,
			})
		}
	}

	return &models.PlaceOrderResponse{
		OrderID:          o.ID,
		TokenNumber:      o.TokenNumber,
		TotalPrice:       o.TotalPrice,
		PaymentReference: o.PaymentReference,
		Currency:         models.Currency,
	}, nil
}

// MarkPaid settles an order's payment. Safe to repeat; cancelled or
// missing orders report ErrNotFound.
func (s *Service) MarkPaid(ctx context.Context, orderID int64, requestID string) (*models.Order, error) {
	o, err := s.store.MarkPaid(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order_paid", fmt.Sprintf("Order %d marked paid", orderID), requestID, map[string]interface{}{
		"order_id":     orderID,
		"token_number": o.TokenNumber,
	})

	s.publishStatus(ctx, o, string(models.PaymentPending), string(models.PaymentPaid), "staff")
	return o, nil
}

// MarkReady moves an order's preparation to Ready. Payment is not
// required first; pay-at-counter orders become Ready while Pending.
func (s *Service) MarkReady(ctx context.Context, orderID int64, requestID string) (*models.Order, error) {
	o, err := s.store.MarkReady(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order_ready", fmt.Sprintf("Order %d marked ready", orderID), requestID, map[string]interface{}{
		"order_id":     orderID,
		"token_number": o.TokenNumber,
	})

	s.publishStatus(ctx, o, string(models.PrepPreparing), string(models.PrepReady), "staff")
	return o, nil
}

// ListOrdersForUser returns the user's non-cancelled orders, newest
// first.
func (s *Service) ListOrdersForUser(ctx context.Context, userID int64) ([]models.Order, error) {
	orders, err := s.store.OrdersForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListOrdersForToday returns today's non-cancelled orders ordered by
// token number.
func (s *Service) ListOrdersForToday(ctx context.Context) ([]models.Order, error) {
	orders, err := s.store.OrdersForDay(ctx, models.DayFor(s.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *Service) publishStatus(ctx context.Context, o *models.Order, oldStatus, newStatus, changedBy string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishStatusUpdate(ctx, models.NewStatusUpdateMessage(o, oldStatus, newStatus, changedBy)); err != nil {
		s.logger.Error("event_publish_failed", "Failed to publish status update", "", err, map[string]interface{}{
			"order_id": o.ID,
		})
	}
}
