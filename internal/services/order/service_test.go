package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"canteen-connect/internal/logger"
	"canteen-connect/internal/models"
)

// fakeStore is an in-memory Store. Each method takes the store mutex,
// matching the per-call atomicity the interface requires.
type fakeStore struct {
	mu     sync.Mutex
	menu   map[int64]models.MenuItem
	orders []*models.Order
	nextID int64
	now    func() time.Time
}

func newFakeStore(now func() time.Time, items ...models.MenuItem) *fakeStore {
	menu := make(map[int64]models.MenuItem, len(items))
	for _, item := range items {
		menu[item.ID] = item
	}
	return &fakeStore{menu: menu, now: now}
}

func (f *fakeStore) MenuItemsByID(ctx context.Context, ids []int64) (map[int64]models.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	found := make(map[int64]models.MenuItem)
	for _, id := range ids {
		if item, ok := f.menu[id]; ok {
			found[id] = item
		}
	}
	return found, nil
}

func (f *fakeStore) CommittedQuantity(ctx context.Context, menuItemID int64, day models.DayBounds) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, o := range f.orders {
		if o.PaymentStatus != models.PaymentPaid || o.Cancelled || !day.Contains(o.CreatedAt) {
			continue
		}
		for _, line := range o.Lines {
			if line.MenuItemID == menuItemID {
				total += line.Quantity
			}
		}
	}
	return total, nil
}

func (f *fakeStore) CountOrders(ctx context.Context, day models.DayBounds) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, o := range f.orders {
		if day.Contains(o.CreatedAt) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) InsertOrder(ctx context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	o.ID = f.nextID
	o.CreatedAt = f.now()
	o.UpdatedAt = o.CreatedAt
	f.orders = append(f.orders, o)
	return nil
}

func (f *fakeStore) OrdersForUser(ctx context.Context, userID int64) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID && !o.Cancelled {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeStore) OrdersForDay(ctx context.Context, day models.DayBounds) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if day.Contains(o.CreatedAt) && !o.Cancelled {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkPaid(ctx context.Context, orderID int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == orderID && !o.Cancelled {
			o.PaymentStatus = models.PaymentPaid
			o.UpdatedAt = f.now()
			copied := *o
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) MarkReady(ctx context.Context, orderID int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == orderID && !o.Cancelled {
			o.Status = models.PrepReady
			o.UpdatedAt = f.now()
			copied := *o
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) cancel(orderID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == orderID {
			o.Cancelled = true
		}
	}
}

// fakePublisher records published events.
type fakePublisher struct {
	mu      sync.Mutex
	placed  []*models.OrderPlacedMessage
	updates []*models.StatusUpdateMessage
}

func (f *fakePublisher) PublishOrderPlaced(ctx context.Context, msg *models.OrderPlacedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placed = append(f.placed, msg)
	return nil
}

func (f *fakePublisher) PublishStatusUpdate(ctx context.Context, msg *models.StatusUpdateMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, msg)
	return nil
}

func testClock() func() time.Time {
	at := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func newTestService(store *fakeStore, publisher *fakePublisher) *Service {
	var events EventPublisher
	if publisher != nil {
		events = publisher
	}
	s := NewService(store, events, logger.New("test"))
	s.now = store.now
	return s
}

func chai() models.MenuItem {
	return models.MenuItem{ID: 1, Name: "Masala Chai", Price: 10, DailyQuantity: 100}
}

func thali() models.MenuItem {
	return models.MenuItem{ID: 2, Name: "Veg Thali", Price: 40, DailyQuantity: 100}
}

func TestPlaceOrderTotalsAndToken(t *testing.T) {
	store := newFakeStore(testClock(), chai(), thali())
	publisher := &fakePublisher{}
	svc := newTestService(store, publisher)

	req := &models.PlaceOrderRequest{
		Items: []models.OrderLineRequest{
			{MenuItemID: 1, Quantity: 3},
			{MenuItemID: 2, Quantity: 1},
		},
		PaymentStatus: "Paid",
	}

	resp, err := svc.PlaceOrder(context.Background(), 7, req, "req_test")
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}

	if resp.TotalPrice != 70 {
		t.Errorf("TotalPrice = %d, want 70", resp.TotalPrice)
	}
	if resp.TokenNumber != 1 {
		t.Errorf("TokenNumber = %d, want 1", resp.TokenNumber)
	}
	if resp.PaymentReference != models.PaymentReferenceStub {
		t.Errorf("PaymentReference = %q, want stub", resp.PaymentReference)
	}
	if resp.Currency != models.Currency {
		t.Errorf("Currency = %q, want %q", resp.Currency, models.Currency)
	}

	resp2, err := svc.PlaceOrder(context.Background(), 7, req, "req_test")
	if err != nil {
		t.Fatalf("second PlaceOrder() error = %v", err)
	}
	if resp2.TokenNumber != 2 {
		t.Errorf("second TokenNumber = %d, want 2", resp2.TokenNumber)
	}

	if len(publisher.placed) != 2 {
		t.Errorf("placed events = %d, want 2", len(publisher.placed))
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	store := newFakeStore(testClock(), chai())
	svc := newTestService(store, nil)

	tests := []struct {
		name    string
		req     *models.PlaceOrderRequest
		wantErr error
	}{
		{
			name:    "empty items",
			req:     &models.PlaceOrderRequest{},
			wantErr: models.ErrInvalidInput,
		},
		{
			name: "unknown menu item",
			req: &models.PlaceOrderRequest{
				Items: []models.OrderLineRequest{{MenuItemID: 99, Quantity: 1}},
			},
			wantErr: models.ErrUnknownItem,
		},
		{
			name: "one unknown item rejects the whole order",
			req: &models.PlaceOrderRequest{
				Items: []models.OrderLineRequest{
					{MenuItemID: 1, Quantity: 1},
					{MenuItemID: 99, Quantity: 1},
				},
			},
			wantErr: models.ErrUnknownItem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), 1, tt.req, "req_test")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("PlaceOrder() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if len(store.orders) != 0 {
		t.Errorf("rejected requests persisted %d orders, want 0", len(store.orders))
	}
}

func TestPlaceOrderPaymentCoercion(t *testing.T) {
	store := newFakeStore(testClock(), chai())
	svc := newTestService(store, nil)

	tests := []struct {
		intent string
		want   models.PaymentStatus
	}{
		{"Paid", models.PaymentPaid},
		{"paid", models.PaymentPending},
		{"Refunded", models.PaymentPending},
		{"", models.PaymentPending},
	}

	for _, tt := range tests {
		t.Run("intent_"+tt.intent, func(t *testing.T) {
			req := &models.PlaceOrderRequest{
				Items:         []models.OrderLineRequest{{MenuItemID: 1, Quantity: 1}},
				PaymentStatus: tt.intent,
			}
			resp, err := svc.PlaceOrder(context.Background(), 1, req, "req_test")
			if err != nil {
				t.Fatalf("PlaceOrder() error = %v", err)
			}

			store.mu.Lock()
			var stored *models.Order
			for _, o := range store.orders {
				if o.ID == resp.OrderID {
					stored = o
				}
			}
			store.mu.Unlock()

			if stored.PaymentStatus != tt.want {
				t.Errorf("stored payment status = %v, want %v", stored.PaymentStatus, tt.want)
			}
		})
	}
}

func TestPlaceOrderStockCeiling(t *testing.T) {
	item := models.MenuItem{ID: 1, Name: "Samosa", Price: 25, DailyQuantity: 2}
	store := newFakeStore(testClock(), item)
	svc := newTestService(store, nil)

	paid := func(qty int) *models.PlaceOrderRequest {
		return &models.PlaceOrderRequest{
			Items:         []models.OrderLineRequest{{MenuItemID: 1, Quantity: qty}},
			PaymentStatus: "Paid",
		}
	}

	if _, err := svc.PlaceOrder(context.Background(), 1, paid(2), "req_test"); err != nil {
		t.Fatalf("order within ceiling rejected: %v", err)
	}

	_, err := svc.PlaceOrder(context.Background(), 2, paid(1), "req_test")
	var stockErr *models.StockExceededError
	if !errors.As(err, &stockErr) {
		t.Fatalf("PlaceOrder() error = %v, want StockExceededError", err)
	}
	if stockErr.MenuItemID != 1 || stockErr.Name != "Samosa" {
		t.Errorf("StockExceededError = %+v", stockErr)
	}
}

func TestPlaceOrderPendingDoesNotConsumeStock(t *testing.T) {
	item := models.MenuItem{ID: 1, Name: "Samosa", Price: 25, DailyQuantity: 2}
	store := newFakeStore(testClock(), item)
	svc := newTestService(store, nil)

	pending := &models.PlaceOrderRequest{
		Items: []models.OrderLineRequest{{MenuItemID: 1, Quantity: 2}},
	}

	// Unpaid demand never counts against the ceiling, so pay-at-counter
	// orders can oversubscribe it.
	for i := 0; i < 3; i++ {
		if _, err := svc.PlaceOrder(context.Background(), int64(i+1), pending, "req_test"); err != nil {
			t.Fatalf("pending order %d rejected: %v", i+1, err)
		}
	}
}

func TestPlaceOrderDuplicateLinesAggregate(t *testing.T) {
	item := models.MenuItem{ID: 1, Name: "Samosa", Price: 25, DailyQuantity: 3}
	store := newFakeStore(testClock(), item)
	svc := newTestService(store, nil)

	req := &models.PlaceOrderRequest{
		Items: []models.OrderLineRequest{
			{MenuItemID: 1, Quantity: 2},
			{MenuItemID: 1, Quantity: 2},
		},
		PaymentStatus: "Paid",
	}

	_, err := svc.PlaceOrder(context.Background(), 1, req, "req_test")
	var stockErr *models.StockExceededError
	if !errors.As(err, &stockErr) {
		t.Fatalf("PlaceOrder() error = %v, want StockExceededError for aggregated lines", err)
	}
}

func TestPlaceOrderConcurrentCeiling(t *testing.T) {
	item := models.MenuItem{ID: 1, Name: "Samosa", Price: 25, DailyQuantity: 2}
	store := newFakeStore(testClock(), item)
	svc := newTestService(store, nil)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := &models.PlaceOrderRequest{
				Items:         []models.OrderLineRequest{{MenuItemID: 1, Quantity: 1}},
				PaymentStatus: "Paid",
			}
			_, errs[i] = svc.PlaceOrder(context.Background(), int64(i+1), req, "req_test")
		}(i)
	}
	wg.Wait()

	admitted, rejected := 0, 0
	for _, err := range errs {
		var stockErr *models.StockExceededError
		switch {
		case err == nil:
			admitted++
		case errors.As(err, &stockErr):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if admitted != 2 {
		t.Errorf("admitted = %d, want exactly the ceiling of 2", admitted)
	}
	if rejected != attempts-2 {
		t.Errorf("rejected = %d, want %d", rejected, attempts-2)
	}
}

func TestTokenNumbersDenseUnderConcurrency(t *testing.T) {
	store := newFakeStore(testClock(), chai())
	svc := newTestService(store, nil)

	const orders = 20
	var wg sync.WaitGroup
	tokens := make([]int, orders)

	for i := 0; i < orders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := &models.PlaceOrderRequest{
				Items: []models.OrderLineRequest{{MenuItemID: 1, Quantity: 1}},
			}
			resp, err := svc.PlaceOrder(context.Background(), int64(i+1), req, "req_test")
			if err != nil {
				t.Errorf("PlaceOrder() error = %v", err)
				return
			}
			tokens[i] = resp.TokenNumber
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool, orders)
	for _, token := range tokens {
		if token < 1 || token > orders {
			t.Errorf("token %d outside dense range [1, %d]", token, orders)
		}
		if seen[token] {
			t.Errorf("token %d assigned twice", token)
		}
		seen[token] = true
	}
}

func TestMarkPaid(t *testing.T) {
	store := newFakeStore(testClock(), chai())
	publisher := &fakePublisher{}
	svc := newTestService(store, publisher)

	req := &models.PlaceOrderRequest{
		Items: []models.OrderLineRequest{{MenuItemID: 1, Quantity: 1}},
	}
	resp, err := svc.PlaceOrder(context.Background(), 1, req, "req_test")
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}

	o, err := svc.MarkPaid(context.Background(), resp.OrderID, "req_test")
	if err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}
	if o.PaymentStatus != models.PaymentPaid {
		t.Errorf("PaymentStatus = %v, want Paid", o.PaymentStatus)
	}

	// Repeating is a no-op, not an error.
	if _, err := svc.MarkPaid(context.Background(), resp.OrderID, "req_test"); err != nil {
		t.Errorf("repeated MarkPaid() error = %v", err)
	}

	if len(publisher.updates) != 2 {
		t.Errorf("status updates = %d, want 2", len(publisher.updates))
	}
}

func TestMarkPaidNotFound(t *testing.T) {
	store := newFakeStore(testClock(), chai())
	svc := newTestService(store, nil)

	if _, err := svc.MarkPaid(context.Background(), 42, "req_test"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("MarkPaid(absent) error = %v, want ErrNotFound", err)
	}

	req := &models.PlaceOrderRequest{
		Items: []models.OrderLineRequest{{MenuItemID: 1, Quantity: 1}},
	}
	resp, err := svc.PlaceOrder(context.Background(), 1, req, "req_test")
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	store.cancel(resp.OrderID)

	if _, err := svc.MarkPaid(context.Background(), resp.OrderID, "req_test"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("MarkPaid(cancelled) error = %v, want ErrNotFound", err)
	}
}

func TestMarkReadyNotFound(t *testing.T) {
	store := newFakeStore(testClock(), chai())
	svc := newTestService(store, nil)

	if _, err := svc.MarkReady(context.Background(), 42, "req_test"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("MarkReady(absent) error = %v, want ErrNotFound", err)
	}

	req := &models.PlaceOrderRequest{
		Items: []models.OrderLineRequest{{MenuItemID: 1, Quantity: 1}},
	}
	resp, err := svc.PlaceOrder(context.Background(), 1, req, "req_test")
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	store.cancel(resp.OrderID)

	// Cancellation is terminal for preparation too.
	if _, err := svc.MarkReady(context.Background(), resp.OrderID, "req_test"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("MarkReady(cancelled) error = %v, want ErrNotFound", err)
	}
}

func TestMarkReadyWhilePending(t *testing.T) {
	store := newFakeStore(testClock(), chai())
	svc := newTestService(store, nil)

	req := &models.PlaceOrderRequest{
		Items: []models.OrderLineRequest{{MenuItemID: 1, Quantity: 1}},
	}
	resp, err := svc.PlaceOrder(context.Background(), 1, req, "req_test")
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}

	// Preparation finishing never waits on payment.
	o, err := svc.MarkReady(context.Background(), resp.OrderID, "req_test")
	if err != nil {
		t.Fatalf("MarkReady() error = %v", err)
	}
	if o.Status != models.PrepReady {
		t.Errorf("Status = %v, want Ready", o.Status)
	}
	if o.PaymentStatus != models.PaymentPending {
		t.Errorf("PaymentStatus = %v, want still Pending", o.PaymentStatus)
	}
}

func TestListOrdersExcludeCancelled(t *testing.T) {
	store := newFakeStore(testClock(), chai())
	svc := newTestService(store, nil)

	req := &models.PlaceOrderRequest{
		Items: []models.OrderLineRequest{{MenuItemID: 1, Quantity: 1}},
	}
	first, err := svc.PlaceOrder(context.Background(), 1, req, "req_test")
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	if _, err := svc.PlaceOrder(context.Background(), 1, req, "req_test"); err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	store.cancel(first.OrderID)

	mine, err := svc.ListOrdersForUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListOrdersForUser() error = %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("ListOrdersForUser() = %d orders, want 1", len(mine))
	}

	today, err := svc.ListOrdersForToday(context.Background())
	if err != nil {
		t.Fatalf("ListOrdersForToday() error = %v", err)
	}
	if len(today) != 1 {
		t.Errorf("ListOrdersForToday() = %d orders, want 1", len(today))
	}
}
