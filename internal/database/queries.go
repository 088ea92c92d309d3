package database

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (user_id, total_price, payment_status, status, payment_reference, token_number)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	InsertOrderItemSQL = `
		INSERT INTO order_items (order_id, menu_item_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)`

	// Committed demand: units of one item already promised to paid,
	// non-cancelled orders created inside the day range. One statement,
	// one snapshot.
	CommittedQuantitySQL = `
		SELECT COALESCE(SUM(oi.quantity), 0)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE oi.menu_item_id = $1
		  AND o.payment_status = 'Paid'
		  AND o.cancelled = FALSE
		  AND o.created_at >= $2
		  AND o.created_at < $3`

	// Token sequencing counts every order of the day, cancelled ones
	// included, so tokens stay dense.
	CountOrdersSQL = `
		SELECT COUNT(*) FROM orders
		WHERE created_at >= $1 AND created_at < $2`

	MarkPaidSQL = `
		UPDATE orders
		SET payment_status = 'Paid', updated_at = NOW()
		WHERE id = $1 AND cancelled = FALSE
		RETURNING id, user_id, total_price, payment_status, status, payment_reference,
		          token_number, cancelled, created_at, updated_at`

	MarkReadySQL = `
		UPDATE orders
		SET status = 'Ready', updated_at = NOW()
		WHERE id = $1 AND cancelled = FALSE
		RETURNING id, user_id, total_price, payment_status, status, payment_reference,
		          token_number, cancelled, created_at, updated_at`

	OrdersForUserSQL = `
		SELECT id, user_id, total_price, payment_status, status, payment_reference,
		       token_number, cancelled, created_at, updated_at
		FROM orders
		WHERE user_id = $1 AND cancelled = FALSE
		ORDER BY created_at DESC`

	OrdersForDaySQL = `
		SELECT id, user_id, total_price, payment_status, status, payment_reference,
		       token_number, cancelled, created_at, updated_at
		FROM orders
		WHERE created_at >= $1 AND created_at < $2 AND cancelled = FALSE
		ORDER BY token_number ASC`

	OrderLinesSQL = `
		SELECT oi.order_id, oi.menu_item_id, mi.name, oi.quantity, oi.unit_price
		FROM order_items oi
		JOIN menu_items mi ON mi.id = oi.menu_item_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id ASC`
)

// Reaper queries
const (
	StaleReadyUnpaidSQL = `
		SELECT id FROM orders
		WHERE payment_status = 'Pending'
		  AND status = 'Ready'
		  AND cancelled = FALSE
		  AND updated_at <= $1
		ORDER BY id ASC`

	// The Pending/Ready re-check under the row lock makes the
	// markPaid/cancel race deterministic: whichever update commits
	// first wins, the other becomes a no-op.
	CancelUnpaidSQL = `
		UPDATE orders
		SET cancelled = TRUE, updated_at = NOW()
		WHERE id = $1
		  AND payment_status = 'Pending'
		  AND status = 'Ready'
		  AND cancelled = FALSE`
)

// Menu queries
const (
	MenuItemsByIDSQL = `
		SELECT id, name, description, price, daily_quantity, created_at, updated_at
		FROM menu_items
		WHERE id = ANY($1)`

	ListMenuItemsSQL = `
		SELECT id, name, description, price, daily_quantity, created_at, updated_at
		FROM menu_items
		ORDER BY id ASC`

	InsertMenuItemSQL = `
		INSERT INTO menu_items (name, description, price, daily_quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	UpdateMenuItemSQL = `
		UPDATE menu_items
		SET name = $1, description = $2, price = $3, daily_quantity = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING id, name, description, price, daily_quantity, created_at, updated_at`

	DeleteMenuItemSQL = `
		DELETE FROM menu_items WHERE id = $1`
)

// User queries
const (
	InsertUserSQL = `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	GetUserByEmailSQL = `
		SELECT id, name, email, password_hash, role, created_at
		FROM users
		WHERE email = $1`
)

// Reporting queries
const (
	RevenueSQL = `
		SELECT COALESCE(SUM(total_price), 0)
		FROM orders
		WHERE payment_status = 'Paid' AND cancelled = FALSE AND created_at >= $1`

	ExpenseSQL = `
		SELECT COALESCE(SUM(total_price), 0)
		FROM orders
		WHERE user_id = $1 AND payment_status = 'Paid' AND cancelled = FALSE AND created_at >= $2`

	ItemSalesRankingSQL = `
		SELECT mi.name, SUM(oi.quantity) AS total_sold
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN menu_items mi ON mi.id = oi.menu_item_id
		WHERE o.cancelled = FALSE AND o.created_at >= $1
		GROUP BY mi.name
		ORDER BY total_sold DESC`
)
