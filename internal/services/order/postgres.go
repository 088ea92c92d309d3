package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"canteen-connect/internal/database"
	"canteen-connect/internal/models"
)

// Repository is the PostgreSQL order store. It backs both the order
// service and the reaper.
type Repository struct {
	db *database.DB
}

func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) MenuItemsByID(ctx context.Context, ids []int64) (map[int64]models.MenuItem, error) {
	rows, err := r.db.Query(ctx, database.MenuItemsByIDSQL, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[int64]models.MenuItem, len(ids))
	for rows.Next() {
		var item models.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Price, &item.DailyQuantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items[item.ID] = item
	}
	return items, rows.Err()
}

func (r *Repository) CommittedQuantity(ctx context.Context, menuItemID int64, day models.DayBounds) (int, error) {
	var committed int
	err := r.db.QueryRow(ctx, database.CommittedQuantitySQL, menuItemID, day.Start, day.End).Scan(&committed)
	return committed, err
}

func (r *Repository) CountOrders(ctx context.Context, day models.DayBounds) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, database.CountOrdersSQL, day.Start, day.End).Scan(&count)
	return count, err
}

// InsertOrder writes the order row and its lines in one transaction.
func (r *Repository) InsertOrder(ctx context.Context, o *models.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, database.InsertOrderSQL,
		o.UserID, o.TotalPrice, o.PaymentStatus, o.Status, o.PaymentReference, o.TokenNumber,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, line := range o.Lines {
		if _, err := tx.Exec(ctx, database.InsertOrderItemSQL, o.ID, line.MenuItemID, line.Quantity, line.UnitPrice); err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *Repository) OrdersForUser(ctx context.Context, userID int64) ([]models.Order, error) {
	return r.queryOrders(ctx, database.OrdersForUserSQL, userID)
}

func (r *Repository) OrdersForDay(ctx context.Context, day models.DayBounds) ([]models.Order, error) {
	return r.queryOrders(ctx, database.OrdersForDaySQL, day.Start, day.End)
}

func (r *Repository) MarkPaid(ctx context.Context, orderID int64) (*models.Order, error) {
	return r.mutateOrder(ctx, database.MarkPaidSQL, orderID)
}

func (r *Repository) MarkReady(ctx context.Context, orderID int64) (*models.Order, error) {
	return r.mutateOrder(ctx, database.MarkReadySQL, orderID)
}

// StaleReadyUnpaid selects candidates for the reaper: ready, unpaid,
// untouched since the cutoff.
func (r *Repository) StaleReadyUnpaid(ctx context.Context, cutoff time.Time) ([]int64, error) {
	rows, err := r.db.Query(ctx, database.StaleReadyUnpaidSQL, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CancelUnpaid cancels one order if it is still ready, unpaid and not
// cancelled. Returns false when a concurrent payment (or an earlier
// sweep) won.
func (r *Repository) CancelUnpaid(ctx context.Context, orderID int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, database.CancelUnpaidSQL, orderID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) mutateOrder(ctx context.Context, sql string, orderID int64) (*models.Order, error) {
	var o models.Order
	err := r.db.QueryRow(ctx, sql, orderID).Scan(
		&o.ID, &o.UserID, &o.TotalPrice, &o.PaymentStatus, &o.Status, &o.PaymentReference,
		&o.TokenNumber, &o.Cancelled, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %d", models.ErrNotFound, orderID)
		}
		return nil, err
	}

	if err := r.attachLines(ctx, []*models.Order{&o}); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repository) queryOrders(ctx context.Context, sql string, args ...interface{}) ([]models.Order, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		err := rows.Scan(
			&o.ID, &o.UserID, &o.TotalPrice, &o.PaymentStatus, &o.Status, &o.PaymentReference,
			&o.TokenNumber, &o.Cancelled, &o.CreatedAt, &o.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*models.Order, len(orders))
	for i := range orders {
		refs[i] = &orders[i]
	}
	if err := r.attachLines(ctx, refs); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *Repository) attachLines(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(orders))
	byID := make(map[int64]*models.Order, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
		byID[o.ID] = o
	}

	rows, err := r.db.Query(ctx, database.OrderLinesSQL, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var orderID int64
		var line models.OrderLine
		if err := rows.Scan(&orderID, &line.MenuItemID, &line.Name, &line.Quantity, &line.UnitPrice); err != nil {
			return err
		}
		if o, ok := byID[orderID]; ok {
			o.Lines = append(o.Lines, line)
		}
	}
	return rows.Err()
}
