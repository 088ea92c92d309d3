// Package menu owns the catalog. The order engine only ever reads it.
package menu

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"canteen-connect/internal/database"
	"canteen-connect/internal/logger"
	"canteen-connect/internal/models"
)

// Service provides catalog management
type Service struct {
	db     *database.DB
	logger *logger.Logger
}

func NewService(db *database.DB, log *logger.Logger) *Service {
	return &Service{
		db:     db,
		logger: log,
	}
}

// List returns all catalog entries.
func (s *Service) List(ctx context.Context) ([]models.MenuItem, error) {
	rows, err := s.db.Query(ctx, database.ListMenuItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var item models.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Price, &item.DailyQuantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Create adds a catalog entry.
func (s *Service) Create(ctx context.Context, req *models.UpsertMenuItemRequest, requestID string) (*models.MenuItem, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	item := models.MenuItem{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		DailyQuantity: req.DailyQuantity,
	}
	err := s.db.QueryRow(ctx, database.InsertMenuItemSQL, item.Name, item.Description, item.Price, item.DailyQuantity).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert menu item: %w", err)
	}

	s.logger.Info("menu_item_created", fmt.Sprintf("Menu item %d created", item.ID), requestID, map[string]interface{}{
		"menu_item_id":   item.ID,
		"daily_quantity": item.DailyQuantity,
	})
	return &item, nil
}

// Update replaces a catalog entry. Quantity changes take effect on the
// next admission; already admitted orders are untouched.
func (s *Service) Update(ctx context.Context, id int64, req *models.UpsertMenuItemRequest, requestID string) (*models.MenuItem, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var item models.MenuItem
	err := s.db.QueryRow(ctx, database.UpdateMenuItemSQL, req.Name, req.Description, req.Price, req.DailyQuantity, id).
		Scan(&item.ID, &item.Name, &item.Description, &item.Price, &item.DailyQuantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: menu item %d", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to update menu item: %w", err)
	}

	s.logger.Info("menu_item_updated", fmt.Sprintf("Menu item %d updated", id), requestID, nil)
	return &item, nil
}

// Delete removes a catalog entry. Items already referenced by an order
// cannot be removed; orders keep their lines.
func (s *Service) Delete(ctx context.Context, id int64, requestID string) error {
	tag, err := s.db.Pool.Exec(ctx, database.DeleteMenuItemSQL, id)
	if err != nil {
		return mapDeleteError(id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: menu item %d", models.ErrNotFound, id)
	}

	s.logger.Info("menu_item_deleted", fmt.Sprintf("Menu item %d deleted", id), requestID, nil)
	return nil
}

// mapDeleteError turns a foreign-key violation into a business
// rejection; anything else stays an infrastructure failure.
func mapDeleteError(id int64, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return fmt.Errorf("%w: menu item %d is referenced by existing orders", models.ErrInvalidInput, id)
	}
	return fmt.Errorf("failed to delete menu item: %w", err)
}
