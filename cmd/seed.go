package main

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"canteen-connect/internal/config"
	"canteen-connect/internal/database"
	"canteen-connect/internal/logger"
	"canteen-connect/internal/models"
)

type seedItem struct {
	name          string
	description   string
	price         int64
	dailyQuantity int
}

// Development fixtures. Seeding is idempotent: the admin upsert is
// keyed on email and menu items are only inserted into an empty table.
var seedMenu = []seedItem{
	{"Masala Chai", "Hot spiced tea", 15, 200},
	{"Samosa", "Crispy potato-filled pastry, 2 pieces", 25, 150},
	{"Veg Thali", "Rice, dal, two sabzis, roti and pickle", 80, 100},
	{"Paneer Roll", "Grilled paneer wrap with mint chutney", 60, 80},
	{"Cold Coffee", "Iced blended coffee", 40, 120},
}

func runSeed(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	requestID := logger.GenerateRequestID()

	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	err = db.Exec(ctx, `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING`,
		"Canteen Admin", "admin@canteen.com", string(hash), models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	var itemCount int
	if err := db.QueryRow(ctx, "SELECT COUNT(*) FROM menu_items").Scan(&itemCount); err != nil {
		return fmt.Errorf("failed to count menu items: %w", err)
	}

	if itemCount > 0 {
		log.Info("seed_skipped", "Menu already populated, skipping item seed", requestID, map[string]interface{}{
			"existing_items": itemCount,
		})
		return nil
	}

	for _, item := range seedMenu {
		var id int64
		err := db.QueryRow(ctx, `
			INSERT INTO menu_items (name, description, price, daily_quantity)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			item.name, item.description, item.price, item.dailyQuantity).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to seed menu item %q: %w", item.name, err)
		}

		log.Info("menu_item_seeded", fmt.Sprintf("Seeded menu item: %s", item.name), requestID, map[string]interface{}{
			"menu_item_id":   id,
			"daily_quantity": item.dailyQuantity,
		})
	}

	log.Info("seed_completed", "Database seeded", requestID, map[string]interface{}{
		"menu_items": len(seedMenu),
	})
	return nil
}
