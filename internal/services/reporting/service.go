// Package reporting aggregates over the order store independently of
// the engine. Cancelled orders are excluded from every aggregate and
// only Paid orders count toward monetary figures.
package reporting

import (
	"context"
	"fmt"
	"time"

	"canteen-connect/internal/database"
	"canteen-connect/internal/logger"
	"canteen-connect/internal/models"
)

// RevenueStats carries today's and month-to-date totals
type RevenueStats struct {
	Today int64 `json:"today"`
	Month int64 `json:"month"`
}

// ItemSales is one row of the sales ranking
type ItemSales struct {
	Name      string `json:"name"`
	TotalSold int64  `json:"total_sold"`
}

// Service provides read-only aggregates
type Service struct {
	db     *database.DB
	logger *logger.Logger
	now    func() time.Time
}

func NewService(db *database.DB, log *logger.Logger) *Service {
	return &Service{
		db:     db,
		logger: log,
		now:    time.Now,
	}
}

func (s *Service) bounds() (dayStart, monthStart time.Time) {
	now := s.now()
	dayStart = models.DayFor(now).Start
	monthStart = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return dayStart, monthStart
}

// Revenue returns paid, non-cancelled revenue for today and the month.
func (s *Service) Revenue(ctx context.Context) (*RevenueStats, error) {
	dayStart, monthStart := s.bounds()

	var stats RevenueStats
	if err := s.db.QueryRow(ctx, database.RevenueSQL, dayStart).Scan(&stats.Today); err != nil {
		return nil, fmt.Errorf("failed to compute today's revenue: %w", err)
	}
	if err := s.db.QueryRow(ctx, database.RevenueSQL, monthStart).Scan(&stats.Month); err != nil {
		return nil, fmt.Errorf("failed to compute month revenue: %w", err)
	}
	return &stats, nil
}

// Expense returns one user's paid, non-cancelled spend for today and
// the month.
func (s *Service) Expense(ctx context.Context, userID int64) (*RevenueStats, error) {
	dayStart, monthStart := s.bounds()

	var stats RevenueStats
	if err := s.db.QueryRow(ctx, database.ExpenseSQL, userID, dayStart).Scan(&stats.Today); err != nil {
		return nil, fmt.Errorf("failed to compute today's expense: %w", err)
	}
	if err := s.db.QueryRow(ctx, database.ExpenseSQL, userID, monthStart).Scan(&stats.Month); err != nil {
		return nil, fmt.Errorf("failed to compute month expense: %w", err)
	}
	return &stats, nil
}

// Ranking returns today's item sales, most sold first. Unpaid orders
// count here; the ranking tracks demand in units, not revenue.
func (s *Service) Ranking(ctx context.Context) ([]ItemSales, error) {
	dayStart, _ := s.bounds()

	rows, err := s.db.Query(ctx, database.ItemSalesRankingSQL, dayStart)
	if err != nil {
		return nil, fmt.Errorf("failed to compute sales ranking: %w", err)
	}
	defer rows.Close()

	var ranking []ItemSales
	for rows.Next() {
		var row ItemSales
		if err := rows.Scan(&row.Name, &row.TotalSold); err != nil {
			return nil, fmt.Errorf("failed to scan ranking row: %w", err)
		}
		ranking = append(ranking, row)
	}
	return ranking, rows.Err()
}
