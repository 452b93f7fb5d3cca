package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"dividend-tracker/models"
	"dividend-tracker/observability"
)

// UpsertPortfolioItem adds a holding or replaces its share count when the
// user already holds the symbol.
func (r *Repository) UpsertPortfolioItem(ctx context.Context, userID uuid.UUID, symbol string, shares decimal.Decimal) (*models.PortfolioItem, error) {
	timer := observability.GetMetrics().NewTimer()
	defer timer.ObserveDB("upsert", "portfolios")

	var item models.PortfolioItem
	err := r.db.QueryRow(ctx, `
		INSERT INTO portfolios (user_id, symbol, shares)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, symbol)
		DO UPDATE SET shares = EXCLUDED.shares, updated_at = NOW()
		RETURNING id, user_id, symbol, shares, created_at, updated_at
	`, userID, symbol, shares).Scan(&item.ID, &item.UserID, &item.Symbol, &item.Shares, &item.CreatedAt, &item.UpdatedAt)

	if err != nil {
		observability.GetMetrics().RecordDBError("upsert", "portfolios")
		return nil, fmt.Errorf("failed to upsert portfolio item: %w", err)
	}
	return &item, nil
}

// GetPortfolio returns all holdings for a user ordered by symbol.
func (r *Repository) GetPortfolio(ctx context.Context, userID uuid.UUID) ([]models.PortfolioItem, error) {
	timer := observability.GetMetrics().NewTimer()
	defer timer.ObserveDB("select", "portfolios")

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, symbol, shares, created_at, updated_at
		FROM portfolios
		WHERE user_id = $1
		ORDER BY symbol
	`, userID)
	if err != nil {
		observability.GetMetrics().RecordDBError("select", "portfolios")
		return nil, fmt.Errorf("failed to query portfolio: %w", err)
	}
	defer rows.Close()

	var items []models.PortfolioItem
	for rows.Next() {
		var item models.PortfolioItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.Symbol, &item.Shares, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// DeletePortfolioItem removes a holding and reports whether it existed.
func (r *Repository) DeletePortfolioItem(ctx context.Context, userID uuid.UUID, symbol string) (bool, error) {
	timer := observability.GetMetrics().NewTimer()
	defer timer.ObserveDB("delete", "portfolios")

	tag, err := r.db.Exec(ctx, `
		DELETE FROM portfolios WHERE user_id = $1 AND symbol = $2
	`, userID, symbol)
	if err != nil {
		observability.GetMetrics().RecordDBError("delete", "portfolios")
		return false, fmt.Errorf("failed to delete portfolio item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
