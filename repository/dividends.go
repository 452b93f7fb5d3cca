package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"dividend-tracker/models"
	"dividend-tracker/observability"
)

// RecordDividend appends one received payment to the dividend history.
func (r *Repository) RecordDividend(ctx context.Context, rec *models.DividendRecord) error {
	timer := observability.GetMetrics().NewTimer()
	defer timer.ObserveDB("insert", "dividend_history")

	err := r.db.QueryRow(ctx, `
		INSERT INTO dividend_history (user_id, symbol, payment_date, dividend_amount, shares, total_payment, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, recorded_at
	`, rec.UserID, rec.Symbol, rec.PaymentDate, rec.Amount, rec.Shares, rec.TotalPayment, rec.Currency).
		Scan(&rec.ID, &rec.RecordedAt)

	if err != nil {
		observability.GetMetrics().RecordDBError("insert", "dividend_history")
		return fmt.Errorf("failed to record dividend: %w", err)
	}
	return nil
}

// GetDividendHistory returns a user's recorded payments, newest first.
func (r *Repository) GetDividendHistory(ctx context.Context, userID uuid.UUID, limit int) ([]models.DividendRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	timer := observability.GetMetrics().NewTimer()
	defer timer.ObserveDB("select", "dividend_history")

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, symbol, payment_date, dividend_amount, shares, total_payment, currency, recorded_at
		FROM dividend_history
		WHERE user_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		observability.GetMetrics().RecordDBError("select", "dividend_history")
		return nil, fmt.Errorf("failed to query dividend history: %w", err)
	}
	defer rows.Close()

	var records []models.DividendRecord
	for rows.Next() {
		var rec models.DividendRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Symbol, &rec.PaymentDate, &rec.Amount, &rec.Shares, &rec.TotalPayment, &rec.Currency, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dividend record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}
