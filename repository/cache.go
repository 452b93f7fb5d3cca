package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"dividend-tracker/models"
	"dividend-tracker/observability"
)

// quoteDataType is the cache data_type used for resolved quotes.
const quoteDataType = "quote"

// GetCachedQuote returns a still-fresh cached quote for a symbol, or nil
// on a miss. Expiry is checked in the database to avoid timezone issues.
func (r *Repository) GetCachedQuote(ctx context.Context, symbol string) (*models.StockQuote, error) {
	timer := observability.GetMetrics().NewTimer()
	defer timer.ObserveDB("select", "quote_cache")

	var data []byte
	err := r.db.QueryRow(ctx, `
		SELECT data FROM quote_cache
		WHERE symbol = $1 AND data_type = $2 AND expires_at > NOW()
	`, symbol, quoteDataType).Scan(&data)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		observability.GetMetrics().RecordDBError("select", "quote_cache")
		return nil, fmt.Errorf("failed to query quote cache: %w", err)
	}

	var quote models.StockQuote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached quote: %w", err)
	}
	return &quote, nil
}

// SetCachedQuote stores a resolved quote with a TTL.
func (r *Repository) SetCachedQuote(ctx context.Context, quote *models.StockQuote, ttl time.Duration) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	timer := observability.GetMetrics().NewTimer()
	defer timer.ObserveDB("upsert", "quote_cache")

	_, err = r.db.Exec(ctx, `
		INSERT INTO quote_cache (symbol, data_type, data, expires_at)
		VALUES ($1, $2, $3, NOW() + $4::interval)
		ON CONFLICT (symbol, data_type)
		DO UPDATE SET data = EXCLUDED.data, expires_at = NOW() + $4::interval, created_at = NOW()
	`, quote.Symbol, quoteDataType, data, ttl.String())

	if err != nil {
		observability.GetMetrics().RecordDBError("upsert", "quote_cache")
		return fmt.Errorf("failed to set quote cache: %w", err)
	}
	return nil
}

// InvalidateQuote removes the cached quote for a symbol.
func (r *Repository) InvalidateQuote(ctx context.Context, symbol string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM quote_cache WHERE symbol = $1 AND data_type = $2
	`, symbol, quoteDataType)
	if err != nil {
		return fmt.Errorf("failed to invalidate quote cache: %w", err)
	}
	return nil
}

// CleanExpiredCache removes all expired cache entries
func (r *Repository) CleanExpiredCache(ctx context.Context) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM quote_cache WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to clean expired cache: %w", err)
	}
	return result.RowsAffected(), nil
}
