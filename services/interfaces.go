package services

import (
	"context"

	"dividend-tracker/models"
)

// QuoteProvider fetches a stock quote from a single upstream source.
// Implementations return ErrNoData for a definitive miss (unconfigured
// credentials, unknown symbol) and *TransientError for recoverable failures.
type QuoteProvider interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	// Fetch retrieves the quote for a symbol, blocking on the provider's
	// rate limiter if a minimum spacing between calls is configured.
	Fetch(ctx context.Context, symbol string) (*models.StockQuote, error)
}

// RateSource supplies currency conversion rates expressed as units of
// foreign currency per one USD.
type RateSource interface {
	// GetRates returns the current rate table. It never returns an empty
	// map: on upstream failure a built-in fallback table is served.
	GetRates(ctx context.Context) map[string]float64
}

// Compile-time interface checks.
var (
	_ QuoteProvider = (*AlphaVantageService)(nil)
	_ QuoteProvider = (*PolygonService)(nil)
	_ QuoteProvider = (*YahooService)(nil)
	_ RateSource    = (*CurrencyService)(nil)
)
