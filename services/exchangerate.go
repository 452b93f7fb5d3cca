package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dividend-tracker/models"
	"dividend-tracker/observability"
)

// CurrencyService fetches USD-based exchange rates. Conversion must never
// block a portfolio analysis, so every failure path serves a built-in
// fallback table instead of an error.
type CurrencyService struct {
	httpClient *http.Client
	BaseURL    string
	fallback   map[string]float64
}

// NewCurrencyService creates a new CurrencyService instance. fallback maps
// currency codes to units per USD and is served whenever the upstream API
// is unreachable.
func NewCurrencyService(timeout time.Duration, fallback map[string]float64) *CurrencyService {
	return &CurrencyService{
		httpClient: &http.Client{Timeout: timeout},
		BaseURL:    "https://api.exchangerate-api.com",
		fallback:   fallback,
	}
}

// ratesResponse represents the v4 latest-rates payload
type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// GetRates returns the current rate table, falling back to the built-in
// table on any failure. The result is never empty and always a fresh copy.
func (s *CurrencyService) GetRates(ctx context.Context) map[string]float64 {
	return s.Snapshot(ctx).Rates
}

// Snapshot fetches the rate table and records whether the fallback was used.
func (s *CurrencyService) Snapshot(ctx context.Context) models.CurrencyRateSnapshot {
	rates, err := s.fetchRates(ctx)
	if err != nil || len(rates) == 0 {
		observability.Warn("exchange rate fetch failed, using fallback rates",
			"error", err)
		return models.CurrencyRateSnapshot{
			Rates:     copyRates(s.fallback),
			Fallback:  true,
			FetchedAt: time.Now(),
		}
	}
	return models.CurrencyRateSnapshot{
		Rates:     rates,
		FetchedAt: time.Now(),
	}
}

func (s *CurrencyService) fetchRates(ctx context.Context) (map[string]float64, error) {
	fetch := func() (map[string]float64, error) {
		timer := observability.GetMetrics().NewTimer()
		defer timer.ObserveProvider("exchangerate", "latest")
		observability.GetMetrics().RecordProviderRequest("exchangerate", "latest")

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/v4/latest/USD", nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			observability.GetMetrics().RecordProviderError("exchangerate", "latest", "network")
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			observability.GetMetrics().RecordProviderError("exchangerate", "latest", "status")
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		var rates ratesResponse
		if err := json.NewDecoder(resp.Body).Decode(&rates); err != nil {
			observability.GetMetrics().RecordProviderError("exchangerate", "latest", "decode")
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return rates.Rates, nil
	}

	return WithCircuitBreaker(ctx, BreakerExchangeRate, fetch)
}

func copyRates(rates map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(rates))
	for k, v := range rates {
		out[k] = v
	}
	return out
}
