package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"dividend-tracker/models"
	"dividend-tracker/observability"
)

// PolygonService handles communication with the Polygon.io API. It serves
// the previous trading day's closing price plus the reference company name.
type PolygonService struct {
	apiKey      string
	httpClient  *http.Client
	BaseURL     string
	limiter     *RateLimiter
	minInterval time.Duration
}

// NewPolygonService creates a new PolygonService instance. minInterval is
// the minimum spacing between API calls (1s on the free tier).
func NewPolygonService(apiKey string, minInterval time.Duration) *PolygonService {
	return &PolygonService{
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		BaseURL:     "https://api.polygon.io",
		limiter:     NewRateLimiter(),
		minInterval: minInterval,
	}
}

func (s *PolygonService) Name() string {
	return "polygon"
}

// prevDayResponse represents the previous-day aggregate bar payload
type prevDayResponse struct {
	Ticker       string `json:"ticker"`
	ResultsCount int    `json:"resultsCount"`
	Results      []struct {
		Open   float64 `json:"o"`
		High   float64 `json:"h"`
		Low    float64 `json:"l"`
		Close  float64 `json:"c"`
		Volume float64 `json:"v"`
	} `json:"results"`
}

// tickerDetailsResponse represents the reference ticker details payload
type tickerDetailsResponse struct {
	Results struct {
		Ticker string `json:"ticker"`
		Name   string `json:"name"`
	} `json:"results"`
}

// Fetch returns a quote built from the previous day's closing bar. Without
// an API key it returns ErrNoData immediately and performs no network calls.
func (s *PolygonService) Fetch(ctx context.Context, symbol string) (*models.StockQuote, error) {
	if s.apiKey == "" {
		return nil, ErrNoData
	}

	var prev prevDayResponse
	fetch := func() error {
		path := fmt.Sprintf("/v2/aggs/ticker/%s/prev?adjusted=true&apiKey=%s", symbol, s.apiKey)
		return s.getJSON(ctx, "prev_day", path, &prev)
	}

	_, err := WithCircuitBreaker(ctx, BreakerPolygon, func() (struct{}, error) {
		return struct{}{}, WithRetry(ctx, DefaultRetryConfig, fetch)
	})
	if err != nil {
		return nil, transientErr(s.Name(), "prev_day", err)
	}

	if prev.ResultsCount == 0 || len(prev.Results) == 0 {
		return nil, ErrNoData
	}
	price := decimal.NewFromFloat(prev.Results[0].Close)
	if !price.IsPositive() {
		return nil, ErrNoData
	}

	return &models.StockQuote{
		Symbol:       symbol,
		CurrentPrice: price,
		Currency:     "USD",
		CompanyName:  s.getCompanyName(ctx, symbol),
		Source:       models.QuoteSourceSecondary,
		Dividend:     models.LimitedDividendSummary(),
		FetchedAt:    time.Now(),
	}, nil
}

// getCompanyName looks up the reference name for a ticker, falling back to
// the symbol itself when the lookup fails.
func (s *PolygonService) getCompanyName(ctx context.Context, symbol string) string {
	var details tickerDetailsResponse
	path := fmt.Sprintf("/v3/reference/tickers/%s?apiKey=%s", symbol, s.apiKey)
	if err := s.getJSON(ctx, "ticker_details", path, &details); err != nil {
		observability.Debug("ticker details lookup failed",
			"symbol", symbol,
			"error", err)
		return symbol
	}
	if details.Results.Name == "" {
		return symbol
	}
	return details.Results.Name
}

// getJSON performs one rate-limited GET against the Polygon API and decodes
// the response into out.
func (s *PolygonService) getJSON(ctx context.Context, operation, path string, out any) error {
	waited := s.limiter.WaitIfNeeded(s.minInterval)
	if waited > 0 {
		observability.GetMetrics().RecordRateLimiterWait(s.Name(), waited)
	}

	timer := observability.GetMetrics().NewTimer()
	defer timer.ObserveProvider(s.Name(), operation)
	observability.GetMetrics().RecordProviderRequest(s.Name(), operation)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		observability.GetMetrics().RecordProviderError(s.Name(), operation, "network")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		observability.GetMetrics().RecordProviderError(s.Name(), operation, "status")
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		observability.GetMetrics().RecordProviderError(s.Name(), operation, "decode")
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
