package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"dividend-tracker/models"
	"dividend-tracker/observability"
)

// AlphaVantageService handles communication with the Alpha Vantage API.
// A full quote merges three endpoints: GLOBAL_QUOTE for the price,
// OVERVIEW for the company name and dividend fundamentals, and
// TIME_SERIES_WEEKLY_ADJUSTED for the most recent dividend payment.
type AlphaVantageService struct {
	apiKey      string
	httpClient  *http.Client
	BaseURL     string
	limiter     *RateLimiter
	minInterval time.Duration
}

// NewAlphaVantageService creates a new AlphaVantageService instance.
// minInterval is the minimum spacing between API calls; the free tier
// allows 5 requests per minute so 12s keeps a sequential portfolio scan
// inside the quota.
func NewAlphaVantageService(apiKey string, minInterval time.Duration) *AlphaVantageService {
	return &AlphaVantageService{
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		BaseURL:     "https://www.alphavantage.co/query",
		limiter:     NewRateLimiter(),
		minInterval: minInterval,
	}
}

func (s *AlphaVantageService) Name() string {
	return "alphavantage"
}

// configured reports whether a usable API key is present. The literal
// "demo" is the Alpha Vantage documentation key and only serves canned
// responses, so it counts as unconfigured.
func (s *AlphaVantageService) configured() bool {
	return s.apiKey != "" && s.apiKey != "demo"
}

// globalQuoteResponse represents the GLOBAL_QUOTE payload
type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol        string `json:"01. symbol"`
		Open          string `json:"02. open"`
		High          string `json:"03. high"`
		Low           string `json:"04. low"`
		Price         string `json:"05. price"`
		Volume        string `json:"06. volume"`
		LatestDay     string `json:"07. latest trading day"`
		PrevClose     string `json:"08. previous close"`
		Change        string `json:"09. change"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
}

// overviewResponse represents the company OVERVIEW payload
type overviewResponse struct {
	Symbol           string `json:"Symbol"`
	Name             string `json:"Name"`
	Currency         string `json:"Currency"`
	Country          string `json:"Country"`
	DividendPerShare string `json:"DividendPerShare"`
	DividendYield    string `json:"DividendYield"`
}

// weeklyAdjustedResponse represents the TIME_SERIES_WEEKLY_ADJUSTED payload.
// Each entry is keyed by date; "7. dividend amount" is zero for weeks with
// no payment.
type weeklyAdjustedResponse struct {
	Series map[string]struct {
		AdjustedClose  string `json:"5. adjusted close"`
		DividendAmount string `json:"7. dividend amount"`
	} `json:"Weekly Adjusted Time Series"`
}

// Fetch returns a full quote for a symbol. Without an API key it returns
// ErrNoData immediately and performs no network calls.
func (s *AlphaVantageService) Fetch(ctx context.Context, symbol string) (*models.StockQuote, error) {
	if !s.configured() {
		return nil, ErrNoData
	}

	price, err := s.getPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if !price.IsPositive() {
		return nil, ErrNoData
	}

	// The name and dividend lookups are best-effort: their failures
	// degrade the quote but never discard the price.
	name, dividend := s.getOverview(ctx, symbol)
	if name == "" {
		name = symbol
	}
	if last, date, ok := s.getLastDividend(ctx, symbol); ok {
		dividend.LastAmount = last
		dividend.LastDate = &date
	}

	return &models.StockQuote{
		Symbol:       symbol,
		CurrentPrice: price,
		Currency:     "USD",
		CompanyName:  name,
		Source:       models.QuoteSourcePrimary,
		Dividend:     dividend,
		FetchedAt:    time.Now(),
	}, nil
}

// getPrice fetches the GLOBAL_QUOTE price for a symbol.
func (s *AlphaVantageService) getPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var quoteResp globalQuoteResponse

	fetch := func() error {
		params := url.Values{}
		params.Set("function", "GLOBAL_QUOTE")
		params.Set("symbol", symbol)
		params.Set("apikey", s.apiKey)
		return s.getJSON(ctx, "global_quote", params, &quoteResp)
	}

	_, err := WithCircuitBreaker(ctx, BreakerAlphaVantage, func() (struct{}, error) {
		return struct{}{}, WithRetry(ctx, DefaultRetryConfig, fetch)
	})
	if err != nil {
		return decimal.Zero, transientErr(s.Name(), "global_quote", err)
	}

	if quoteResp.GlobalQuote.Price == "" {
		return decimal.Zero, ErrNoData
	}
	price, err := decimal.NewFromString(quoteResp.GlobalQuote.Price)
	if err != nil {
		return decimal.Zero, transientErr(s.Name(), "global_quote", fmt.Errorf("unparseable price %q: %w", quoteResp.GlobalQuote.Price, err))
	}
	return price, nil
}

// getOverview fetches the company name and dividend fundamentals. On any
// failure it returns an empty name and a limited dividend summary.
func (s *AlphaVantageService) getOverview(ctx context.Context, symbol string) (string, models.DividendSummary) {
	params := url.Values{}
	params.Set("function", "OVERVIEW")
	params.Set("symbol", symbol)
	params.Set("apikey", s.apiKey)

	var overview overviewResponse
	if err := s.getJSON(ctx, "overview", params, &overview); err != nil {
		observability.Debug("overview lookup failed",
			"symbol", symbol,
			"error", err)
		return "", models.LimitedDividendSummary()
	}

	dividend := models.LimitedDividendSummary()
	if overview.DividendPerShare != "" && overview.DividendPerShare != "None" {
		if dps, err := decimal.NewFromString(overview.DividendPerShare); err == nil {
			dividend.AnnualAmount = dps
		}
	}
	if overview.DividendYield != "" && overview.DividendYield != "None" {
		if y, err := decimal.NewFromString(overview.DividendYield); err == nil {
			// Alpha Vantage reports yield as a fraction, e.g. 0.0045
			dividend.YieldPercent = y.Mul(decimal.NewFromInt(100))
		}
	}
	return overview.Name, dividend
}

// getLastDividend scans the weekly adjusted series from the most recent
// week backwards and returns the first non-zero dividend payment.
func (s *AlphaVantageService) getLastDividend(ctx context.Context, symbol string) (decimal.Decimal, time.Time, bool) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_WEEKLY_ADJUSTED")
	params.Set("symbol", symbol)
	params.Set("apikey", s.apiKey)

	var weekly weeklyAdjustedResponse
	if err := s.getJSON(ctx, "weekly_adjusted", params, &weekly); err != nil {
		observability.Debug("weekly series lookup failed",
			"symbol", symbol,
			"error", err)
		return decimal.Zero, time.Time{}, false
	}

	dates := make([]string, 0, len(weekly.Series))
	for d := range weekly.Series {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	for _, d := range dates {
		amount, err := decimal.NewFromString(weekly.Series[d].DividendAmount)
		if err != nil || !amount.IsPositive() {
			continue
		}
		date, err := time.Parse("2006-01-02", d)
		if err != nil {
			continue
		}
		return amount, date, true
	}
	return decimal.Zero, time.Time{}, false
}

// getJSON performs one rate-limited GET against the Alpha Vantage API and
// decodes the response into out.
func (s *AlphaVantageService) getJSON(ctx context.Context, operation string, params url.Values, out any) error {
	waited := s.limiter.WaitIfNeeded(s.minInterval)
	if waited > 0 {
		observability.GetMetrics().RecordRateLimiterWait(s.Name(), waited)
	}

	timer := observability.GetMetrics().NewTimer()
	defer timer.ObserveProvider(s.Name(), operation)
	observability.GetMetrics().RecordProviderRequest(s.Name(), operation)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"?"+params.Encode(), nil)
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
