package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"dividend-tracker/models"
	"dividend-tracker/observability"
)

// trailingDividendWindow is how many of the most recent dividend payments
// feed the per-symbol statistics.
const trailingDividendWindow = 8

// YahooService handles communication with the Yahoo Finance chart API.
// It needs no API key and carries no rate limit, so it runs first in the
// resolution chain. One chart request yields the price, the company name
// and the dividend event history.
type YahooService struct {
	httpClient *http.Client
	BaseURL    string
	now        func() time.Time
}

// NewYahooService creates a new YahooService instance.
func NewYahooService(timeout time.Duration) *YahooService {
	return &YahooService{
		httpClient: &http.Client{Timeout: timeout},
		BaseURL:    "https://query1.finance.yahoo.com",
		now:        time.Now,
	}
}

func (s *YahooService) Name() string {
	return "yahoo"
}

// chartResponse represents the v8 chart payload, reduced to the fields we
// read. Dividend events are keyed by their timestamp.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency                   string  `json:"currency"`
				Symbol                     string  `json:"symbol"`
				LongName                   string  `json:"longName"`
				ShortName                  string  `json:"shortName"`
				RegularMarketPrice         float64 `json:"regularMarketPrice"`
				RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
				ChartPreviousClose         float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Events struct {
				Dividends map[string]chartDividend `json:"dividends"`
			} `json:"events"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// chartDividend is one dividend event from the chart payload.
type chartDividend struct {
	Amount float64 `json:"amount"`
	Date   int64   `json:"date"`
}

// Fetch returns a quote for a symbol. A chart-level error (unknown symbol)
// is a definitive miss; transport and decode failures are transient.
func (s *YahooService) Fetch(ctx context.Context, symbol string) (*models.StockQuote, error) {
	var chart chartResponse

	_, err := WithCircuitBreaker(ctx, BreakerYahoo, func() (struct{}, error) {
		return struct{}{}, s.getChart(ctx, symbol, &chart)
	})
	if err != nil {
		return nil, transientErr(s.Name(), "chart", err)
	}

	if chart.Chart.Error != nil || len(chart.Chart.Result) == 0 {
		return nil, ErrNoData
	}
	result := chart.Chart.Result[0]

	price := s.selectPrice(result.Meta.RegularMarketPrice, result.Meta.RegularMarketPreviousClose, result.Meta.ChartPreviousClose)
	if !price.IsPositive() {
		return nil, ErrNoData
	}

	name := result.Meta.LongName
	if name == "" {
		name = result.Meta.ShortName
	}
	if name == "" {
		name = symbol
	}
	currency := result.Meta.Currency
	if currency == "" {
		currency = "USD"
	}

	return &models.StockQuote{
		Symbol:       symbol,
		CurrentPrice: price,
		Currency:     currency,
		CompanyName:  name,
		Source:       models.QuoteSourceTertiary,
		Dividend:     s.dividendSummary(result.Events.Dividends, price),
		FetchedAt:    time.Now(),
	}, nil
}

// selectPrice applies the price priority order: current market price,
// then the regular-session previous close, then the chart previous close.
func (s *YahooService) selectPrice(market, prevClose, chartPrevClose float64) decimal.Decimal {
	for _, p := range []float64{market, prevClose, chartPrevClose} {
		if p > 0 {
			return decimal.NewFromFloat(p)
		}
	}
	return decimal.Zero
}

// dividendSummary derives dividend statistics from the trailing payment
// window. The annual amount sums only payments within the last 365 days,
// so the yield stays honest for symbols that stopped paying.
func (s *YahooService) dividendSummary(events map[string]chartDividend, price decimal.Decimal) models.DividendSummary {
	payments := make([]models.DividendPayment, 0, len(events))
	for _, ev := range events {
		if ev.Amount <= 0 || ev.Date <= 0 {
			continue
		}
		payments = append(payments, models.DividendPayment{
			Amount: decimal.NewFromFloat(ev.Amount),
			Date:   time.Unix(ev.Date, 0).UTC(),
		})
	}
	if len(payments) == 0 {
		return models.DividendSummary{Status: models.DividendStatusNoHistory}
	}

	sort.Slice(payments, func(i, j int) bool {
		return payments[i].Date.Before(payments[j].Date)
	})
	if len(payments) > trailingDividendWindow {
		payments = payments[len(payments)-trailingDividendWindow:]
	}

	last := payments[len(payments)-1]
	cutoff := s.now().AddDate(0, 0, -365)

	annual := decimal.Zero
	for _, p := range payments {
		if p.Date.After(cutoff) {
			annual = annual.Add(p.Amount)
		}
	}

	summary := models.DividendSummary{
		LastAmount:   last.Amount,
		LastDate:     &last.Date,
		AnnualAmount: annual,
		PaymentCount: len(payments),
		Status:       models.DividendStatusComplete,
	}
	if price.IsPositive() && annual.IsPositive() {
		summary.YieldPercent = annual.Div(price).Mul(decimal.NewFromInt(100))
	}
	return summary
}

// getChart performs one GET against the chart API and decodes the response.
// A 2y monthly range is wide enough to carry two years of dividend events
// while keeping the payload small.
func (s *YahooService) getChart(ctx context.Context, symbol string, out *chartResponse) error {
	timer := observability.GetMetrics().NewTimer()
	defer timer.ObserveProvider(s.Name(), "chart")
	observability.GetMetrics().RecordProviderRequest(s.Name(), "chart")

	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=2y&interval=1mo&events=div", s.BaseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	// Yahoo rejects requests without a browser-like user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; dividend-tracker/1.0)")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		observability.GetMetrics().RecordProviderError(s.Name(), "chart", "network")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Yahoo answers unknown symbols with a 404 that still carries a chart
	// error body, so decode before checking the status.
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if resp.StatusCode != http.StatusOK {
			observability.GetMetrics().RecordProviderError(s.Name(), "chart", "status")
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		observability.GetMetrics().RecordProviderError(s.Name(), "chart", "decode")
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && out.Chart.Error == nil {
		observability.GetMetrics().RecordProviderError(s.Name(), "chart", "status")
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
