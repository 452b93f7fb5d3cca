// Package analysis turns a portfolio of holdings into a valuation report:
// per-position prices, dividend detail and a USD grand total.
package analysis

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"dividend-tracker/models"
	"dividend-tracker/observability"
)

// QuoteResolver resolves one symbol to a quote, or nil when no source has it.
type QuoteResolver interface {
	Resolve(ctx context.Context, symbol string) (*models.StockQuote, error)
}

// RateSource supplies units-per-USD conversion rates.
type RateSource interface {
	GetRates(ctx context.Context) map[string]float64
}

// Analyzer values portfolios. Rates are fetched once per run so every row
// in a report converts against the same snapshot.
type Analyzer struct {
	resolver QuoteResolver
	rates    RateSource
}

func NewAnalyzer(resolver QuoteResolver, rates RateSource) *Analyzer {
	return &Analyzer{resolver: resolver, rates: rates}
}

// AnalyzePortfolio values every holding. Symbols that fail to resolve
// become OK=false rows; an error is only returned when the run itself is
// cancelled.
func (a *Analyzer) AnalyzePortfolio(ctx context.Context, items []models.PortfolioItem) (*models.AnalysisReport, error) {
	rates := a.rates.GetRates(ctx)

	report := &models.AnalysisReport{
		Results:    make([]models.AnalysisResult, 0, len(items)),
		AnalyzedAt: time.Now(),
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		quote, err := a.resolver.Resolve(ctx, item.Symbol)
		if err != nil {
			return nil, err
		}
		if quote == nil {
			report.Results = append(report.Results, failedResult(item))
			report.Failed++
			continue
		}

		row, usd := a.valuePosition(item, quote, rates)
		report.Results = append(report.Results, row)
		report.Resolved++
		report.TotalUSD = report.TotalUSD.Add(usd)
	}

	observability.Info("portfolio analyzed",
		"positions", len(items),
		"resolved", report.Resolved,
		"failed", report.Failed,
		"total_usd", report.TotalUSD)
	return report, nil
}

// valuePosition builds the report row for one resolved holding and returns
// its USD contribution to the portfolio total.
func (a *Analyzer) valuePosition(item models.PortfolioItem, quote *models.StockQuote, rates map[string]float64) (models.AnalysisResult, decimal.Decimal) {
	market := models.ResolveMarket(item.Symbol)
	currency := quote.Currency
	if currency == "" {
		currency = market.Currency
	}
	ukStock := models.IsUKStock(item.Symbol)

	// Raw prices pass through as quoted. LSE quotes are in pence, so the
	// position value divides by 100 to land in pounds.
	positionValue := quote.CurrentPrice.Mul(item.Shares)
	valueCurrency := currency
	if ukStock && currency == "GBP" {
		positionValue = positionValue.Div(decimal.NewFromInt(100))
	}

	row := models.AnalysisResult{
		Symbol:        item.Symbol,
		Shares:        item.Shares,
		CompanyName:   quote.CompanyName,
		Market:        market.Exchange,
		Country:       market.Country,
		Currency:      currency,
		CurrentPrice:  models.FormatAmount(quote.CurrentPrice, currency, ukStock),
		PositionValue: models.FormatAmount(positionValue, valueCurrency, false),
		DividendInfo:  models.FormatDividend(quote.Dividend, currency),
		DataSource:    string(quote.Source),
		OK:            true,
	}
	return row, toUSD(positionValue, currency, rates)
}

// toUSD converts a position value using units-per-USD rates. Unknown
// currencies contribute nothing to the total rather than failing the run.
func toUSD(value decimal.Decimal, currency string, rates map[string]float64) decimal.Decimal {
	if currency == "USD" || currency == "" {
		return value
	}
	rate, ok := rates[currency]
	if !ok || rate <= 0 {
		observability.Warn("no conversion rate, excluding position from USD total",
			"currency", currency)
		return decimal.Zero
	}
	return value.Div(decimal.NewFromFloat(rate))
}

func failedResult(item models.PortfolioItem) models.AnalysisResult {
	market := models.ResolveMarket(item.Symbol)
	return models.AnalysisResult{
		Symbol:        item.Symbol,
		Shares:        item.Shares,
		CompanyName:   item.Symbol,
		Market:        market.Exchange,
		Country:       market.Country,
		Currency:      market.Currency,
		CurrentPrice:  "unavailable",
		PositionValue: "unavailable",
		DividendInfo:  "unavailable",
		DataSource:    "none",
		OK:            false,
	}
}
