package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteSource identifies which provider produced a quote.
type QuoteSource string

const (
	QuoteSourcePrimary   QuoteSource = "alphavantage"
	QuoteSourceSecondary QuoteSource = "polygon"
	QuoteSourceTertiary  QuoteSource = "yahoo"
)

// DividendStatus describes how much dividend detail a provider delivered.
type DividendStatus string

const (
	DividendStatusComplete  DividendStatus = "complete"
	DividendStatusNoHistory DividendStatus = "no_history"
	DividendStatusError     DividendStatus = "error"
	DividendStatusLimited   DividendStatus = "limited"
)

// StockQuote is one provider's normalized snapshot of a symbol.
// A quote is only considered valid when CurrentPrice > 0; the resolver
// treats anything else as "no data".
type StockQuote struct {
	Symbol       string          `json:"symbol"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Currency     string          `json:"currency"`
	CompanyName  string          `json:"company_name"`
	Source       QuoteSource     `json:"source"`
	Dividend     DividendSummary `json:"dividend"`
	FetchedAt    time.Time       `json:"fetched_at"`
}

// Valid reports whether the quote carries a usable price.
func (q *StockQuote) Valid() bool {
	return q != nil && q.CurrentPrice.IsPositive()
}

// DividendSummary holds per-symbol dividend statistics. It is derived on
// every resolution and never persisted on its own.
type DividendSummary struct {
	LastAmount   decimal.Decimal `json:"last_amount"`
	LastDate     *time.Time      `json:"last_date,omitempty"`
	AnnualAmount decimal.Decimal `json:"annual_amount"`
	PaymentCount int             `json:"payment_count"`
	YieldPercent decimal.Decimal `json:"yield_percent"`
	Status       DividendStatus  `json:"status"`
}

// LimitedDividendSummary is the summary used by providers that only carry
// price data.
func LimitedDividendSummary() DividendSummary {
	return DividendSummary{Status: DividendStatusLimited}
}

// ErrorDividendSummary zeroes all numeric fields and marks the summary as
// failed. Dividend failures must never block the price portion of a quote.
func ErrorDividendSummary() DividendSummary {
	return DividendSummary{Status: DividendStatusError}
}

// DividendPayment is a single historical dividend record.
type DividendPayment struct {
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
}
