package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyRateSnapshot is one fetch of the USD-based rate table. Rates are
// expressed as units of foreign currency per one USD.
type CurrencyRateSnapshot struct {
	Rates     map[string]float64 `json:"rates"`
	Fallback  bool               `json:"fallback"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// FormatAmount renders an amount with its currency for display. UK stocks
// quote in pence, written with a trailing "p" instead of a GBP prefix.
func FormatAmount(amount decimal.Decimal, currency string, ukStock bool) string {
	if currency == "GBP" && ukStock {
		return amount.StringFixed(2) + "p"
	}
	if currency == "USD" {
		return "$" + amount.StringFixed(2)
	}
	return fmt.Sprintf("%s %s", currency, amount.StringFixed(2))
}

// FormatDividend renders a dividend summary for display. Symbols without
// dividend data show the status instead of zeros.
func FormatDividend(d DividendSummary, currency string) string {
	if !d.AnnualAmount.IsPositive() {
		return string(d.Status)
	}
	if currency == "GBP" {
		return fmt.Sprintf("Annual: %sp (Yield: %s%%)", d.AnnualAmount.StringFixed(1), d.YieldPercent.StringFixed(2))
	}
	return fmt.Sprintf("Annual: %s %s (Yield: %s%%)", currency, d.AnnualAmount.StringFixed(2), d.YieldPercent.StringFixed(2))
}
