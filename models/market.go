package models

import "strings"

// MarketInfo describes the exchange a ticker suffix maps to.
type MarketInfo struct {
	Suffix   string `json:"suffix"`
	Exchange string `json:"exchange"`
	Country  string `json:"country"`
	Currency string `json:"currency"`
}

// markets is the static suffix table. Matching is first-wins in insertion
// order, so the slice (not a map) keeps the lookup deterministic.
var markets = []MarketInfo{
	{Suffix: ".L", Exchange: "London Stock Exchange", Country: "UK", Currency: "GBP"},
	{Suffix: ".PA", Exchange: "Euronext Paris", Country: "FR", Currency: "EUR"},
	{Suffix: ".DE", Exchange: "XETRA (Germany)", Country: "DE", Currency: "EUR"},
	{Suffix: ".AS", Exchange: "Euronext Amsterdam", Country: "NL", Currency: "EUR"},
	{Suffix: ".SW", Exchange: "SIX Swiss Exchange", Country: "CH", Currency: "CHF"},
	{Suffix: ".MI", Exchange: "Borsa Italiana", Country: "IT", Currency: "EUR"},
	{Suffix: ".MC", Exchange: "BME Spanish Exchanges", Country: "ES", Currency: "EUR"},
	{Suffix: ".TO", Exchange: "Toronto Stock Exchange", Country: "CA", Currency: "CAD"},
	{Suffix: ".AX", Exchange: "Australian Securities Exchange", Country: "AU", Currency: "AUD"},
}

// defaultMarket is returned when no suffix matches.
var defaultMarket = MarketInfo{Exchange: "US Market (NASDAQ/NYSE)", Country: "US", Currency: "USD"}

// ResolveMarket returns market metadata for a symbol based on its ticker
// suffix. Unsuffixed symbols resolve to the US default. Pure lookup, no
// failure mode.
func ResolveMarket(symbol string) MarketInfo {
	for _, m := range markets {
		if strings.HasSuffix(symbol, m.Suffix) {
			return m
		}
	}
	return defaultMarket
}

// IsUKStock reports whether a symbol trades on the LSE, where quotes are
// denominated in pence rather than pounds.
func IsUKStock(symbol string) bool {
	return strings.HasSuffix(symbol, ".L")
}
