package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is an account that owns a portfolio.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// PortfolioItem is one (user, symbol, shares) holding.
type PortfolioItem struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Symbol    string          `json:"symbol"`
	Shares    decimal.Decimal `json:"shares"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// DividendRecord is one received dividend payment, kept for history.
type DividendRecord struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Symbol       string          `json:"symbol"`
	PaymentDate  *time.Time      `json:"payment_date,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Shares       decimal.Decimal `json:"shares"`
	TotalPayment decimal.Decimal `json:"total_payment"`
	Currency     string          `json:"currency"`
	RecordedAt   time.Time       `json:"recorded_at"`
}

// AnalysisResult is one row of a portfolio analysis report. Rows for
// symbols no provider could resolve are emitted with OK=false alongside
// the successful ones; partial success is the normal case.
type AnalysisResult struct {
	Symbol        string          `json:"symbol"`
	Shares        decimal.Decimal `json:"shares"`
	CompanyName   string          `json:"company_name"`
	Market        string          `json:"market"`
	Country       string          `json:"country"`
	Currency      string          `json:"currency"`
	CurrentPrice  string          `json:"current_price"`
	PositionValue string          `json:"position_value"`
	DividendInfo  string          `json:"dividend_info"`
	DataSource    string          `json:"data_source"`
	OK            bool            `json:"ok"`
}

// AnalysisReport is the full output of one portfolio analysis run.
type AnalysisReport struct {
	Results    []AnalysisResult `json:"results"`
	TotalUSD   decimal.Decimal  `json:"total_usd"`
	Resolved   int              `json:"resolved"`
	Failed     int              `json:"failed"`
	AnalyzedAt time.Time        `json:"analyzed_at"`
}
