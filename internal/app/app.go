// Package app wires the repository, resolver chain and analyzer behind
// interfaces so HTTP handlers stay testable.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"dividend-tracker/config"
	"dividend-tracker/models"
)

// ErrNoDatabase is returned by persistence-backed operations when the
// application runs without a configured database.
var ErrNoDatabase = errors.New("database not configured")

// RepositoryInterface defines the repository operations needed by App
type RepositoryInterface interface {
	Close()
	Health(ctx context.Context) error
	CreateUser(ctx context.Context, username, password, email string) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	UpsertPortfolioItem(ctx context.Context, userID uuid.UUID, symbol string, shares decimal.Decimal) (*models.PortfolioItem, error)
	GetPortfolio(ctx context.Context, userID uuid.UUID) ([]models.PortfolioItem, error)
	DeletePortfolioItem(ctx context.Context, userID uuid.UUID, symbol string) (bool, error)
	RecordDividend(ctx context.Context, rec *models.DividendRecord) error
	GetDividendHistory(ctx context.Context, userID uuid.UUID, limit int) ([]models.DividendRecord, error)
	InvalidateQuote(ctx context.Context, symbol string) error
}

// ResolverInterface resolves one symbol through the provider chain.
type ResolverInterface interface {
	Resolve(ctx context.Context, symbol string) (*models.StockQuote, error)
}

// AnalyzerInterface values a portfolio.
type AnalyzerInterface interface {
	AnalyzePortfolio(ctx context.Context, items []models.PortfolioItem) (*models.AnalysisReport, error)
}

// RateSourceInterface supplies the current currency rate snapshot.
type RateSourceInterface interface {
	Snapshot(ctx context.Context) models.CurrencyRateSnapshot
}

// App struct holds application dependencies using interfaces for testability
type App struct {
	cfg      *config.Config
	repo     RepositoryInterface
	resolver ResolverInterface
	analyzer AnalyzerInterface
	rates    RateSourceInterface
}

// New creates a new App application struct. repo may be nil when no
// database is configured; quote and analysis endpoints keep working.
func New(cfg *config.Config, repo RepositoryInterface, res ResolverInterface, analyzer AnalyzerInterface, rates RateSourceInterface) *App {
	return &App{
		cfg:      cfg,
		repo:     repo,
		resolver: res,
		analyzer: analyzer,
		rates:    rates,
	}
}

// Shutdown releases held resources.
func (a *App) Shutdown(ctx context.Context) {
	if a.repo != nil {
		a.repo.Close()
	}
}

// Repo returns the repository interface for API handlers, nil when the
// application runs without a database.
func (a *App) Repo() RepositoryInterface {
	return a.repo
}

// HasDatabase reports whether persistence-backed operations are available.
func (a *App) HasDatabase() bool {
	return a.repo != nil
}

// GetQuote resolves a single symbol. A nil quote means no provider had it.
func (a *App) GetQuote(ctx context.Context, symbol string) (*models.StockQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Resolver.RequestTimeout)
	defer cancel()
	return a.resolver.Resolve(ctx, symbol)
}

// GetRates returns the current currency rate snapshot.
func (a *App) GetRates(ctx context.Context) models.CurrencyRateSnapshot {
	return a.rates.Snapshot(ctx)
}

// RegisterUser creates a new account.
func (a *App) RegisterUser(ctx context.Context, username, password, email string) (*models.User, error) {
	if a.repo == nil {
		return nil, ErrNoDatabase
	}
	return a.repo.CreateUser(ctx, username, password, email)
}

// Login verifies credentials. A nil user means they did not match.
func (a *App) Login(ctx context.Context, username, password string) (*models.User, error) {
	if a.repo == nil {
		return nil, ErrNoDatabase
	}
	return a.repo.Authenticate(ctx, username, password)
}

// GetPortfolio lists a user's holdings.
func (a *App) GetPortfolio(ctx context.Context, userID uuid.UUID) ([]models.PortfolioItem, error) {
	if a.repo == nil {
		return nil, ErrNoDatabase
	}
	return a.repo.GetPortfolio(ctx, userID)
}

// AddHolding adds or updates one holding.
func (a *App) AddHolding(ctx context.Context, userID uuid.UUID, symbol string, shares decimal.Decimal) (*models.PortfolioItem, error) {
	if a.repo == nil {
		return nil, ErrNoDatabase
	}
	return a.repo.UpsertPortfolioItem(ctx, userID, symbol, shares)
}

// RemoveHolding deletes one holding and reports whether it existed.
func (a *App) RemoveHolding(ctx context.Context, userID uuid.UUID, symbol string) (bool, error) {
	if a.repo == nil {
		return false, ErrNoDatabase
	}
	return a.repo.DeletePortfolioItem(ctx, userID, symbol)
}

// AnalyzePortfolio values a user's full portfolio.
func (a *App) AnalyzePortfolio(ctx context.Context, userID uuid.UUID) (*models.AnalysisReport, error) {
	items, err := a.GetPortfolio(ctx, userID)
	if err != nil {
		return nil, err
	}
	return a.analyzer.AnalyzePortfolio(ctx, items)
}

// AnalyzeSymbols values an ad-hoc list of holdings without persistence.
func (a *App) AnalyzeSymbols(ctx context.Context, items []models.PortfolioItem) (*models.AnalysisReport, error) {
	return a.analyzer.AnalyzePortfolio(ctx, items)
}

// RecordDividend stores one received payment in the history.
func (a *App) RecordDividend(ctx context.Context, rec *models.DividendRecord) error {
	if a.repo == nil {
		return ErrNoDatabase
	}
	if rec.TotalPayment.IsZero() {
		rec.TotalPayment = rec.Amount.Mul(rec.Shares)
	}
	if rec.Currency == "" {
		rec.Currency = "USD"
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}
	return a.repo.RecordDividend(ctx, rec)
}

// InvalidateQuote drops the cached quote for a symbol so the next lookup
// goes through the provider chain again. A no-op without a database.
func (a *App) InvalidateQuote(ctx context.Context, symbol string) error {
	if a.repo == nil {
		return nil
	}
	return a.repo.InvalidateQuote(ctx, symbol)
}

// GetDividendHistory lists a user's recorded payments.
func (a *App) GetDividendHistory(ctx context.Context, userID uuid.UUID, limit int) ([]models.DividendRecord, error) {
	if a.repo == nil {
		return nil, ErrNoDatabase
	}
	return a.repo.GetDividendHistory(ctx, userID, limit)
}
