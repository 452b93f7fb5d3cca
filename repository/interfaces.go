package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"dividend-tracker/models"
)

// RepositoryInterface defines all repository operations
type RepositoryInterface interface {
	// Health and lifecycle
	Close()
	Health(ctx context.Context) error
	Migrate(ctx context.Context) error

	// Users
	CreateUser(ctx context.Context, username, password, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)

	// Portfolios
	UpsertPortfolioItem(ctx context.Context, userID uuid.UUID, symbol string, shares decimal.Decimal) (*models.PortfolioItem, error)
	GetPortfolio(ctx context.Context, userID uuid.UUID) ([]models.PortfolioItem, error)
	DeletePortfolioItem(ctx context.Context, userID uuid.UUID, symbol string) (bool, error)

	// Dividend history
	RecordDividend(ctx context.Context, rec *models.DividendRecord) error
	GetDividendHistory(ctx context.Context, userID uuid.UUID, limit int) ([]models.DividendRecord, error)

	// Quote cache
	GetCachedQuote(ctx context.Context, symbol string) (*models.StockQuote, error)
	SetCachedQuote(ctx context.Context, quote *models.StockQuote, ttl time.Duration) error
	InvalidateQuote(ctx context.Context, symbol string) error
	CleanExpiredCache(ctx context.Context) (int64, error)
}

// Compile-time interface verification
var _ RepositoryInterface = (*Repository)(nil)
