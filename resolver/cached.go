package resolver

import (
	"context"
	"time"

	"dividend-tracker/models"
	"dividend-tracker/observability"
)

// QuoteCache is the persistence surface the cached resolver needs.
type QuoteCache interface {
	GetCachedQuote(ctx context.Context, symbol string) (*models.StockQuote, error)
	SetCachedQuote(ctx context.Context, quote *models.StockQuote, ttl time.Duration) error
}

// QuoteResolver is the lookup surface shared by Resolver and CachedResolver.
type QuoteResolver interface {
	Resolve(ctx context.Context, symbol string) (*models.StockQuote, error)
}

// CachedResolver puts a TTL cache in front of a resolver chain. Cache
// failures degrade to a plain chain lookup; misses are never cached, so
// a symbol that later becomes resolvable is retried on every request.
type CachedResolver struct {
	inner QuoteResolver
	cache QuoteCache
	ttl   time.Duration
}

func NewCachedResolver(inner QuoteResolver, cache QuoteCache, ttl time.Duration) *CachedResolver {
	return &CachedResolver{inner: inner, cache: cache, ttl: ttl}
}

func (c *CachedResolver) Resolve(ctx context.Context, symbol string) (*models.StockQuote, error) {
	cached, err := c.cache.GetCachedQuote(ctx, symbol)
	if err != nil {
		observability.Warn("quote cache read failed",
			"symbol", symbol,
			"error", err)
	} else if cached.Valid() {
		observability.Debug("quote cache hit", "symbol", symbol)
		return cached, nil
	}

	quote, err := c.inner.Resolve(ctx, symbol)
	if err != nil || quote == nil {
		return quote, err
	}

	if err := c.cache.SetCachedQuote(ctx, quote, c.ttl); err != nil {
		observability.Warn("quote cache write failed",
			"symbol", symbol,
			"error", err)
	}
	return quote, nil
}

var _ QuoteResolver = (*Resolver)(nil)
var _ QuoteResolver = (*CachedResolver)(nil)
