package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"dividend-tracker/models"
	"dividend-tracker/services"
)

// fakeCache is an in-memory QuoteCache.
type fakeCache struct {
	quotes map[string]*models.StockQuote
	getErr error
	setErr error
	sets   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{quotes: make(map[string]*models.StockQuote)}
}

func (f *fakeCache) GetCachedQuote(ctx context.Context, symbol string) (*models.StockQuote, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.quotes[symbol], nil
}

func (f *fakeCache) SetCachedQuote(ctx context.Context, quote *models.StockQuote, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.sets++
	f.quotes[quote.Symbol] = quote
	return nil
}

func TestCachedResolver_HitSkipsChain(t *testing.T) {
	cache := newFakeCache()
	cache.quotes["AAPL"] = quoteFor("AAPL", "175.5", models.QuoteSourceTertiary)

	provider := &fakeProvider{name: "yahoo", quote: quoteFor("AAPL", "999", models.QuoteSourceTertiary)}
	r := NewCachedResolver(New(provider), cache, time.Minute)

	quote, err := r.Resolve(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !quote.CurrentPrice.Equal(cache.quotes["AAPL"].CurrentPrice) {
		t.Errorf("CurrentPrice = %v, want cached 175.5", quote.CurrentPrice)
	}
	if provider.calls != 0 {
		t.Errorf("provider called %d times on cache hit, want 0", provider.calls)
	}
}

func TestCachedResolver_MissResolvesAndStores(t *testing.T) {
	cache := newFakeCache()
	provider := &fakeProvider{name: "yahoo", quote: quoteFor("AAPL", "175.5", models.QuoteSourceTertiary)}
	r := NewCachedResolver(New(provider), cache, time.Minute)

	quote, err := r.Resolve(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote == nil {
		t.Fatal("expected a quote")
	}
	if cache.sets != 1 {
		t.Errorf("cache stored %d quotes, want 1", cache.sets)
	}

	// Second lookup is served from cache.
	if _, err := r.Resolve(context.Background(), "AAPL"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
}

func TestCachedResolver_UnresolvedIsNotCached(t *testing.T) {
	cache := newFakeCache()
	provider := &fakeProvider{name: "yahoo", err: services.ErrNoData}
	r := NewCachedResolver(New(provider), cache, time.Minute)

	quote, err := r.Resolve(context.Background(), "NOSUCH")
	if err != nil || quote != nil {
		t.Fatalf("got (%v, %v), want (nil, nil)", quote, err)
	}
	if cache.sets != 0 {
		t.Errorf("cache stored %d quotes for a miss, want 0", cache.sets)
	}

	// The miss is retried, not served from cache.
	r.Resolve(context.Background(), "NOSUCH")
	if provider.calls != 2 {
		t.Errorf("provider called %d times, want 2", provider.calls)
	}
}

func TestCachedResolver_CacheErrorsDegradeToChain(t *testing.T) {
	cache := newFakeCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")

	provider := &fakeProvider{name: "yahoo", quote: quoteFor("AAPL", "175.5", models.QuoteSourceTertiary)}
	r := NewCachedResolver(New(provider), cache, time.Minute)

	quote, err := r.Resolve(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote == nil || !quote.Valid() {
		t.Fatal("expected a valid quote despite cache failures")
	}
}
