// Package resolver chains quote providers into a single lookup with
// fallback. Providers run in the order given; the first valid price wins.
package resolver

import (
	"context"
	"errors"

	"dividend-tracker/models"
	"dividend-tracker/observability"
	"dividend-tracker/services"
)

// Resolver walks an ordered provider chain until one returns a usable
// quote. A provider miss or transient failure advances the chain; only
// context cancellation stops it early.
type Resolver struct {
	providers []services.QuoteProvider
}

// New creates a Resolver over the given providers. Order matters: the
// keyless, unlimited provider should come first so configured (and
// rate-limited) providers are only consulted when it misses.
func New(providers ...services.QuoteProvider) *Resolver {
	return &Resolver{providers: providers}
}

// Providers returns the names of the chain in resolution order.
func (r *Resolver) Providers() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

// Resolve returns the first valid quote for a symbol, or nil when every
// provider misses. Exhausting the chain is not an error: a nil quote with
// a nil error means the symbol could not be resolved anywhere.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (*models.StockQuote, error) {
	metrics := observability.GetMetrics()
	metrics.RecordResolutionRequest(symbol)
	timer := metrics.NewTimer()

	for _, provider := range r.providers {
		if err := ctx.Err(); err != nil {
			timer.ObserveResolution("cancelled")
			return nil, err
		}

		quote, err := provider.Fetch(ctx, symbol)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				timer.ObserveResolution("cancelled")
				return nil, err
			}
			if errors.Is(err, services.ErrNoData) {
				observability.Debug("provider has no data",
					"symbol", symbol,
					"provider", provider.Name())
				continue
			}
			var transient *services.TransientError
			if errors.As(err, &transient) {
				observability.Warn("provider failed, trying next",
					"symbol", symbol,
					"provider", transient.Provider,
					"error", transient.Err)
				continue
			}
			observability.Warn("provider returned unexpected error, trying next",
				"symbol", symbol,
				"provider", provider.Name(),
				"error", err)
			continue
		}

		// A provider must never surface a non-positive price; guard
		// anyway so a bad quote can't short-circuit the chain.
		if !quote.Valid() {
			continue
		}

		observability.Info("symbol resolved",
			"symbol", symbol,
			"provider", provider.Name(),
			"price", quote.CurrentPrice)
		metrics.RecordResolutionOutcome(provider.Name())
		timer.ObserveResolution("resolved")
		return quote, nil
	}

	observability.Warn("symbol unresolved, all providers exhausted",
		"symbol", symbol)
	metrics.RecordResolutionOutcome("none")
	timer.ObserveResolution("unresolved")
	return nil, nil
}
