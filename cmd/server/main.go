// Package main runs the dividend tracker HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"dividend-tracker/analysis"
	"dividend-tracker/config"
	"dividend-tracker/internal/api"
	"dividend-tracker/internal/app"
	"dividend-tracker/observability"
	"dividend-tracker/repository"
	"dividend-tracker/resolver"
	"dividend-tracker/services"
)

func main() {
	// .env is optional; environment variables win either way
	_ = godotenv.Load()

	production := os.Getenv("ENV") == "production"
	observability.InitLogger(production)
	observability.InitMetrics()

	cfg, err := config.Load()
	if err != nil {
		observability.Fatal("invalid configuration", "error", err)
	}

	ctx := context.Background()

	// Database is optional: without one, quote resolution and ad-hoc
	// analysis still work, persistence endpoints return 503.
	var repo *repository.Repository
	if cfg.HasDatabase() {
		repo, err = repository.NewRepository(ctx, cfg.Database.URL)
		if err != nil {
			observability.Fatal("failed to connect to database", "error", err)
		}

		if err := repo.Migrate(ctx); err != nil {
			observability.Fatal("failed to run migrations", "error", err)
		}
		observability.Info("database connected and migrated")
	} else {
		observability.Warn("DATABASE_URL not set, running without persistence")
	}

	// Provider chain in resolution order. Yahoo needs no key and goes
	// first; the keyed providers join only when configured.
	providers := []services.QuoteProvider{
		services.NewYahooService(cfg.Yahoo.Timeout),
	}
	if cfg.HasAlphaVantage() {
		providers = append(providers, services.NewAlphaVantageService(cfg.AlphaVantage.APIKey, cfg.AlphaVantage.MinInterval))
		observability.Info("alpha vantage provider enabled")
	}
	if cfg.HasPolygon() {
		providers = append(providers, services.NewPolygonService(cfg.Polygon.APIKey, cfg.Polygon.MinInterval))
		observability.Info("polygon provider enabled")
	}

	chain := resolver.New(providers...)
	observability.Info("provider chain assembled", "providers", chain.Providers())

	var quoteResolver resolver.QuoteResolver = chain
	if repo != nil {
		quoteResolver = resolver.NewCachedResolver(chain, repo, cfg.Resolver.QuoteCacheTTL)
		go cacheJanitor(ctx, repo, cfg.Resolver.QuoteCacheTTL)
	}

	rates := services.NewCurrencyService(cfg.Currency.Timeout, cfg.Currency.FallbackRates)
	analyzer := analysis.NewAnalyzer(quoteResolver, rates)

	var appRepo app.RepositoryInterface
	if repo != nil {
		appRepo = repo
	}
	application := app.New(cfg, appRepo, quoteResolver, analyzer, rates)

	handler := api.NewHandler(application, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
	}

	go func() {
		observability.Info("starting server", "port", cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			observability.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Fatal("server forced to shutdown", "error", err)
	}

	application.Shutdown(shutdownCtx)
	observability.Info("server stopped")
}

// cacheJanitor periodically sweeps expired quote cache rows. The sweep
// interval tracks the TTL so dead rows never linger for long.
func cacheJanitor(ctx context.Context, repo *repository.Repository, ttl time.Duration) {
	interval := ttl
	if interval < time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleaned, err := repo.CleanExpiredCache(ctx)
			if err != nil {
				observability.Warn("cache cleanup failed", "error", err)
				continue
			}
			if cleaned > 0 {
				observability.Debug("expired cache entries removed", "count", cleaned)
			}
		}
	}
}
