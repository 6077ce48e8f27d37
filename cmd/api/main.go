package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-checkout/internal/cache"
	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/checkout"
	"github.com/noah-isme/toko-checkout/internal/config"
	"github.com/noah-isme/toko-checkout/internal/health"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/pricing"
	"github.com/noah-isme/toko-checkout/internal/ratelimit"
	"github.com/noah-isme/toko-checkout/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	tracingEnabled := cfg.Obs.EnableTracing
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "toko-checkout",
			Endpoint:      cfg.Obs.OTLPEndpoint,
			Exporter:      cfg.Obs.TracingExporter,
			SamplingRatio: cfg.Obs.SamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	rules, err := catalog.LoadFile(cfg.PricingRulesPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.PricingRulesPath).Msg("load pricing rules")
	}
	engine, err := pricing.NewEngine(rules.Set)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise pricing engine")
	}
	rulesVersion, err := catalog.Version(rules)
	if err != nil {
		logger.Fatal().Err(err).Msg("fingerprint pricing rules")
	}
	logger.Info().
		Str("source", rules.Source).
		Str("version", rulesVersion).
		Int("items", len(rules.Set.Catalog)).
		Msg("pricing rules loaded")

	redisClient := connectRedis(cfg, logger)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
	}

	var reg prometheus.Registerer
	if cfg.Obs.EnablePrometheus {
		reg = prometheus.DefaultRegisterer
	}

	limiter, err := newLimiter(cfg, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}

	quoteCache := cache.NewJSON(redisClient, cfg.QuoteCacheTTL).WithBreaker(resilience.NewBreaker(resilience.BreakerConfig{
		Target:  "quote_cache",
		Metrics: newBreakerMetrics(cfg, reg),
		Logger:  logger,
	}))

	checkoutSvc := &checkout.Service{
		Engine:       engine,
		Cache:        quoteCache,
		Metrics:      newCheckoutMetrics(cfg, reg),
		Logger:       logger.With().Str("component", "checkout").Logger(),
		RulesVersion: rulesVersion,
		Currency:     rules.Currency,
	}

	var redisChecker health.Checker
	if redisClient != nil {
		redisChecker = health.CheckerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	router := newRouter(routerDeps{
		Config:         cfg,
		Logger:         logger,
		Rules:          rules,
		Checkout:       checkoutSvc,
		Limiter:        limiter,
		RedisChecker:   redisChecker,
		HTTPMetrics:    newHTTPMetrics(cfg, reg),
		TracingEnabled: tracingEnabled,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-ctx.Done():
	}

	health.SetReady(false)
	logger.Info().Msg("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}

func connectRedis(cfg *config.Config, logger zerolog.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		logger.Info().Msg("REDIS_URL not set; quote cache disabled")
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(opts)
	if cfg.Obs.EnableTracing {
		if err := redisotel.InstrumentTracing(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis tracing")
		}
	}
	if cfg.Obs.EnablePrometheus {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return client
}

func newLimiter(cfg *config.Config, client *redis.Client) (ratelimit.Limiter, error) {
	if !cfg.RateLimitEnabled() {
		return nil, nil
	}
	if client != nil && cfg.RateLimitStrategy == "sliding" {
		return ratelimit.Sliding{
			Client: client,
			Prefix: "ratelimit:checkout:",
			Window: cfg.RateLimitWindow,
			Max:    cfg.RateLimitMax,
		}, nil
	}
	return ratelimit.NewFixed(client, "ratelimit:checkout", cfg.RateLimitWindow, cfg.RateLimitMax)
}

func newHTTPMetrics(cfg *config.Config, reg prometheus.Registerer) *obs.HTTPMetrics {
	if reg == nil {
		return nil
	}
	return obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBucketsMS), reg)
}

func newCheckoutMetrics(cfg *config.Config, reg prometheus.Registerer) *obs.CheckoutMetrics {
	if reg == nil {
		return nil
	}
	return obs.NewCheckoutMetrics(cfg.Obs.MetricsNamespace, reg)
}

func newBreakerMetrics(cfg *config.Config, reg prometheus.Registerer) *resilience.Metrics {
	if reg == nil {
		return nil
	}
	return resilience.NewMetrics(cfg.Obs.MetricsNamespace, reg)
}
