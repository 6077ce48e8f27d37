package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearedEnv(overrides map[string]string) map[string]string {
	env := map[string]string{
		"APP_ENV":                    "",
		"PORT":                       "",
		"REDIS_URL":                  "",
		"PRICING_RULES_PATH":         "",
		"QUOTE_CACHE_TTL":            "",
		"CORS_ALLOWED_ORIGINS":       "",
		"RATE_LIMIT_WINDOW":          "",
		"RATE_LIMIT_MAX":             "",
		"RATE_LIMIT_STRATEGY":        "",
		"REQUEST_BODY_MAX_BYTES":     "",
		"OBS_LOG_FORMAT":             "",
		"OBS_LOG_LEVEL":              "",
		"OBS_METRICS_NAMESPACE":      "",
		"OBS_ENABLE_PROMETHEUS":      "",
		"OBS_ENABLE_TRACING":         "",
		"OBS_OTLP_ENDPOINT":          "",
		"OBS_TRACING_SAMPLING_RATIO": "",
	}
	for k, v := range overrides {
		env[k] = v
	}
	return env
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(clearedEnv(nil))
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Empty(t, cfg.RedisURL)
	require.Empty(t, cfg.PricingRulesPath)
	require.Equal(t, 10*time.Minute, cfg.QuoteCacheTTL)
	require.Equal(t, time.Minute, cfg.RateLimitWindow)
	require.Equal(t, 120, cfg.RateLimitMax)
	require.True(t, cfg.RateLimitEnabled())
	require.Equal(t, "sliding", cfg.RateLimitStrategy)
	require.Equal(t, int64(16384), cfg.RequestBodyMaxBytes)
	require.Equal(t, "json", cfg.Obs.LogFormat)
	require.Equal(t, "info", cfg.Obs.LogLevel)
	require.True(t, cfg.Obs.EnablePrometheus)
	require.False(t, cfg.Obs.EnableTracing)
	require.Equal(t, 1.0, cfg.Obs.SamplingRatio)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(clearedEnv(map[string]string{
		"PORT":                       ":9090",
		"REDIS_URL":                  "redis://localhost:6379/0",
		"PRICING_RULES_PATH":         "/etc/checkout/rules.yaml",
		"QUOTE_CACHE_TTL":            "30s",
		"CORS_ALLOWED_ORIGINS":       "https://a.example, https://b.example ,",
		"RATE_LIMIT_MAX":             "0",
		"REQUEST_BODY_MAX_BYTES":     "2048",
		"OBS_LOG_FORMAT":             "console",
		"OBS_ENABLE_PROMETHEUS":      "off",
		"OBS_ENABLE_TRACING":         "true",
		"OBS_TRACING_SAMPLING_RATIO": "0.25",
	}))
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	require.Equal(t, "/etc/checkout/rules.yaml", cfg.PricingRulesPath)
	require.Equal(t, 30*time.Second, cfg.QuoteCacheTTL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.False(t, cfg.RateLimitEnabled())
	require.Equal(t, int64(2048), cfg.RequestBodyMaxBytes)
	require.Equal(t, "console", cfg.Obs.LogFormat)
	require.False(t, cfg.Obs.EnablePrometheus)
	require.True(t, cfg.Obs.EnableTracing)
	require.Equal(t, 0.25, cfg.Obs.SamplingRatio)
}

func TestLoadFallsBackOnMalformedValues(t *testing.T) {
	cfg, err := LoadForTests(clearedEnv(map[string]string{
		"QUOTE_CACHE_TTL": "soon",
		"RATE_LIMIT_MAX":  "many",
	}))
	require.NoError(t, err)
	require.Equal(t, 10*time.Minute, cfg.QuoteCacheTTL)
	require.Equal(t, 120, cfg.RateLimitMax)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	_, err := LoadForTests(clearedEnv(map[string]string{"OBS_TRACING_SAMPLING_RATIO": "2"}))
	require.Error(t, err)

	_, err = LoadForTests(clearedEnv(map[string]string{"RATE_LIMIT_MAX": "-1"}))
	require.Error(t, err)

	_, err = LoadForTests(clearedEnv(map[string]string{"QUOTE_CACHE_TTL": "-5s"}))
	require.Error(t, err)

	_, err = LoadForTests(clearedEnv(map[string]string{"RATE_LIMIT_STRATEGY": "leaky"}))
	require.Error(t, err)
}
