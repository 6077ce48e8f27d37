package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/noah-isme/toko-checkout/internal/common"
)

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady toggles readiness, e.g. while the server drains on shutdown.
func SetReady(v bool) { ready.Store(v) }

// Checker probes an optional dependency. Nil checkers are reported as "disabled".
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

// Ping implements Checker.
func (f CheckerFunc) Ping(ctx context.Context) error { return f(ctx) }

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	// RulesSource names where the pricing rules were loaded from.
	RulesSource  string
	Redis        Checker
	RedisTimeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on loaded rules and dependency probes.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"rules": "ok",
		"redis": "disabled",
	}
	ok := ready.Load()
	if !ok {
		status["server"] = "shutting down"
	}
	if h.RulesSource == "" {
		status["rules"] = "not loaded"
		ok = false
	} else {
		status["rules_source"] = h.RulesSource
	}
	if h.Redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.redisTimeout())
		defer cancel()
		if err := h.Redis.Ping(ctx); err != nil {
			status["redis"] = err.Error()
			ok = false
		} else {
			status["redis"] = "ok"
		}
	}
	code := http.StatusOK
	if !ok {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, status)
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
