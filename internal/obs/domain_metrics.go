package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records pricing outcomes.
type CheckoutMetrics struct {
	// Quotes counts priced baskets by outcome (ok, invalid).
	Quotes *prometheus.CounterVec
	// QuoteTotal observes basket totals in minor units.
	QuoteTotal prometheus.Histogram
	// Discount accumulates the discount granted across all quotes.
	Discount prometheus.Counter
	// Cache counts quote cache lookups by result (hit, miss, error, bypass).
	Cache *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout collectors on reg, falling back to
// the default registerer.
func NewCheckoutMetrics(namespace string, reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &CheckoutMetrics{
		Quotes: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_quotes_total",
			Help:      "Priced baskets by outcome.",
		}, []string{"outcome"})),
		QuoteTotal: register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_quote_total_minor",
			Help:      "Basket totals in minor currency units.",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 12),
		})),
		Discount: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_discount_minor_total",
			Help:      "Discount granted by promotions in minor currency units.",
		})),
		Cache: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_quote_cache_total",
			Help:      "Quote cache lookups by result.",
		}, []string{"result"})),
	}
}

// ObserveQuote records a successful quote.
func (m *CheckoutMetrics) ObserveQuote(total, discount int64) {
	if m == nil {
		return
	}
	m.Quotes.WithLabelValues("ok").Inc()
	m.QuoteTotal.Observe(float64(total))
	if discount > 0 {
		m.Discount.Add(float64(discount))
	}
}

// ObserveInvalid records a rejected basket.
func (m *CheckoutMetrics) ObserveInvalid() {
	if m == nil {
		return
	}
	m.Quotes.WithLabelValues("invalid").Inc()
}

// ObserveCache records a cache lookup result.
func (m *CheckoutMetrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.Cache.WithLabelValues(result).Inc()
}
