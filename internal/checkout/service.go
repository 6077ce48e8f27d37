package checkout

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/toko-checkout/internal/cache"
	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/pricing"
	"github.com/noah-isme/toko-checkout/internal/resilience"
)

// CodeInvalidBasket is the error code reported for baskets that cannot be priced.
const CodeInvalidBasket = "INVALID_BASKET"

// Quote is a priced basket.
type Quote struct {
	ID       string         `json:"id"`
	Items    pricing.Basket `json:"items"`
	Subtotal int64          `json:"subtotal"`
	Discount int64          `json:"discount"`
	Total    int64          `json:"total"`
	Currency string         `json:"currency,omitempty"`
	PricedAt time.Time      `json:"pricedAt"`
	Cached   bool           `json:"cached"`
}

// Service prices baskets against a single rule set.
type Service struct {
	Engine       *pricing.Engine
	Cache        *cache.JSON
	Metrics      *obs.CheckoutMetrics
	Logger       zerolog.Logger
	RulesVersion string
	Currency     string
	Tracer       trace.Tracer
	Now          func() time.Time
}

type cachedQuote struct {
	Subtotal int64     `json:"subtotal"`
	Discount int64     `json:"discount"`
	Total    int64     `json:"total"`
	PricedAt time.Time `json:"pricedAt"`
}

func (s *Service) tracer() trace.Tracer {
	if s.Tracer != nil {
		return s.Tracer
	}
	return otel.Tracer("github.com/noah-isme/toko-checkout/internal/checkout")
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Quote prices skus. Invalid input is reported as an *common.AppError with
// code INVALID_BASKET wrapping the pricing error.
func (s *Service) Quote(ctx context.Context, skus string) (Quote, error) {
	if s == nil || s.Engine == nil {
		return Quote{}, errors.New("checkout service not configured")
	}
	ctx, span := s.tracer().Start(ctx, "checkout.Quote")
	defer span.End()
	span.SetAttributes(attribute.Int("checkout.skus_length", len(skus)))

	basket, err := s.Engine.Parse(skus)
	if err != nil {
		return Quote{}, s.invalid(span, err)
	}
	span.SetAttributes(attribute.Int("checkout.units", basket.Units()))

	key := cache.KeyQuote(s.RulesVersion, basket)
	if s.Cache.Enabled() {
		var hit cachedQuote
		found, err := s.Cache.GetJSON(ctx, key, &hit)
		switch {
		case errors.Is(err, resilience.ErrOpenCircuit):
			s.Metrics.ObserveCache("bypass")
		case err != nil:
			s.Metrics.ObserveCache("error")
			s.Logger.Warn().Err(err).Str("key", key).Msg("quote cache read failed")
		case found:
			s.Metrics.ObserveCache("hit")
			s.Metrics.ObserveQuote(hit.Total, hit.Discount)
			span.SetAttributes(attribute.Bool("checkout.cache_hit", true))
			return s.quote(basket, hit, true), nil
		default:
			s.Metrics.ObserveCache("miss")
		}
	}

	res := s.Engine.PriceBasket(basket)
	if !res.OK() {
		return Quote{}, s.invalid(span, res.Err)
	}
	priced := cachedQuote{
		Subtotal: res.Subtotal,
		Discount: res.Discount,
		Total:    res.Total,
		PricedAt: s.now(),
	}
	if err := s.Cache.SetJSON(ctx, key, priced); err != nil && !errors.Is(err, resilience.ErrOpenCircuit) {
		s.Logger.Warn().Err(err).Str("key", key).Msg("quote cache write failed")
	}
	s.Metrics.ObserveQuote(res.Total, res.Discount)
	span.SetAttributes(attribute.Int64("checkout.total", res.Total))
	return s.quote(res.Basket, priced, false), nil
}

// LegacyTotal returns the basket total, or -1 when skus cannot be priced.
func (s *Service) LegacyTotal(ctx context.Context, skus string) int {
	q, err := s.Quote(ctx, skus)
	if err != nil {
		return pricing.InvalidTotal
	}
	return int(q.Total)
}

func (s *Service) quote(basket pricing.Basket, priced cachedQuote, cached bool) Quote {
	items := basket.Clone()
	if items == nil {
		items = pricing.Basket{}
	}
	return Quote{
		ID:       uuid.NewString(),
		Items:    items,
		Subtotal: priced.Subtotal,
		Discount: priced.Discount,
		Total:    priced.Total,
		Currency: s.Currency,
		PricedAt: priced.PricedAt,
		Cached:   cached,
	}
}

func (s *Service) invalid(span trace.Span, err error) error {
	s.Metrics.ObserveInvalid()
	span.RecordError(err)
	span.SetStatus(codes.Error, "invalid basket")

	appErr := common.NewAppError(CodeInvalidBasket, "basket contains invalid items", http.StatusUnprocessableEntity, err)
	var itemErr *pricing.InvalidItemError
	if errors.As(err, &itemErr) {
		appErr.Details = map[string]any{"code": string(itemErr.Code)}
	}
	return appErr
}
