package pricing

import "fmt"

// InvalidTotal is the legacy total reported for an invalid basket.
const InvalidTotal = -1

// Result is the outcome of pricing one basket. Err is set on failure, in which
// case no totals are populated.
type Result struct {
	Summary
	Basket Basket
	Err    error
}

// OK reports whether the basket was priced successfully.
func (r Result) OK() bool { return r.Err == nil }

// Engine runs the pricing pipeline against an immutable rule set. It holds no
// mutable state and may be shared between goroutines.
type Engine struct {
	rules RuleSet
}

// NewEngine validates rules and returns an engine over a private copy of them.
func NewEngine(rules RuleSet) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("pricing: %w", err)
	}
	return &Engine{rules: rules.normalize()}, nil
}

// MustNewEngine is NewEngine that panics on an invalid rule set.
func MustNewEngine(rules RuleSet) *Engine {
	e, err := NewEngine(rules)
	if err != nil {
		panic(err)
	}
	return e
}

// Rules returns a copy of the engine's rule set.
func (e *Engine) Rules() RuleSet { return e.rules.Clone() }

// Parse validates raw against the engine's catalog.
func (e *Engine) Parse(raw string) (Basket, error) {
	return ValidateAndParse(raw, e.rules.Catalog)
}

// Price validates raw and prices the resulting basket.
func (e *Engine) Price(raw string) Result {
	basket, err := e.Parse(raw)
	if err != nil {
		return Result{Err: err}
	}
	return e.PriceBasket(basket)
}

// PriceBasket runs free items, group offers and multi-buy pricing, in that
// order, over basket.
func (e *Engine) PriceBasket(basket Basket) Result {
	if err := checkBasket(basket, e.rules.Catalog); err != nil {
		return Result{Err: err}
	}
	subtotal, err := Subtotal(basket, e.rules.Catalog)
	if err != nil {
		return Result{Err: err}
	}
	afterFree := ApplyFreeItemRules(basket, e.rules.FreeItems)
	group := ApplyGroupDiscounts(afterFree, e.rules.GroupOffers)
	remainder, err := PriceRemainder(group.Remaining, e.rules.Catalog, e.rules.MultiBuy)
	if err != nil {
		return Result{Err: err}
	}
	total := group.OfferCost + remainder
	return Result{
		Summary: Summary{
			Subtotal: subtotal,
			Discount: subtotal - total,
			Total:    total,
		},
		Basket: basket.Clone().compact(),
	}
}

// Checkout returns the total for raw, or InvalidTotal when the basket is invalid.
func (e *Engine) Checkout(raw string) int {
	res := e.Price(raw)
	if !res.OK() {
		return InvalidTotal
	}
	return int(res.Total)
}
