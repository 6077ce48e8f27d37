package pricing_test

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/pricing"
)

func newDefaultEngine(t *testing.T) *pricing.Engine {
	t.Helper()
	engine, err := pricing.NewEngine(pricing.DefaultRuleSet())
	require.NoError(t, err)
	return engine
}

func TestCheckoutDefaultRules(t *testing.T) {
	engine := newDefaultEngine(t)
	cases := []struct {
		skus string
		want int
	}{
		{"", 0},
		{"A", 50},
		{"B", 30},
		{"C", 20},
		{"D", 15},
		{"E", 40},
		{"F", 10},
		{"AAA", 130},
		{"AAAA", 130 + 50},
		{"AAAAA", 200},
		{"AAAAAA", 200 + 50},
		{"AAAAAAAA", 200 + 130},
		{"AAAAAAAAA", 200 + 130 + 50},
		{"AAAAAAAAAA", 2 * 200},
		{"BB", 45},
		{"BBB", 45 + 30},
		{"EEB", 2 * 40},
		{"EEBB", 2*40 + 30},
		{"EEEEBBB", 4*40 + 30},
		{"EEEEBBBB", 4*40 + 45},
		{"BEBEEE", 4 * 40},
		{"EEEEEEEB", 7 * 40},
		{"EEBBBB", 2*40 + 45 + 30},
		{"FFF", 2 * 10},
		{"FFFFFF", 4 * 10},
		{"FFFFFFF", 5 * 10},
		{"ABCDEABCDE", 2*50 + 30 + 2*20 + 2*15 + 2*40},
		{"HHHHHHHHHHHHHHH", 80 + 45},
		{"KKK", 120 + 70},
		{"NNNM", 3 * 40},
		{"RRRQQQ", 3*50 + 2*30},
		{"UUUU", 3 * 40},
		{"UUUUUUUU", 6 * 40},
		{"VVVVV", 130 + 90},
		{"STXYZ", 45 + 20 + 17},
		{"ZZZS", 45 + 20},
		{"XXXXYZ", 2 * 45},
		{"INVALID!", pricing.InvalidTotal},
		{"A1", pricing.InvalidTotal},
		{"a", pricing.InvalidTotal},
		{"ABCa", pricing.InvalidTotal},
	}
	for _, tc := range cases {
		t.Run(tc.skus, func(t *testing.T) {
			require.Equal(t, tc.want, engine.Checkout(tc.skus))
		})
	}
}

func TestCheckoutFullBasket(t *testing.T) {
	engine := newDefaultEngine(t)
	res := engine.Price("AAAAAABBBBEEEFFFNNNMKKPPPPPQQQRRRSSTXYZ")
	require.True(t, res.OK())
	// A 250, B 75, E 120, F 20, N 120, M free, K 120, P 200, Q 60, R 150, group 90.
	require.Equal(t, pricing.Money(1205), res.Total)
	require.Equal(t, res.Subtotal-res.Total, res.Discount)
	require.Equal(t, 39, res.Basket.Units())
}

func TestCheckoutPermutationInvariant(t *testing.T) {
	engine := newDefaultEngine(t)
	base := "AAAAAABBBBEEEFFFNNNMKKPPPPPQQQRRRSSTXYZUUUUHHHHHVV"
	want := engine.Checkout(base)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		runes := []rune(base)
		rng.Shuffle(len(runes), func(a, b int) { runes[a], runes[b] = runes[b], runes[a] })
		shuffled := string(runes)
		require.Equal(t, want, engine.Checkout(shuffled), "basket %s", shuffled)
	}
}

func TestPriceInvalidBasketHasNoTotals(t *testing.T) {
	engine := newDefaultEngine(t)
	res := engine.Price("AAAAx")
	require.False(t, res.OK())
	require.True(t, errors.Is(res.Err, pricing.ErrInvalidItem))
	var itemErr *pricing.InvalidItemError
	require.ErrorAs(t, res.Err, &itemErr)
	require.Equal(t, pricing.ItemCode("x"), itemErr.Code)
	require.Zero(t, res.Total)
	require.Nil(t, res.Basket)
}

func TestPriceBasketRejectsUnknownAndNegative(t *testing.T) {
	engine := newDefaultEngine(t)

	res := engine.PriceBasket(pricing.Basket{"A": 1, "?": 2})
	require.ErrorIs(t, res.Err, pricing.ErrInvalidItem)

	res = engine.PriceBasket(pricing.Basket{"A": -1})
	require.ErrorIs(t, res.Err, pricing.ErrInvalidQuantity)

	res = engine.PriceBasket(pricing.Basket{"A": 3, "B": 0})
	require.True(t, res.OK())
	require.Equal(t, pricing.Money(130), res.Total)
	require.Equal(t, pricing.Basket{"A": 3}, res.Basket)
}

func TestPriceBasketDoesNotMutateInput(t *testing.T) {
	engine := newDefaultEngine(t)
	basket := pricing.Basket{"E": 2, "B": 1, "S": 3}
	res := engine.PriceBasket(basket)
	require.True(t, res.OK())
	require.Equal(t, pricing.Basket{"E": 2, "B": 1, "S": 3}, basket)
}

func TestEngineSingleCodeWithoutTiers(t *testing.T) {
	engine := newDefaultEngine(t)
	for n := 0; n <= 12; n++ {
		require.Equal(t, n*90, engine.Checkout(strings.Repeat("L", n)))
	}
}

func TestEngineSortsTiersDescending(t *testing.T) {
	rules := pricing.RuleSet{
		Catalog: pricing.PriceCatalog{"A": 50},
		MultiBuy: map[pricing.ItemCode][]pricing.MultiBuyTier{
			"A": {{Quantity: 3, BundlePrice: 130}, {Quantity: 5, BundlePrice: 200}},
		},
	}
	engine, err := pricing.NewEngine(rules)
	require.NoError(t, err)
	require.Equal(t, 330, engine.Checkout("AAAAAAAA"))
	// the caller's slice keeps its original order
	require.Equal(t, 3, rules.MultiBuy["A"][0].Quantity)
}

func TestEngineRulesReturnsCopy(t *testing.T) {
	engine := newDefaultEngine(t)
	rules := engine.Rules()
	rules.Catalog["A"] = 1
	rules.GroupOffers[0].MemberCodes[0] = "A"
	require.Equal(t, 50, engine.Checkout("A"))
	require.Equal(t, 45, engine.Checkout("ZZZ"))
}

func TestNewEngineRejectsInvalidRules(t *testing.T) {
	_, err := pricing.NewEngine(pricing.RuleSet{})
	require.ErrorIs(t, err, pricing.ErrInvalidRule)
	require.Panics(t, func() { pricing.MustNewEngine(pricing.RuleSet{}) })
}
