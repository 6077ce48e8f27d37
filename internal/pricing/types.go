package pricing

import (
	"sort"
	"strconv"
	"strings"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// ItemCode identifies a product in the catalog.
type ItemCode string

// Basket maps item codes to the quantity being purchased.
type Basket map[ItemCode]int

// Clone returns an independent copy of the basket.
func (b Basket) Clone() Basket {
	out := make(Basket, len(b))
	for code, qty := range b {
		out[code] = qty
	}
	return out
}

// Codes returns the basket codes in ascending order.
func (b Basket) Codes() []ItemCode {
	codes := make([]ItemCode, 0, len(b))
	for code := range b {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Units reports the total number of units in the basket.
func (b Basket) Units() int {
	var n int
	for _, qty := range b {
		if qty > 0 {
			n += qty
		}
	}
	return n
}

// Canonical renders the basket as a stable "A:3,B:1" string. Zero counts are
// omitted so that permutations of the same purchase share one representation.
func (b Basket) Canonical() string {
	var sb strings.Builder
	for _, code := range b.Codes() {
		qty := b[code]
		if qty <= 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(string(code))
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(qty))
	}
	return sb.String()
}

func (b Basket) compact() Basket {
	for code, qty := range b {
		if qty <= 0 {
			delete(b, code)
		}
	}
	return b
}

// PriceCatalog maps item codes to their base unit price.
type PriceCatalog map[ItemCode]Money

// Price returns the base unit price of code and whether it is known.
func (c PriceCatalog) Price(code ItemCode) (Money, bool) {
	p, ok := c[code]
	return p, ok
}

// MultiBuyTier prices Quantity units of one code at BundlePrice.
type MultiBuyTier struct {
	Quantity    int
	BundlePrice Money
}

// FreeItemRule grants GiftQuantity units of GiftCode for every TriggerQuantity
// units of TriggerCode in the basket.
type FreeItemRule struct {
	TriggerCode     ItemCode
	TriggerQuantity int
	GiftCode        ItemCode
	GiftQuantity    int
}

// GroupDiscountOffer prices any BundleQuantity units drawn from MemberCodes at
// BundlePrice. MemberCodes are ordered from the highest to the lowest unit price.
type GroupDiscountOffer struct {
	MemberCodes    []ItemCode
	BundleQuantity int
	BundlePrice    Money
}

// GroupOfferResult is the outcome of the group discount stage.
type GroupOfferResult struct {
	Remaining Basket
	OfferCost Money
}

// Summary aggregates computed pricing components.
type Summary struct {
	Subtotal Money
	Discount Money
	Total    Money
}
