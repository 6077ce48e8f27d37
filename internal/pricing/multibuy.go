package pricing

// PriceSingleCode prices count units of code. Tiers are consumed greedily from
// the largest quantity down and leftovers are charged at the base price; tier
// tables are expected to get cheaper per unit as the quantity grows.
func PriceSingleCode(code ItemCode, count int, catalog PriceCatalog, tiers map[ItemCode][]MultiBuyTier) (Money, error) {
	base, ok := catalog.Price(code)
	if !ok {
		return 0, &InvalidItemError{Code: code}
	}
	if count <= 0 {
		return 0, nil
	}
	remaining := count
	var cost Money
	for _, tier := range tiers[code] {
		if tier.Quantity <= 0 {
			continue
		}
		cost += Money(remaining/tier.Quantity) * tier.BundlePrice
		remaining %= tier.Quantity
	}
	return cost + Money(remaining)*base, nil
}

// PriceRemainder sums PriceSingleCode over every code in basket.
func PriceRemainder(basket Basket, catalog PriceCatalog, tiers map[ItemCode][]MultiBuyTier) (Money, error) {
	var total Money
	for _, code := range basket.Codes() {
		cost, err := PriceSingleCode(code, basket[code], catalog, tiers)
		if err != nil {
			return 0, err
		}
		total += cost
	}
	return total, nil
}

// Subtotal prices basket at base prices with no promotions applied.
func Subtotal(basket Basket, catalog PriceCatalog) (Money, error) {
	return PriceRemainder(basket, catalog, nil)
}
