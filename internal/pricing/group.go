package pricing

// ApplyGroupDiscounts bundles units across each offer's member codes. Units are
// removed in the declared member order, so the most expensive units go into the
// bundles and the cheaper ones are left to be priced individually. Offers run in
// order and cannot reuse units consumed by an earlier offer.
func ApplyGroupDiscounts(basket Basket, offers []GroupDiscountOffer) GroupOfferResult {
	remaining := basket.Clone()
	var cost Money
	for _, offer := range offers {
		if offer.BundleQuantity <= 0 {
			continue
		}
		var available int
		for _, code := range offer.MemberCodes {
			if qty := remaining[code]; qty > 0 {
				available += qty
			}
		}
		bundles := available / offer.BundleQuantity
		if bundles == 0 {
			continue
		}
		toRemove := bundles * offer.BundleQuantity
		for _, code := range offer.MemberCodes {
			if toRemove == 0 {
				break
			}
			qty := remaining[code]
			if qty <= 0 {
				continue
			}
			take := min(qty, toRemove)
			remaining[code] = qty - take
			toRemove -= take
		}
		cost += Money(bundles) * offer.BundlePrice
	}
	return GroupOfferResult{Remaining: remaining.compact(), OfferCost: cost}
}
