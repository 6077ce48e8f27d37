package pricing

// ValidateAndParse tallies every character of raw as an item code. Empty input
// yields an empty basket.
func ValidateAndParse(raw string, catalog PriceCatalog) (Basket, error) {
	basket := make(Basket)
	for _, r := range raw {
		code := ItemCode(string(r))
		if _, ok := catalog[code]; !ok {
			return nil, &InvalidItemError{Code: code}
		}
		basket[code]++
	}
	return basket, nil
}

// ValidateTokens is ValidateAndParse for input that is already split into codes.
func ValidateTokens(tokens []string, catalog PriceCatalog) (Basket, error) {
	basket := make(Basket)
	for _, tok := range tokens {
		code := ItemCode(tok)
		if _, ok := catalog[code]; !ok {
			return nil, &InvalidItemError{Code: code}
		}
		basket[code]++
	}
	return basket, nil
}

func checkBasket(basket Basket, catalog PriceCatalog) error {
	for _, code := range basket.Codes() {
		if _, ok := catalog[code]; !ok {
			return &InvalidItemError{Code: code}
		}
		if basket[code] < 0 {
			return ErrInvalidQuantity
		}
	}
	return nil
}
