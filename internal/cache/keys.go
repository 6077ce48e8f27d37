package cache

import (
	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/pricing"
)

// KeyQuote returns the cache key for a priced basket. The rules version is part
// of the key so that reloading the catalog never serves stale totals.
func KeyQuote(rulesVersion string, basket pricing.Basket) string {
	return "quote:" + rulesVersion + ":" + common.Sha256Hex(basket.Canonical())
}
