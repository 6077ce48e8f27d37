package catalog

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/pricing"
)

// Item is the public listing of one catalog entry.
type Item struct {
	Code   string   `json:"code"`
	Name   string   `json:"name,omitempty"`
	Price  int64    `json:"price"`
	Offers []string `json:"offers"`
}

// Describe lists every catalog entry in code order with its promotions.
func Describe(rules Rules) []Item {
	set := rules.Set
	offers := make(map[pricing.ItemCode][]string)
	for code, tiers := range set.MultiBuy {
		sorted := append([]pricing.MultiBuyTier(nil), tiers...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Quantity < sorted[j].Quantity })
		for _, tier := range sorted {
			offers[code] = append(offers[code], fmt.Sprintf("%d%s for %d", tier.Quantity, code, tier.BundlePrice))
		}
	}
	for _, rule := range set.FreeItems {
		var label string
		if rule.TriggerCode == rule.GiftCode {
			label = fmt.Sprintf("buy %d%s, %d of them free", rule.TriggerQuantity, rule.TriggerCode, rule.GiftQuantity)
		} else {
			label = fmt.Sprintf("buy %d%s get %d%s free", rule.TriggerQuantity, rule.TriggerCode, rule.GiftQuantity, rule.GiftCode)
		}
		offers[rule.TriggerCode] = append(offers[rule.TriggerCode], label)
	}
	for _, offer := range set.GroupOffers {
		label := fmt.Sprintf("any %d of %v for %d", offer.BundleQuantity, offer.MemberCodes, offer.BundlePrice)
		for _, code := range offer.MemberCodes {
			offers[code] = append(offers[code], label)
		}
	}

	codes := make([]pricing.ItemCode, 0, len(set.Catalog))
	for code := range set.Catalog {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	items := make([]Item, 0, len(codes))
	for _, code := range codes {
		list := offers[code]
		if list == nil {
			list = []string{}
		}
		items = append(items, Item{
			Code:   string(code),
			Name:   rules.Names[code],
			Price:  set.Catalog[code],
			Offers: list,
		})
	}
	return items
}

type versionItem struct {
	Code  pricing.ItemCode       `json:"code"`
	Price pricing.Money          `json:"price"`
	Tiers []pricing.MultiBuyTier `json:"tiers,omitempty"`
}

// Version fingerprints the priced content of rules: currency, catalog and
// tiers in code order, and free-item rules and group offers in declaration
// order, since both stages are order sensitive.
func Version(rules Rules) (string, error) {
	set := rules.Set
	codes := make([]pricing.ItemCode, 0, len(set.Catalog))
	for code := range set.Catalog {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	items := make([]versionItem, 0, len(codes))
	for _, code := range codes {
		tiers := append([]pricing.MultiBuyTier(nil), set.MultiBuy[code]...)
		sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Quantity > tiers[j].Quantity })
		items = append(items, versionItem{Code: code, Price: set.Catalog[code], Tiers: tiers})
	}

	payload, err := json.Marshal(struct {
		Currency    string                       `json:"currency"`
		Items       []versionItem                `json:"items"`
		FreeItems   []pricing.FreeItemRule       `json:"free_items"`
		GroupOffers []pricing.GroupDiscountOffer `json:"group_offers"`
	}{rules.Currency, items, set.FreeItems, set.GroupOffers})
	if err != nil {
		return "", fmt.Errorf("rules version: %w", err)
	}
	return common.Fingerprint(string(payload), 12), nil
}
