package pricing

import "sort"

// RuleSet is the full pricing configuration handed to an Engine.
type RuleSet struct {
	Catalog     PriceCatalog
	MultiBuy    map[ItemCode][]MultiBuyTier
	FreeItems   []FreeItemRule
	GroupOffers []GroupDiscountOffer
}

// Clone returns a deep copy of the rule set.
func (rs RuleSet) Clone() RuleSet {
	out := RuleSet{
		Catalog:     make(PriceCatalog, len(rs.Catalog)),
		MultiBuy:    make(map[ItemCode][]MultiBuyTier, len(rs.MultiBuy)),
		FreeItems:   append([]FreeItemRule(nil), rs.FreeItems...),
		GroupOffers: make([]GroupDiscountOffer, 0, len(rs.GroupOffers)),
	}
	for code, price := range rs.Catalog {
		out.Catalog[code] = price
	}
	for code, tiers := range rs.MultiBuy {
		out.MultiBuy[code] = append([]MultiBuyTier(nil), tiers...)
	}
	for _, offer := range rs.GroupOffers {
		offer.MemberCodes = append([]ItemCode(nil), offer.MemberCodes...)
		out.GroupOffers = append(out.GroupOffers, offer)
	}
	return out
}

// Validate checks the rule set against the catalog. Group offer members must be
// declared in non-increasing price order; the engine relies on that order when
// it fills bundles.
func (rs RuleSet) Validate() error {
	if len(rs.Catalog) == 0 {
		return ruleErrorf("catalog is empty")
	}
	for _, code := range sortedCatalogCodes(rs.Catalog) {
		if code == "" {
			return ruleErrorf("catalog contains an empty item code")
		}
		if rs.Catalog[code] < 0 {
			return ruleErrorf("item %s has negative price %d", code, rs.Catalog[code])
		}
	}
	if err := rs.validateMultiBuy(); err != nil {
		return err
	}
	if err := rs.validateFreeItems(); err != nil {
		return err
	}
	return rs.validateGroupOffers()
}

func (rs RuleSet) validateMultiBuy() error {
	codes := make([]ItemCode, 0, len(rs.MultiBuy))
	for code := range rs.MultiBuy {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	for _, code := range codes {
		if _, ok := rs.Catalog[code]; !ok {
			return ruleErrorf("multi-buy tiers reference unknown item %s", code)
		}
		seen := make(map[int]struct{}, len(rs.MultiBuy[code]))
		for _, tier := range rs.MultiBuy[code] {
			if tier.Quantity < 1 {
				return ruleErrorf("item %s has tier quantity %d", code, tier.Quantity)
			}
			if tier.BundlePrice < 0 {
				return ruleErrorf("item %s has negative bundle price %d", code, tier.BundlePrice)
			}
			if _, dup := seen[tier.Quantity]; dup {
				return ruleErrorf("item %s declares tier quantity %d twice", code, tier.Quantity)
			}
			seen[tier.Quantity] = struct{}{}
		}
	}
	return nil
}

func (rs RuleSet) validateFreeItems() error {
	edges := make(map[ItemCode][]ItemCode)
	for i, rule := range rs.FreeItems {
		if _, ok := rs.Catalog[rule.TriggerCode]; !ok {
			return ruleErrorf("free-item rule %d references unknown trigger %s", i, rule.TriggerCode)
		}
		if _, ok := rs.Catalog[rule.GiftCode]; !ok {
			return ruleErrorf("free-item rule %d references unknown gift %s", i, rule.GiftCode)
		}
		if rule.TriggerQuantity < 1 || rule.GiftQuantity < 1 {
			return ruleErrorf("free-item rule %d needs positive quantities", i)
		}
		if rule.TriggerCode != rule.GiftCode {
			edges[rule.TriggerCode] = append(edges[rule.TriggerCode], rule.GiftCode)
		}
	}
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[ItemCode]int, len(edges))
	var visit func(code ItemCode) bool
	visit = func(code ItemCode) bool {
		switch state[code] {
		case visiting:
			return false
		case done:
			return true
		}
		state[code] = visiting
		for _, next := range edges[code] {
			if !visit(next) {
				return false
			}
		}
		state[code] = done
		return true
	}
	for _, rule := range rs.FreeItems {
		if !visit(rule.TriggerCode) {
			return ruleErrorf("free-item rules form a cycle through %s", rule.TriggerCode)
		}
	}
	return nil
}

func (rs RuleSet) validateGroupOffers() error {
	for i, offer := range rs.GroupOffers {
		if offer.BundleQuantity < 1 {
			return ruleErrorf("group offer %d has bundle quantity %d", i, offer.BundleQuantity)
		}
		if offer.BundlePrice < 0 {
			return ruleErrorf("group offer %d has negative bundle price", i)
		}
		if len(offer.MemberCodes) == 0 {
			return ruleErrorf("group offer %d has no members", i)
		}
		seen := make(map[ItemCode]struct{}, len(offer.MemberCodes))
		for j, code := range offer.MemberCodes {
			price, ok := rs.Catalog[code]
			if !ok {
				return ruleErrorf("group offer %d references unknown item %s", i, code)
			}
			if _, dup := seen[code]; dup {
				return ruleErrorf("group offer %d lists %s twice", i, code)
			}
			seen[code] = struct{}{}
			if j > 0 && price > rs.Catalog[offer.MemberCodes[j-1]] {
				return ruleErrorf("group offer %d members are not ordered by descending price (%s after %s)", i, code, offer.MemberCodes[j-1])
			}
		}
	}
	return nil
}

// normalize sorts each tier list by quantity descending.
func (rs RuleSet) normalize() RuleSet {
	out := rs.Clone()
	for code, tiers := range out.MultiBuy {
		sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Quantity > tiers[j].Quantity })
		out.MultiBuy[code] = tiers
	}
	return out
}

func sortedCatalogCodes(c PriceCatalog) []ItemCode {
	codes := make([]ItemCode, 0, len(c))
	for code := range c {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// DefaultRuleSet returns the stock A–Z catalog and its promotions.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Catalog: PriceCatalog{
			"A": 50, "B": 30, "C": 20, "D": 15, "E": 40, "F": 10, "G": 20,
			"H": 10, "I": 35, "J": 60, "K": 70, "L": 90, "M": 15, "N": 40,
			"O": 10, "P": 50, "Q": 30, "R": 50, "S": 20, "T": 20, "U": 40,
			"V": 50, "W": 20, "X": 17, "Y": 20, "Z": 21,
		},
		MultiBuy: map[ItemCode][]MultiBuyTier{
			"A": {{Quantity: 5, BundlePrice: 200}, {Quantity: 3, BundlePrice: 130}},
			"B": {{Quantity: 2, BundlePrice: 45}},
			"H": {{Quantity: 10, BundlePrice: 80}, {Quantity: 5, BundlePrice: 45}},
			"K": {{Quantity: 2, BundlePrice: 120}},
			"P": {{Quantity: 5, BundlePrice: 200}},
			"Q": {{Quantity: 3, BundlePrice: 80}},
			"V": {{Quantity: 3, BundlePrice: 130}, {Quantity: 2, BundlePrice: 90}},
		},
		FreeItems: []FreeItemRule{
			{TriggerCode: "E", TriggerQuantity: 2, GiftCode: "B", GiftQuantity: 1},
			{TriggerCode: "F", TriggerQuantity: 3, GiftCode: "F", GiftQuantity: 1},
			{TriggerCode: "N", TriggerQuantity: 3, GiftCode: "M", GiftQuantity: 1},
			{TriggerCode: "R", TriggerQuantity: 3, GiftCode: "Q", GiftQuantity: 1},
			{TriggerCode: "U", TriggerQuantity: 4, GiftCode: "U", GiftQuantity: 1},
		},
		GroupOffers: []GroupDiscountOffer{
			{MemberCodes: []ItemCode{"Z", "S", "T", "Y", "X"}, BundleQuantity: 3, BundlePrice: 45},
		},
	}
}
