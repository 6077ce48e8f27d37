package pricing

// ApplyFreeItemRules returns a copy of basket with gift quantities reduced by the
// free units each rule earns. Rules run in declaration order against the basket
// state left by earlier rules. Trigger counts are never changed and gift counts
// never drop below zero.
func ApplyFreeItemRules(basket Basket, rules []FreeItemRule) Basket {
	out := basket.Clone()
	for _, rule := range rules {
		if rule.TriggerQuantity <= 0 || rule.GiftQuantity <= 0 {
			continue
		}
		triggers := out[rule.TriggerCode]
		if triggers < rule.TriggerQuantity {
			continue
		}
		gifts, ok := out[rule.GiftCode]
		if !ok {
			continue
		}
		free := (triggers / rule.TriggerQuantity) * rule.GiftQuantity
		gifts -= free
		if gifts < 0 {
			gifts = 0
		}
		out[rule.GiftCode] = gifts
	}
	return out
}
