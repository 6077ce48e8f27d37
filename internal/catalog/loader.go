package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/toko-checkout/internal/pricing"
)

// Document is the on-disk representation of a pricing rule set.
type Document struct {
	Currency    string          `yaml:"currency"`
	Items       []ItemDoc       `yaml:"items" validate:"required,min=1,dive"`
	FreeItems   []FreeItemDoc   `yaml:"free_items" validate:"dive"`
	GroupOffers []GroupOfferDoc `yaml:"group_offers" validate:"dive"`
}

// ItemDoc declares a catalog entry and its multi-buy tiers.
type ItemDoc struct {
	Code     string    `yaml:"code" validate:"required"`
	Name     string    `yaml:"name"`
	Price    int64     `yaml:"price" validate:"gte=0"`
	MultiBuy []TierDoc `yaml:"multi_buy" validate:"dive"`
}

// TierDoc declares one "buy quantity for price" tier.
type TierDoc struct {
	Quantity int   `yaml:"quantity" validate:"gte=1"`
	Price    int64 `yaml:"price" validate:"gte=0"`
}

// FreeItemDoc declares a "buy N get M free" rule.
type FreeItemDoc struct {
	Trigger         string `yaml:"trigger" validate:"required"`
	TriggerQuantity int    `yaml:"trigger_quantity" validate:"gte=1"`
	Gift            string `yaml:"gift" validate:"required"`
	GiftQuantity    int    `yaml:"gift_quantity" validate:"gte=1"`
}

// GroupOfferDoc declares a cross-item bundle. Members are listed from the most
// to the least expensive.
type GroupOfferDoc struct {
	Members  []string `yaml:"members" validate:"required,min=1,dive,required"`
	Quantity int      `yaml:"quantity" validate:"gte=1"`
	Price    int64    `yaml:"price" validate:"gte=0"`
}

// Rules is a loaded rule set together with display metadata.
type Rules struct {
	Set      pricing.RuleSet
	Names    map[pricing.ItemCode]string
	Currency string
	Source   string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the built-in rule set.
func Default() Rules {
	return Rules{Set: pricing.DefaultRuleSet(), Currency: "GBP", Source: "builtin"}
}

// LoadFile reads a YAML rule document from path. An empty path selects the
// built-in rules.
func LoadFile(path string) (Rules, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules: %w", err)
	}
	rules, err := Parse(data)
	if err != nil {
		return Rules{}, fmt.Errorf("parse rules %s: %w", path, err)
	}
	rules.Source = path
	return rules, nil
}

// Parse decodes and validates a YAML rule document.
func Parse(data []byte) (Rules, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return Rules{}, fmt.Errorf("decode yaml: %w", err)
	}
	if err := validate.Struct(doc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return Rules{}, fmt.Errorf("%w: %s", pricing.ErrInvalidRule, describeValidation(verrs))
		}
		return Rules{}, err
	}
	return doc.toRules()
}

func (d Document) toRules() (Rules, error) {
	set := pricing.RuleSet{
		Catalog:  make(pricing.PriceCatalog, len(d.Items)),
		MultiBuy: make(map[pricing.ItemCode][]pricing.MultiBuyTier),
	}
	names := make(map[pricing.ItemCode]string, len(d.Items))
	for _, item := range d.Items {
		code := pricing.ItemCode(strings.TrimSpace(item.Code))
		if _, dup := set.Catalog[code]; dup {
			return Rules{}, fmt.Errorf("%w: item %s declared twice", pricing.ErrInvalidRule, code)
		}
		set.Catalog[code] = item.Price
		if item.Name != "" {
			names[code] = item.Name
		}
		for _, tier := range item.MultiBuy {
			set.MultiBuy[code] = append(set.MultiBuy[code], pricing.MultiBuyTier{Quantity: tier.Quantity, BundlePrice: tier.Price})
		}
	}
	for _, rule := range d.FreeItems {
		set.FreeItems = append(set.FreeItems, pricing.FreeItemRule{
			TriggerCode:     pricing.ItemCode(strings.TrimSpace(rule.Trigger)),
			TriggerQuantity: rule.TriggerQuantity,
			GiftCode:        pricing.ItemCode(strings.TrimSpace(rule.Gift)),
			GiftQuantity:    rule.GiftQuantity,
		})
	}
	for _, offer := range d.GroupOffers {
		members := make([]pricing.ItemCode, 0, len(offer.Members))
		for _, m := range offer.Members {
			members = append(members, pricing.ItemCode(strings.TrimSpace(m)))
		}
		set.GroupOffers = append(set.GroupOffers, pricing.GroupDiscountOffer{
			MemberCodes:    members,
			BundleQuantity: offer.Quantity,
			BundlePrice:    offer.Price,
		})
	}
	if err := set.Validate(); err != nil {
		return Rules{}, err
	}
	currency := strings.ToUpper(strings.TrimSpace(d.Currency))
	if currency == "" {
		currency = "GBP"
	}
	return Rules{Set: set, Names: names, Currency: currency}, nil
}

func describeValidation(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
