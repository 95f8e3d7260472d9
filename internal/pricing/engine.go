package pricing

import "math"

// Money represents a monetary value in major currency units.
type Money = float64

// DefaultPointsRate is the loyalty conversion rate (points per currency unit)
// used when store settings are unavailable.
const DefaultPointsRate = 100

// ThaiVATPercent is the fixed regional VAT rate applied for TaxThaiVAT.
const ThaiVATPercent = 7

// DiscountType selects how the order-level discount value is interpreted.
type DiscountType string

const (
	DiscountFixed      DiscountType = "fixed"
	DiscountPercentage DiscountType = "percentage"
)

// TaxType selects the tax calculation mode.
type TaxType string

const (
	TaxPercentage TaxType = "percentage"
	TaxFixed      TaxType = "value"
	TaxThaiVAT    TaxType = "thai-vat"
)

// CouponKindShipping marks a coupon that overrides shipping cost to zero.
const CouponKindShipping = "shipping"

// Item describes a purchased line. PointsPrice, when set, marks the line as a
// reward item redeemable with loyalty points; its monetary price still counts
// toward the order subtotal.
type Item struct {
	Price       Money    `json:"price"`
	Qty         int      `json:"qty"`
	PointsPrice *float64 `json:"pointsBasedPrice,omitempty"`
}

// Reward reports whether the item participates in reward accounting.
func (it Item) Reward() bool { return it.PointsPrice != nil }

// Coupon is a discount already applied to the order. Kinds other than
// "shipping" carry no semantics here; discounts stack unconditionally.
type Coupon struct {
	Code     string `json:"code"`
	Discount Money  `json:"discount"`
	Kind     string `json:"kind,omitempty"`
}

// DiscountConfig is the merchant-entered order-level discount.
type DiscountConfig struct {
	Enabled bool         `json:"enabled"`
	Type    DiscountType `json:"type"`
	Value   float64      `json:"value"`
}

// TaxConfig is the merchant-entered tax section.
type TaxConfig struct {
	Enabled bool    `json:"enabled"`
	Type    TaxType `json:"type"`
	Value   float64 `json:"value"`
}

// Input gathers everything the summary computation reads. The loyalty rate is
// an explicit parameter so callers inject it from settings deterministically.
type Input struct {
	Items      []Item         `json:"items"`
	Coupons    []Coupon       `json:"coupons,omitempty"`
	Discount   DiscountConfig `json:"discount"`
	Tax        TaxConfig      `json:"tax"`
	Shipping   Money          `json:"shipping"`
	PointsUsed int64          `json:"loyaltyPointsUsed"`
	PointsRate float64        `json:"loyaltyPointsRate,omitempty"`
}

// Warning codes surfaced as non-blocking validation messages.
const (
	WarnPointsInsufficient = "points_insufficient"
	WarnPointsExceedsMax   = "points_exceeds_max"
)

// Summary holds every derived quantity of the order financial computation.
// Subtotal, Discount, Shipping, Tax, PointsDiscount and Total are the fields
// persisted back onto the order document.
type Summary struct {
	Subtotal           Money    `json:"subtotal"`
	CalculatedDiscount Money    `json:"calculatedDiscount"`
	CouponDiscount     Money    `json:"couponDiscount"`
	Discount           Money    `json:"discount"`
	FreeShipping       bool     `json:"freeShipping"`
	Shipping           Money    `json:"shipping"`
	PointsRequired     float64  `json:"pointsRequired"`
	RewardItemValue    Money    `json:"rewardItemValue"`
	StandardTotal      Money    `json:"standardTotal"`
	AfterDiscountTotal Money    `json:"afterDiscountTotal"`
	PointsDiscount     Money    `json:"pointsDiscount"`
	MoneyRequired      Money    `json:"moneyRequired"`
	MaxPointsAllowed   float64  `json:"maxPointsAllowed"`
	Tax                Money    `json:"tax"`
	Total              Money    `json:"total"`
	TotalDiscount      Money    `json:"totalDiscount"`
	ValidPointsUsage   bool     `json:"validPointsUsage"`
	Warnings           []string `json:"warnings,omitempty"`
}

// Compute derives the full financial summary for an order draft. It is a pure
// function: identical inputs always produce identical outputs, so callers may
// re-run it after every mutation and overwrite the derived fields.
func Compute(in Input) Summary {
	rate := in.PointsRate
	if rate <= 0 {
		rate = DefaultPointsRate
	}

	var s Summary
	for _, it := range in.Items {
		if it.Qty <= 0 {
			continue
		}
		line := it.Price * float64(it.Qty)
		s.Subtotal += line
		if it.Reward() {
			s.PointsRequired += *it.PointsPrice * float64(it.Qty)
			s.RewardItemValue += line
		} else {
			s.StandardTotal += line
		}
	}

	s.CalculatedDiscount = discountAmount(s.Subtotal, in.Discount)
	s.CouponDiscount, s.FreeShipping = aggregateCoupons(in.Coupons)
	s.Discount = s.CalculatedDiscount + s.CouponDiscount

	s.Shipping = in.Shipping
	if s.FreeShipping {
		s.Shipping = 0
	}

	s.AfterDiscountTotal = math.Max(0, s.Subtotal-s.CalculatedDiscount-s.CouponDiscount)

	// Apportion the discounted total down to the standard-item share,
	// proportional to its share of the undiscounted subtotal.
	var afterDiscountStandard Money
	if s.Subtotal > 0 {
		afterDiscountStandard = math.Max(0, s.StandardTotal*(s.AfterDiscountTotal/s.Subtotal))
	}

	used := float64(in.PointsUsed)
	s.ValidPointsUsage = used == 0 || used >= s.PointsRequired
	if used >= s.PointsRequired {
		remaining := used - s.PointsRequired
		standardPointsDiscount := math.Min(afterDiscountStandard, remaining/rate)
		s.PointsDiscount = s.RewardItemValue + standardPointsDiscount
		s.MoneyRequired = s.AfterDiscountTotal - s.PointsDiscount
	} else {
		s.MoneyRequired = s.AfterDiscountTotal
	}
	s.MaxPointsAllowed = s.PointsRequired + (s.StandardTotal-s.CalculatedDiscount)*rate

	if !s.ValidPointsUsage {
		s.Warnings = append(s.Warnings, WarnPointsInsufficient)
	}
	if used > s.MaxPointsAllowed {
		s.Warnings = append(s.Warnings, WarnPointsExceedsMax)
	}

	// The tax base intentionally ignores coupon and points discounts; the
	// original dashboard computes it this way and product has not signed off
	// on changing it.
	s.Tax = taxAmount(s.Subtotal-s.CalculatedDiscount+s.Shipping, in.Tax)

	money := s.MoneyRequired
	if math.IsNaN(money) {
		money = 0
	}
	s.Total = money + s.Shipping
	s.TotalDiscount = s.PointsDiscount + s.CouponDiscount + s.CalculatedDiscount

	return sanitize(s)
}

func discountAmount(subtotal Money, cfg DiscountConfig) Money {
	if !cfg.Enabled {
		return 0
	}
	switch cfg.Type {
	case DiscountPercentage:
		return subtotal * cfg.Value / 100
	case DiscountFixed:
		return cfg.Value
	default:
		return 0
	}
}

func aggregateCoupons(coupons []Coupon) (total Money, freeShipping bool) {
	for _, c := range coupons {
		total += c.Discount
		if c.Kind == CouponKindShipping {
			freeShipping = true
		}
	}
	return total, freeShipping
}

func taxAmount(base Money, cfg TaxConfig) Money {
	if !cfg.Enabled {
		return 0
	}
	switch cfg.Type {
	case TaxPercentage:
		return base * cfg.Value / 100
	case TaxThaiVAT:
		return base * ThaiVATPercent / 100
	case TaxFixed:
		return cfg.Value
	default:
		return 0
	}
}

// sanitize replaces NaN in every derived field with zero so malformed input
// can never leak NaN into persisted state.
func sanitize(s Summary) Summary {
	for _, f := range []*Money{
		&s.Subtotal, &s.CalculatedDiscount, &s.CouponDiscount, &s.Discount,
		&s.Shipping, &s.RewardItemValue, &s.StandardTotal, &s.AfterDiscountTotal,
		&s.PointsDiscount, &s.MoneyRequired, &s.Tax, &s.Total, &s.TotalDiscount,
	} {
		if math.IsNaN(*f) {
			*f = 0
		}
	}
	if math.IsNaN(s.PointsRequired) {
		s.PointsRequired = 0
	}
	if math.IsNaN(s.MaxPointsAllowed) {
		s.MaxPointsAllowed = 0
	}
	return s
}
