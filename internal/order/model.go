package order

import (
	"time"

	"github.com/saharat-dev/backend-merchant/internal/pricing"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusSaved    Status = "SAVED"
	StatusCanceled Status = "CANCELED"
)

// rank orders states for admin transitions: a transition is allowed only when
// it moves strictly forward. CANCELED is terminal.
func rank(s Status) int {
	switch s {
	case StatusDraft:
		return 0
	case StatusSaved:
		return 1
	case StatusCanceled:
		return 2
	default:
		return -1
	}
}

// Line is a priced order line. PointsPrice marks a reward item redeemable
// with loyalty points.
type Line struct {
	ProductID   string   `json:"productId,omitempty"`
	Name        string   `json:"name"`
	UnitPrice   float64  `json:"unitPrice"`
	Qty         int      `json:"qty"`
	PointsPrice *float64 `json:"pointsBasedPrice,omitempty"`
}

// AppliedCoupon is the snapshot taken when a coupon code is redeemed against a
// draft. The discount amount is frozen; later item edits do not re-evaluate it.
type AppliedCoupon struct {
	Code     string  `json:"code"`
	Kind     string  `json:"kind"`
	Discount float64 `json:"discount"`
}

// Order is the full order document. Summary carries the derived financial
// fields; it is recomputed and overwritten on every mutation.
type Order struct {
	ID         string                 `json:"id"`
	Status     Status                 `json:"status"`
	Currency   string                 `json:"currency"`
	Items      []Line                 `json:"items"`
	Coupons    []AppliedCoupon        `json:"appliedCoupons"`
	Discount   pricing.DiscountConfig `json:"discount"`
	Tax        pricing.TaxConfig      `json:"tax"`
	Shipping   float64                `json:"shipping"`
	PointsUsed int64                  `json:"loyaltyPointsUsed"`
	Summary    pricing.Summary        `json:"summary"`
	CreatedAt  time.Time              `json:"createdAt"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

// PricingInput converts the document into engine form.
func (o Order) PricingInput(pointsRate float64) pricing.Input {
	items := make([]pricing.Item, 0, len(o.Items))
	for _, l := range o.Items {
		items = append(items, pricing.Item{Price: l.UnitPrice, Qty: l.Qty, PointsPrice: l.PointsPrice})
	}
	coupons := make([]pricing.Coupon, 0, len(o.Coupons))
	for _, c := range o.Coupons {
		coupons = append(coupons, pricing.Coupon{Code: c.Code, Discount: c.Discount, Kind: c.Kind})
	}
	return pricing.Input{
		Items:      items,
		Coupons:    coupons,
		Discount:   o.Discount,
		Tax:        o.Tax,
		Shipping:   o.Shipping,
		PointsUsed: o.PointsUsed,
		PointsRate: pointsRate,
	}
}
