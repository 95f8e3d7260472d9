package coupon

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no coupon matches the requested code.
	ErrNotFound = errors.New("coupon not found")
	// ErrInactive is returned when attempting to use a coupon before its active window.
	ErrInactive = errors.New("coupon not active")
	// ErrExpired is returned when the coupon validity window has passed.
	ErrExpired = errors.New("coupon expired")
	// ErrUsageLimitReached indicates the coupon has exhausted its global quota.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	// ErrMinimumSpendUnmet indicates the order subtotal did not meet the coupon requirement.
	ErrMinimumSpendUnmet = errors.New("coupon minimum spend not met")
)

// Kinds understood by the discount computation. KindShipping removes the
// shipping cost instead of discounting the subtotal.
const (
	KindFixed    = "fixed"
	KindPercent  = "percent"
	KindShipping = "shipping"
)

// Rule captures the runtime constraints of a coupon.
type Rule struct {
	Code       string
	Kind       string
	Value      float64
	Percent    float64
	MinSpend   float64
	UsageLimit *int32
	UsedCount  int32
	ValidFrom  *time.Time
	ValidTo    *time.Time
}

// Validate ensures the rule can be applied at the provided instant and subtotal.
func (r Rule) Validate(now time.Time, subtotal float64) error {
	if subtotal < r.MinSpend {
		return ErrMinimumSpendUnmet
	}
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return ErrInactive
	}
	if r.ValidTo != nil && now.After(*r.ValidTo) {
		return ErrExpired
	}
	if r.UsageLimit != nil && *r.UsageLimit >= 0 && r.UsedCount >= *r.UsageLimit {
		return ErrUsageLimitReached
	}
	return nil
}

// Discount determines the monetary discount the rule grants against the
// subtotal. Shipping coupons carry no monetary discount of their own; their
// effect is the free-shipping override applied during summary computation.
func Discount(subtotal float64, r Rule) float64 {
	if subtotal <= 0 {
		return 0
	}
	var discount float64
	switch r.Kind {
	case KindPercent:
		if r.Percent <= 0 {
			return 0
		}
		discount = subtotal * r.Percent / 100
	case KindShipping:
		return 0
	default:
		discount = r.Value
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		return 0
	}
	return discount
}
