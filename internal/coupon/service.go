package coupon

import (
	"context"
	"errors"
	"time"
)

// Queries is the narrow persistence surface the service needs. *Store
// satisfies it; tests provide stubs.
type Queries interface {
	GetByCode(ctx context.Context, code string) (Record, error)
	IncrementUsed(ctx context.Context, code string) error
}

// Applied is the snapshot attached to an order when a coupon is redeemed.
// Discount is fixed at redemption time; later edits to the coupon do not
// retroactively change orders.
type Applied struct {
	Code     string  `json:"code"`
	Kind     string  `json:"kind"`
	Discount float64 `json:"discount"`
}

// Service evaluates and redeems coupons against order subtotals.
type Service struct {
	Q   Queries
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Preview validates the coupon against the subtotal without consuming usage.
func (s *Service) Preview(ctx context.Context, code string, subtotal float64) (Applied, error) {
	if s == nil || s.Q == nil {
		return Applied{}, errors.New("coupon service not configured")
	}
	rec, err := s.Q.GetByCode(ctx, code)
	if err != nil {
		return Applied{}, err
	}
	rule := rec.Rule()
	if err := rule.Validate(s.now(), subtotal); err != nil {
		return Applied{}, err
	}
	return Applied{
		Code:     rec.Code,
		Kind:     rec.Kind,
		Discount: Discount(subtotal, rule),
	}, nil
}

// Redeem validates the coupon and consumes one usage.
func (s *Service) Redeem(ctx context.Context, code string, subtotal float64) (Applied, error) {
	applied, err := s.Preview(ctx, code, subtotal)
	if err != nil {
		return Applied{}, err
	}
	if err := s.Q.IncrementUsed(ctx, code); err != nil {
		return Applied{}, err
	}
	return applied, nil
}
