package pricing

import (
	"math"
	"reflect"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s: got %v, want %v", name, got, want)
	}
}

func TestPlainOrder(t *testing.T) {
	s := Compute(Input{
		Items:    []Item{{Price: 10, Qty: 2}},
		Shipping: 5,
	})
	approx(t, "subtotal", s.Subtotal, 20)
	approx(t, "discount", s.Discount, 0)
	approx(t, "tax", s.Tax, 0)
	approx(t, "total", s.Total, 25)
	if !s.ValidPointsUsage {
		t.Fatal("zero points must always be valid usage")
	}
	if len(s.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", s.Warnings)
	}
}

func TestPercentageDiscount(t *testing.T) {
	s := Compute(Input{
		Items:    []Item{{Price: 100, Qty: 1}},
		Discount: DiscountConfig{Enabled: true, Type: DiscountPercentage, Value: 10},
	})
	approx(t, "calculatedDiscount", s.CalculatedDiscount, 10)
	approx(t, "afterDiscountTotal", s.AfterDiscountTotal, 90)
}

func TestFixedDiscount(t *testing.T) {
	s := Compute(Input{
		Items:    []Item{{Price: 40, Qty: 2}},
		Discount: DiscountConfig{Enabled: true, Type: DiscountFixed, Value: 15},
	})
	approx(t, "calculatedDiscount", s.CalculatedDiscount, 15)
}

func TestDisabledDiscountComputesZero(t *testing.T) {
	s := Compute(Input{
		Items:    []Item{{Price: 100, Qty: 1}},
		Discount: DiscountConfig{Enabled: false, Type: DiscountPercentage, Value: 50},
	})
	approx(t, "calculatedDiscount", s.CalculatedDiscount, 0)
}

func TestDiscountFloor(t *testing.T) {
	s := Compute(Input{
		Items:    []Item{{Price: 30, Qty: 1}},
		Discount: DiscountConfig{Enabled: true, Type: DiscountFixed, Value: 100},
		Coupons:  []Coupon{{Code: "EXTRA", Discount: 50}},
	})
	approx(t, "afterDiscountTotal", s.AfterDiscountTotal, 0)
	approx(t, "moneyRequired", s.MoneyRequired, 0)
	approx(t, "total", s.Total, 0)
}

func TestCouponsStackUnconditionally(t *testing.T) {
	s := Compute(Input{
		Items: []Item{{Price: 100, Qty: 1}},
		Coupons: []Coupon{
			{Code: "A", Discount: 10},
			{Code: "A", Discount: 10},
			{Code: "B", Discount: 5},
		},
	})
	approx(t, "couponDiscount", s.CouponDiscount, 25)
}

func TestFreeShippingCouponOverridesShipping(t *testing.T) {
	s := Compute(Input{
		Items:    []Item{{Price: 10, Qty: 1}},
		Shipping: 45,
		Coupons:  []Coupon{{Code: "FREESHIP", Kind: CouponKindShipping}},
	})
	if !s.FreeShipping {
		t.Fatal("expected free shipping flag")
	}
	approx(t, "shipping", s.Shipping, 0)
	approx(t, "total", s.Total, 10)
}

func TestRewardItemFullyCovered(t *testing.T) {
	s := Compute(Input{
		Items:      []Item{{Price: 50, Qty: 1, PointsPrice: ptr(500)}},
		Shipping:   5,
		PointsUsed: 500,
	})
	approx(t, "pointsRequired", s.PointsRequired, 500)
	approx(t, "rewardItemValue", s.RewardItemValue, 50)
	approx(t, "pointsDiscount", s.PointsDiscount, 50)
	approx(t, "moneyRequired", s.MoneyRequired, 0)
	approx(t, "total", s.Total, 5)
	if !s.ValidPointsUsage {
		t.Fatal("expected valid points usage")
	}
}

func TestInsufficientPoints(t *testing.T) {
	s := Compute(Input{
		Items:      []Item{{Price: 50, Qty: 1, PointsPrice: ptr(500)}},
		Shipping:   5,
		PointsUsed: 400,
	})
	if s.ValidPointsUsage {
		t.Fatal("expected invalid points usage")
	}
	approx(t, "pointsDiscount", s.PointsDiscount, 0)
	approx(t, "moneyRequired", s.MoneyRequired, 50)
	approx(t, "total", s.Total, 55)
	if !hasWarning(s, WarnPointsInsufficient) {
		t.Fatalf("expected %s warning, got %v", WarnPointsInsufficient, s.Warnings)
	}
}

func TestPointsSufficiencyBoundary(t *testing.T) {
	base := Input{Items: []Item{{Price: 50, Qty: 1, PointsPrice: ptr(500)}}}

	base.PointsUsed = 500
	if s := Compute(base); !s.ValidPointsUsage {
		t.Fatal("used == required must be valid")
	}
	base.PointsUsed = 499
	if s := Compute(base); s.ValidPointsUsage {
		t.Fatal("used == required-1 must be invalid")
	}
	base.PointsUsed = 0
	if s := Compute(base); !s.ValidPointsUsage {
		t.Fatal("zero points must be valid regardless of requirement")
	}
}

func TestExcessPointsBuyDownStandardItems(t *testing.T) {
	// One reward item (500 pts, worth 50) plus a standard item worth 100.
	// 2500 excess points at the default rate (100 pts/unit) convert to 25.
	s := Compute(Input{
		Items: []Item{
			{Price: 50, Qty: 1, PointsPrice: ptr(500)},
			{Price: 100, Qty: 1},
		},
		PointsUsed: 3000,
	})
	approx(t, "pointsRequired", s.PointsRequired, 500)
	approx(t, "afterDiscountTotal", s.AfterDiscountTotal, 150)
	approx(t, "pointsDiscount", s.PointsDiscount, 75)
	approx(t, "moneyRequired", s.MoneyRequired, 75)
	approx(t, "maxPointsAllowed", s.MaxPointsAllowed, 500+100*100)
}

func TestStandardPointsDiscountCapped(t *testing.T) {
	// Excess points worth more than the standard share cannot push the
	// standard-item total below zero.
	s := Compute(Input{
		Items: []Item{
			{Price: 50, Qty: 1, PointsPrice: ptr(500)},
			{Price: 10, Qty: 1},
		},
		PointsUsed: 100_000,
	})
	approx(t, "pointsDiscount", s.PointsDiscount, 60)
	approx(t, "moneyRequired", s.MoneyRequired, 0)
	if !hasWarning(s, WarnPointsExceedsMax) {
		t.Fatalf("expected %s warning, got %v", WarnPointsExceedsMax, s.Warnings)
	}
}

func TestCustomPointsRate(t *testing.T) {
	s := Compute(Input{
		Items:      []Item{{Price: 100, Qty: 1}},
		PointsUsed: 500,
		PointsRate: 10,
	})
	approx(t, "pointsDiscount", s.PointsDiscount, 50)
	approx(t, "moneyRequired", s.MoneyRequired, 50)
}

func TestTaxPercentage(t *testing.T) {
	s := Compute(Input{
		Items: []Item{{Price: 100, Qty: 1}},
		Tax:   TaxConfig{Enabled: true, Type: TaxPercentage, Value: 10},
	})
	approx(t, "tax", s.Tax, 10)
}

func TestTaxFixedIgnoresBase(t *testing.T) {
	s := Compute(Input{
		Items: []Item{{Price: 100, Qty: 1}},
		Tax:   TaxConfig{Enabled: true, Type: TaxFixed, Value: 12.5},
	})
	approx(t, "tax", s.Tax, 12.5)
}

func TestThaiVAT(t *testing.T) {
	s := Compute(Input{
		Items:    []Item{{Price: 100, Qty: 1}},
		Shipping: 7,
		Tax:      TaxConfig{Enabled: true, Type: TaxThaiVAT},
	})
	approx(t, "tax", s.Tax, 7.49)
}

func TestThaiVATIgnoresValue(t *testing.T) {
	base := Input{
		Items: []Item{{Price: 100, Qty: 1}},
		Tax:   TaxConfig{Enabled: true, Type: TaxThaiVAT, Value: 99},
	}
	withValue := Compute(base)
	base.Tax.Value = 0
	withoutValue := Compute(base)
	approx(t, "tax", withValue.Tax, withoutValue.Tax)
	approx(t, "tax", withValue.Tax, 7)
}

func TestTaxBaseIgnoresCouponDiscount(t *testing.T) {
	// Tax applies to subtotal - calculatedDiscount + shipping, before coupon
	// and points discounts are subtracted.
	s := Compute(Input{
		Items:   []Item{{Price: 100, Qty: 1}},
		Coupons: []Coupon{{Code: "X", Discount: 50}},
		Tax:     TaxConfig{Enabled: true, Type: TaxPercentage, Value: 10},
	})
	approx(t, "tax", s.Tax, 10)
}

func TestDisabledTaxComputesZero(t *testing.T) {
	s := Compute(Input{
		Items: []Item{{Price: 100, Qty: 1}},
		Tax:   TaxConfig{Enabled: false, Type: TaxThaiVAT},
	})
	approx(t, "tax", s.Tax, 0)
}

func TestEmptyOrderHasNoNaN(t *testing.T) {
	s := Compute(Input{PointsUsed: 0})
	approx(t, "subtotal", s.Subtotal, 0)
	approx(t, "total", s.Total, 0)
	approx(t, "moneyRequired", s.MoneyRequired, 0)
	if math.IsNaN(s.PointsDiscount) || math.IsNaN(s.MaxPointsAllowed) {
		t.Fatal("derived fields must never carry NaN")
	}
}

func TestZeroQtyLinesIgnored(t *testing.T) {
	s := Compute(Input{Items: []Item{{Price: 10, Qty: 0}, {Price: 10, Qty: -3}}})
	approx(t, "subtotal", s.Subtotal, 0)
}

func TestIdempotence(t *testing.T) {
	in := Input{
		Items: []Item{
			{Price: 50, Qty: 2, PointsPrice: ptr(500)},
			{Price: 30, Qty: 1},
		},
		Coupons:    []Coupon{{Code: "TEN", Discount: 10}, {Code: "SHIP", Kind: CouponKindShipping}},
		Discount:   DiscountConfig{Enabled: true, Type: DiscountPercentage, Value: 5},
		Tax:        TaxConfig{Enabled: true, Type: TaxThaiVAT},
		Shipping:   20,
		PointsUsed: 1200,
		PointsRate: 50,
	}
	first := Compute(in)
	second := Compute(in)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("computation is not idempotent:\n%+v\n%+v", first, second)
	}
}

func hasWarning(s Summary, code string) bool {
	for _, w := range s.Warnings {
		if w == code {
			return true
		}
	}
	return false
}
