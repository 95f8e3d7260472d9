package coupon

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubQueries struct {
	rec         Record
	err         error
	redemptions int
}

func (s *stubQueries) GetByCode(ctx context.Context, code string) (Record, error) {
	if s.err != nil {
		return Record{}, s.err
	}
	if s.rec.Code != code {
		return Record{}, ErrNotFound
	}
	return s.rec, nil
}

func (s *stubQueries) IncrementUsed(ctx context.Context, code string) error {
	s.redemptions++
	return nil
}

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestPreviewComputesDiscount(t *testing.T) {
	q := &stubQueries{rec: Record{Code: "TEN", Kind: KindPercent, Percent: 10}}
	svc := &Service{Q: q, Now: fixedClock}

	applied, err := svc.Preview(context.Background(), "TEN", 250)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied.Discount != 25 {
		t.Fatalf("expected 25 discount, got %v", applied.Discount)
	}
	if q.redemptions != 0 {
		t.Fatal("preview must not consume usage")
	}
}

func TestRedeemConsumesUsage(t *testing.T) {
	q := &stubQueries{rec: Record{Code: "FLAT", Kind: KindFixed, Value: 30}}
	svc := &Service{Q: q, Now: fixedClock}

	applied, err := svc.Redeem(context.Background(), "FLAT", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied.Discount != 30 {
		t.Fatalf("expected 30 discount, got %v", applied.Discount)
	}
	if q.redemptions != 1 {
		t.Fatalf("expected one redemption, got %d", q.redemptions)
	}
}

func TestRedeemRejectsExpired(t *testing.T) {
	past := fixedClock().Add(-time.Hour)
	q := &stubQueries{rec: Record{Code: "OLD", Kind: KindFixed, Value: 5, ValidTo: &past}}
	svc := &Service{Q: q, Now: fixedClock}

	_, err := svc.Redeem(context.Background(), "OLD", 100)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if q.redemptions != 0 {
		t.Fatal("invalid coupons must not consume usage")
	}
}

func TestPreviewUnknownCode(t *testing.T) {
	svc := &Service{Q: &stubQueries{}, Now: fixedClock}
	_, err := svc.Preview(context.Background(), "NOPE", 100)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
