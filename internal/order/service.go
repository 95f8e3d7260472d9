package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/saharat-dev/backend-merchant/internal/catalog"
	"github.com/saharat-dev/backend-merchant/internal/coupon"
	"github.com/saharat-dev/backend-merchant/internal/events"
	"github.com/saharat-dev/backend-merchant/internal/lock"
	"github.com/saharat-dev/backend-merchant/internal/obs"
	"github.com/saharat-dev/backend-merchant/internal/pricing"
	"github.com/saharat-dev/backend-merchant/internal/settings"
)

var (
	// ErrNotDraft is returned when a mutation targets a finalized order.
	ErrNotDraft = errors.New("order is not a draft")
	// ErrCouponApplied is returned when a coupon code is already on the order.
	ErrCouponApplied = errors.New("coupon already applied")
	// ErrTotalMismatch is returned when the client-submitted total disagrees
	// with the server-side computation at save time.
	ErrTotalMismatch = errors.New("submitted total does not match computed total")
)

// totalTolerance absorbs float formatting drift between client and server.
const totalTolerance = 0.01

// Repo is the persistence surface for order documents.
type Repo interface {
	Create(ctx context.Context, o Order) (Order, error)
	Get(ctx context.Context, id string) (Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, int, error)
	Update(ctx context.Context, o Order) (Order, error)
	SetStatus(ctx context.Context, id string, to Status, allowedFrom ...Status) (Order, error)
}

// CouponRedeemer validates and consumes coupon codes.
type CouponRedeemer interface {
	Redeem(ctx context.Context, code string, subtotal float64) (coupon.Applied, error)
}

// ProductSource resolves catalog products for line items.
type ProductSource interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
}

// SettingsSource supplies the loyalty conversion rate.
type SettingsSource interface {
	Get(ctx context.Context) settings.Settings
}

// Publisher emits domain events after lifecycle transitions.
type Publisher interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

// LineInput is one requested order line. When ProductID is set the unit price,
// name, and points price are resolved from the catalog and client-sent values
// are ignored.
type LineInput struct {
	ProductID   string   `json:"productId"`
	Name        string   `json:"name"`
	UnitPrice   float64  `json:"unitPrice" validate:"gte=0"`
	Qty         int      `json:"qty" validate:"gte=1"`
	PointsPrice *float64 `json:"pointsBasedPrice" validate:"omitempty,gt=0"`
}

// CreateInput is the payload for drafting an order.
type CreateInput struct {
	Currency string      `json:"currency" validate:"omitempty,len=3"`
	Items    []LineInput `json:"items" validate:"dive"`
}

// PricingPatch updates the merchant-editable pricing sections. Nil fields are
// left untouched.
type PricingPatch struct {
	Discount   *pricing.DiscountConfig `json:"discount"`
	Tax        *pricing.TaxConfig      `json:"tax"`
	Shipping   *float64                `json:"shipping" validate:"omitempty,gte=0"`
	PointsUsed *int64                  `json:"loyaltyPointsUsed" validate:"omitempty,gte=0"`
}

// SaveInput finalizes a draft. ExpectedTotal, when set, is checked against the
// recomputed total before the order is persisted as SAVED.
type SaveInput struct {
	ExpectedTotal *float64 `json:"expectedTotal"`
}

// Service owns the order lifecycle. Every mutation recomputes the financial
// summary with the current loyalty rate and persists the derived fields.
type Service struct {
	Repo     Repo
	Coupons  CouponRedeemer
	Products ProductSource
	Settings SettingsSource
	Bus      Publisher
	Locker   *lock.Locker
	Metrics  *obs.PricingMetrics
	Currency string
	Log      zerolog.Logger
}

// withLock serializes read-modify-write mutations per order when a locker is
// configured. Without one, mutations race last-writer-wins.
func (s *Service) withLock(ctx context.Context, id string, fn func(context.Context) (Order, error)) (Order, error) {
	if s.Locker == nil {
		return fn(ctx)
	}
	var out Order
	err := s.Locker.WithLock(ctx, "lock:order:"+id, 10*time.Second, func(ctx context.Context) error {
		var fnErr error
		out, fnErr = fn(ctx)
		return fnErr
	})
	return out, err
}

// Create drafts a new order from the given lines.
func (s *Service) Create(ctx context.Context, in CreateInput) (Order, error) {
	if s == nil || s.Repo == nil {
		return Order{}, errors.New("order repo not configured")
	}
	lines, err := s.resolveLines(ctx, in.Items)
	if err != nil {
		return Order{}, err
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.Currency
	}
	if currency == "" {
		currency = "THB"
	}
	o := Order{
		Status:   StatusDraft,
		Currency: currency,
		Items:    lines,
		Coupons:  []AppliedCoupon{},
	}
	s.recompute(ctx, &o, "create")
	created, err := s.Repo.Create(ctx, o)
	if err != nil {
		return Order{}, err
	}
	s.emit(ctx, events.TopicOrderCreated, created)
	return created, nil
}

// Get loads one order.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	return s.Repo.Get(ctx, id)
}

// List returns orders with the unpaginated total.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Order, int, error) {
	return s.Repo.List(ctx, f)
}

// ReplaceItems swaps the full line set of a draft and recomputes.
func (s *Service) ReplaceItems(ctx context.Context, id string, items []LineInput) (Order, error) {
	return s.withLock(ctx, id, func(ctx context.Context) (Order, error) {
		o, err := s.draft(ctx, id)
		if err != nil {
			return Order{}, err
		}
		lines, err := s.resolveLines(ctx, items)
		if err != nil {
			return Order{}, err
		}
		o.Items = lines
		s.recompute(ctx, &o, "items")
		return s.Repo.Update(ctx, o)
	})
}

// UpdatePricing patches the discount, tax, shipping, or points sections of a
// draft and recomputes.
func (s *Service) UpdatePricing(ctx context.Context, id string, patch PricingPatch) (Order, error) {
	return s.withLock(ctx, id, func(ctx context.Context) (Order, error) {
		o, err := s.draft(ctx, id)
		if err != nil {
			return Order{}, err
		}
		if patch.Discount != nil {
			o.Discount = *patch.Discount
		}
		if patch.Tax != nil {
			o.Tax = *patch.Tax
		}
		if patch.Shipping != nil {
			o.Shipping = *patch.Shipping
		}
		if patch.PointsUsed != nil {
			o.PointsUsed = *patch.PointsUsed
		}
		s.recompute(ctx, &o, "pricing")
		return s.Repo.Update(ctx, o)
	})
}

// ApplyCoupon redeems a code against the draft subtotal and snapshots the
// resulting discount onto the order.
func (s *Service) ApplyCoupon(ctx context.Context, id, code string) (Order, error) {
	if s.Coupons == nil {
		return Order{}, errors.New("coupon redeemer not configured")
	}
	return s.withLock(ctx, id, func(ctx context.Context) (Order, error) {
		o, err := s.draft(ctx, id)
		if err != nil {
			return Order{}, err
		}
		code = strings.ToUpper(strings.TrimSpace(code))
		for _, c := range o.Coupons {
			if c.Code == code {
				return Order{}, ErrCouponApplied
			}
		}
		applied, err := s.Coupons.Redeem(ctx, code, o.Summary.Subtotal)
		if err != nil {
			return Order{}, err
		}
		o.Coupons = append(o.Coupons, AppliedCoupon{
			Code:     applied.Code,
			Kind:     applied.Kind,
			Discount: applied.Discount,
		})
		s.recompute(ctx, &o, "coupon")
		return s.Repo.Update(ctx, o)
	})
}

// RemoveCoupon drops an applied coupon from the draft.
func (s *Service) RemoveCoupon(ctx context.Context, id, code string) (Order, error) {
	return s.withLock(ctx, id, func(ctx context.Context) (Order, error) {
		o, err := s.draft(ctx, id)
		if err != nil {
			return Order{}, err
		}
		code = strings.ToUpper(strings.TrimSpace(code))
		kept := o.Coupons[:0]
		found := false
		for _, c := range o.Coupons {
			if c.Code == code {
				found = true
				continue
			}
			kept = append(kept, c)
		}
		if !found {
			return Order{}, coupon.ErrNotFound
		}
		o.Coupons = kept
		s.recompute(ctx, &o, "coupon")
		return s.Repo.Update(ctx, o)
	})
}

// Save finalizes a draft. The summary is recomputed one last time; validation
// warnings are echoed but never block the save.
func (s *Service) Save(ctx context.Context, id string, in SaveInput) (Order, error) {
	saved, err := s.withLock(ctx, id, func(ctx context.Context) (Order, error) {
		o, err := s.draft(ctx, id)
		if err != nil {
			return Order{}, err
		}
		s.recompute(ctx, &o, "save")
		if in.ExpectedTotal != nil && math.Abs(*in.ExpectedTotal-o.Summary.Total) > totalTolerance {
			return Order{}, fmt.Errorf("%w: submitted %.2f, computed %.2f",
				ErrTotalMismatch, *in.ExpectedTotal, o.Summary.Total)
		}
		if _, err := s.Repo.Update(ctx, o); err != nil {
			return Order{}, err
		}
		return s.Repo.SetStatus(ctx, id, StatusSaved, StatusDraft)
	})
	if err != nil {
		return Order{}, err
	}
	s.emit(ctx, events.TopicOrderSaved, saved)
	return saved, nil
}

// Cancel terminates a draft or saved order.
func (s *Service) Cancel(ctx context.Context, id string) (Order, error) {
	canceled, err := s.Repo.SetStatus(ctx, id, StatusCanceled, StatusDraft, StatusSaved)
	if err != nil {
		return Order{}, err
	}
	s.emit(ctx, events.TopicOrderCanceled, canceled)
	return canceled, nil
}

// SetStatus performs an administrative transition. Only strictly forward moves
// are allowed.
func (s *Service) SetStatus(ctx context.Context, id string, to Status) (Order, error) {
	if rank(to) <= rank(StatusDraft) {
		return Order{}, ErrInvalidState
	}
	current, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if rank(current.Status) >= rank(to) {
		return Order{}, ErrInvalidState
	}
	updated, err := s.Repo.SetStatus(ctx, id, to, current.Status)
	if err != nil {
		return Order{}, err
	}
	switch to {
	case StatusSaved:
		s.emit(ctx, events.TopicOrderSaved, updated)
	case StatusCanceled:
		s.emit(ctx, events.TopicOrderCanceled, updated)
	}
	return updated, nil
}

func (s *Service) draft(ctx context.Context, id string) (Order, error) {
	o, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if o.Status != StatusDraft {
		return Order{}, ErrNotDraft
	}
	return o, nil
}

func (s *Service) resolveLines(ctx context.Context, items []LineInput) ([]Line, error) {
	lines := make([]Line, 0, len(items))
	for _, in := range items {
		line := Line{
			ProductID:   in.ProductID,
			Name:        strings.TrimSpace(in.Name),
			UnitPrice:   in.UnitPrice,
			Qty:         in.Qty,
			PointsPrice: in.PointsPrice,
		}
		if in.ProductID != "" && s.Products != nil {
			p, err := s.Products.Get(ctx, in.ProductID)
			if err != nil {
				return nil, fmt.Errorf("resolve product %s: %w", in.ProductID, err)
			}
			line.Name = p.Name
			line.UnitPrice = p.Price
			line.PointsPrice = p.PointsPrice
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// recompute overwrites the derived summary from the document state and the
// current loyalty rate.
func (s *Service) recompute(ctx context.Context, o *Order, trigger string) {
	rate := float64(pricing.DefaultPointsRate)
	if s.Settings != nil {
		rate = s.Settings.Get(ctx).LoyaltyPointsRate
	}
	o.Summary = pricing.Compute(o.PricingInput(rate))
	if s.Metrics != nil {
		s.Metrics.Computed.WithLabelValues(trigger).Inc()
		for _, code := range o.Summary.Warnings {
			s.Metrics.Warnings.WithLabelValues(code).Inc()
		}
	}
}

func (s *Service) emit(ctx context.Context, topic string, o Order) {
	if s.Bus == nil {
		return
	}
	payload := map[string]any{
		"orderId":  o.ID,
		"status":   o.Status,
		"currency": o.Currency,
		"total":    o.Summary.Total,
		"warnings": o.Summary.Warnings,
	}
	if _, err := s.Bus.Emit(ctx, topic, o.ID, payload); err != nil {
		s.Log.Warn().Err(err).Str("topic", topic).Str("order_id", o.ID).
			Msg("event fan-out failed")
	}
}
