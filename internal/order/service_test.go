package order

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/saharat-dev/backend-merchant/internal/catalog"
	"github.com/saharat-dev/backend-merchant/internal/coupon"
	"github.com/saharat-dev/backend-merchant/internal/events"
	"github.com/saharat-dev/backend-merchant/internal/pricing"
	"github.com/saharat-dev/backend-merchant/internal/settings"
)

type fakeRepo struct {
	orders map[string]Order
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: map[string]Order{}}
}

func (r *fakeRepo) Create(_ context.Context, o Order) (Order, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	r.orders[o.ID] = o
	return o, nil
}

func (r *fakeRepo) Get(_ context.Context, id string) (Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (r *fakeRepo) List(_ context.Context, f ListFilter) ([]Order, int, error) {
	var out []Order
	for _, o := range r.orders {
		if f.Status == "" || o.Status == f.Status {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (r *fakeRepo) Update(_ context.Context, o Order) (Order, error) {
	if _, ok := r.orders[o.ID]; !ok {
		return Order{}, ErrNotFound
	}
	r.orders[o.ID] = o
	return o, nil
}

func (r *fakeRepo) SetStatus(_ context.Context, id string, to Status, allowedFrom ...Status) (Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	for _, from := range allowedFrom {
		if o.Status == from {
			o.Status = to
			r.orders[id] = o
			return o, nil
		}
	}
	return Order{}, ErrInvalidState
}

type stubRedeemer struct {
	applied coupon.Applied
	err     error
	calls   int
}

func (s *stubRedeemer) Redeem(_ context.Context, code string, subtotal float64) (coupon.Applied, error) {
	s.calls++
	if s.err != nil {
		return coupon.Applied{}, s.err
	}
	return s.applied, nil
}

type stubProducts struct {
	byID map[string]catalog.Product
}

func (s *stubProducts) Get(_ context.Context, id string) (catalog.Product, error) {
	p, ok := s.byID[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

type stubSettings struct {
	rate float64
}

func (s *stubSettings) Get(context.Context) settings.Settings {
	return settings.Settings{LoyaltyPointsRate: s.rate, CurrencyCode: "THB"}
}

type captureBus struct {
	topics []string
}

func (b *captureBus) Emit(_ context.Context, topic, aggregateID string, payload any) (events.Event, error) {
	b.topics = append(b.topics, topic)
	return events.Event{Topic: topic, AggregateID: aggregateID}, nil
}

func newService(repo *fakeRepo) (*Service, *captureBus) {
	bus := &captureBus{}
	svc := &Service{
		Repo:     repo,
		Settings: &stubSettings{rate: 100},
		Bus:      bus,
		Currency: "THB",
	}
	return svc, bus
}

func ptr[T any](v T) *T { return &v }

func TestCreateComputesSummary(t *testing.T) {
	svc, bus := newService(newFakeRepo())

	o, err := svc.Create(context.Background(), CreateInput{Items: []LineInput{
		{Name: "Widget", UnitPrice: 20, Qty: 2},
		{Name: "Gadget", UnitPrice: 15, Qty: 1},
	}})
	require.NoError(t, err)
	require.Equal(t, StatusDraft, o.Status)
	require.InDelta(t, 55, o.Summary.Subtotal, 1e-9)
	require.InDelta(t, 55, o.Summary.Total, 1e-9)
	require.Equal(t, []string{events.TopicOrderCreated}, bus.topics)
}

func TestCreateResolvesProductPricing(t *testing.T) {
	svc, _ := newService(newFakeRepo())
	svc.Products = &stubProducts{byID: map[string]catalog.Product{
		"p1": {ID: "p1", Name: "Reward", Price: 50, PointsPrice: ptr(500.0)},
	}}

	o, err := svc.Create(context.Background(), CreateInput{Items: []LineInput{
		{ProductID: "p1", Name: "ignored", UnitPrice: 1, Qty: 1},
	}})
	require.NoError(t, err)
	require.Equal(t, "Reward", o.Items[0].Name)
	require.InDelta(t, 50, o.Items[0].UnitPrice, 1e-9)
	require.NotNil(t, o.Items[0].PointsPrice)
	require.InDelta(t, 500, o.Summary.PointsRequired, 1e-9)
}

func TestCreateRejectsUnknownProduct(t *testing.T) {
	svc, _ := newService(newFakeRepo())
	svc.Products = &stubProducts{byID: map[string]catalog.Product{}}

	_, err := svc.Create(context.Background(), CreateInput{Items: []LineInput{
		{ProductID: "missing", Qty: 1},
	}})
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestUpdatePricingRecomputes(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newService(repo)
	o, err := svc.Create(context.Background(), CreateInput{Items: []LineInput{
		{Name: "Widget", UnitPrice: 100, Qty: 1},
	}})
	require.NoError(t, err)

	updated, err := svc.UpdatePricing(context.Background(), o.ID, PricingPatch{
		Discount: &pricing.DiscountConfig{Enabled: true, Type: pricing.DiscountPercentage, Value: 10},
		Shipping: ptr(25.0),
	})
	require.NoError(t, err)
	require.InDelta(t, 10, updated.Summary.CalculatedDiscount, 1e-9)
	require.InDelta(t, 115, updated.Summary.Total, 1e-9)
}

func TestApplyCouponSnapshotsDiscount(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newService(repo)
	redeemer := &stubRedeemer{applied: coupon.Applied{Code: "TEN", Kind: coupon.KindFixed, Discount: 10}}
	svc.Coupons = redeemer

	o, err := svc.Create(context.Background(), CreateInput{Items: []LineInput{
		{Name: "Widget", UnitPrice: 100, Qty: 1},
	}})
	require.NoError(t, err)

	updated, err := svc.ApplyCoupon(context.Background(), o.ID, "ten")
	require.NoError(t, err)
	require.Len(t, updated.Coupons, 1)
	require.InDelta(t, 10, updated.Summary.CouponDiscount, 1e-9)
	require.InDelta(t, 90, updated.Summary.Total, 1e-9)
	require.Equal(t, 1, redeemer.calls)

	_, err = svc.ApplyCoupon(context.Background(), o.ID, "TEN")
	require.ErrorIs(t, err, ErrCouponApplied)
}

func TestRemoveCouponRecomputes(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newService(repo)
	svc.Coupons = &stubRedeemer{applied: coupon.Applied{Code: "TEN", Kind: coupon.KindFixed, Discount: 10}}

	o, err := svc.Create(context.Background(), CreateInput{Items: []LineInput{
		{Name: "Widget", UnitPrice: 100, Qty: 1},
	}})
	require.NoError(t, err)
	_, err = svc.ApplyCoupon(context.Background(), o.ID, "TEN")
	require.NoError(t, err)

	updated, err := svc.RemoveCoupon(context.Background(), o.ID, "TEN")
	require.NoError(t, err)
	require.Empty(t, updated.Coupons)
	require.InDelta(t, 100, updated.Summary.Total, 1e-9)

	_, err = svc.RemoveCoupon(context.Background(), o.ID, "GONE")
	require.ErrorIs(t, err, coupon.ErrNotFound)
}

func TestSaveChecksSubmittedTotal(t *testing.T) {
	repo := newFakeRepo()
	svc, bus := newService(repo)
	o, err := svc.Create(context.Background(), CreateInput{Items: []LineInput{
		{Name: "Widget", UnitPrice: 100, Qty: 1},
	}})
	require.NoError(t, err)

	_, err = svc.Save(context.Background(), o.ID, SaveInput{ExpectedTotal: ptr(99.0)})
	require.ErrorIs(t, err, ErrTotalMismatch)

	saved, err := svc.Save(context.Background(), o.ID, SaveInput{ExpectedTotal: ptr(100.0)})
	require.NoError(t, err)
	require.Equal(t, StatusSaved, saved.Status)
	require.Contains(t, bus.topics, events.TopicOrderSaved)
}

func TestSaveWithWarningsSucceeds(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newService(repo)
	o, err := svc.Create(context.Background(), CreateInput{Items: []LineInput{
		{Name: "Reward", UnitPrice: 50, Qty: 1, PointsPrice: ptr(500.0)},
	}})
	require.NoError(t, err)

	_, err = svc.UpdatePricing(context.Background(), o.ID, PricingPatch{PointsUsed: ptr(int64(400))})
	require.NoError(t, err)

	saved, err := svc.Save(context.Background(), o.ID, SaveInput{})
	require.NoError(t, err)
	require.Equal(t, StatusSaved, saved.Status)
	require.Contains(t, saved.Summary.Warnings, pricing.WarnPointsInsufficient)
}

func TestMutationRejectedAfterSave(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newService(repo)
	o, err := svc.Create(context.Background(), CreateInput{Items: []LineInput{
		{Name: "Widget", UnitPrice: 100, Qty: 1},
	}})
	require.NoError(t, err)
	_, err = svc.Save(context.Background(), o.ID, SaveInput{})
	require.NoError(t, err)

	_, err = svc.ReplaceItems(context.Background(), o.ID, []LineInput{
		{Name: "Other", UnitPrice: 5, Qty: 1},
	})
	require.ErrorIs(t, err, ErrNotDraft)
}

func TestCancelEmitsEvent(t *testing.T) {
	repo := newFakeRepo()
	svc, bus := newService(repo)
	o, err := svc.Create(context.Background(), CreateInput{Items: []LineInput{
		{Name: "Widget", UnitPrice: 100, Qty: 1},
	}})
	require.NoError(t, err)

	canceled, err := svc.Cancel(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCanceled, canceled.Status)
	require.Contains(t, bus.topics, events.TopicOrderCanceled)

	_, err = svc.Cancel(context.Background(), o.ID)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestAdminStatusForwardOnly(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newService(repo)
	o, err := svc.Create(context.Background(), CreateInput{Items: []LineInput{
		{Name: "Widget", UnitPrice: 100, Qty: 1},
	}})
	require.NoError(t, err)

	saved, err := svc.SetStatus(context.Background(), o.ID, StatusSaved)
	require.NoError(t, err)
	require.Equal(t, StatusSaved, saved.Status)

	_, err = svc.SetStatus(context.Background(), o.ID, StatusSaved)
	require.ErrorIs(t, err, ErrInvalidState)

	canceled, err := svc.SetStatus(context.Background(), o.ID, StatusCanceled)
	require.NoError(t, err)
	require.Equal(t, StatusCanceled, canceled.Status)
}
