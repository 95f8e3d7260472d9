package settings_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/saharat-dev/backend-merchant/internal/settings"
)

type stubQueries struct {
	s    settings.Settings
	err  error
	gets int
}

func (q *stubQueries) Get(ctx context.Context) (settings.Settings, error) {
	q.gets++
	if q.err != nil {
		return settings.Settings{}, q.err
	}
	return q.s, nil
}

func (q *stubQueries) Upsert(ctx context.Context, s settings.Settings) error {
	q.s = s
	return nil
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGetFallsBackToDefaults(t *testing.T) {
	svc := &settings.Service{Q: &stubQueries{err: errors.New("db down")}}
	got := svc.Get(context.Background())
	require.InDelta(t, 100, got.LoyaltyPointsRate, 0)
	require.Equal(t, "THB", got.CurrencyCode)
}

func TestGetCachesDatabaseHit(t *testing.T) {
	q := &stubQueries{s: settings.Settings{LoyaltyPointsRate: 50, VATPercent: 7, CurrencyCode: "THB"}}
	svc := &settings.Service{Q: q, R: newRedis(t), TTL: time.Minute}

	first := svc.Get(context.Background())
	second := svc.Get(context.Background())
	require.InDelta(t, 50, first.LoyaltyPointsRate, 0)
	require.InDelta(t, 50, second.LoyaltyPointsRate, 0)
	require.Equal(t, 1, q.gets, "second lookup must be served from cache")
}

func TestUpdateRefreshesCache(t *testing.T) {
	q := &stubQueries{s: settings.Defaults()}
	svc := &settings.Service{Q: q, R: newRedis(t), TTL: time.Minute}

	_ = svc.Get(context.Background())
	updated, err := svc.Update(context.Background(), settings.Settings{LoyaltyPointsRate: 25, VATPercent: 7, CurrencyCode: "THB"})
	require.NoError(t, err)
	require.InDelta(t, 25, updated.LoyaltyPointsRate, 0)

	got := svc.Get(context.Background())
	require.InDelta(t, 25, got.LoyaltyPointsRate, 0)
}

func TestUpdateRejectsNonPositiveRateSilently(t *testing.T) {
	q := &stubQueries{}
	svc := &settings.Service{Q: q}
	updated, err := svc.Update(context.Background(), settings.Settings{LoyaltyPointsRate: 0, CurrencyCode: "THB"})
	require.NoError(t, err)
	require.InDelta(t, 100, updated.LoyaltyPointsRate, 0)
}
