package settings

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	"github.com/saharat-dev/backend-merchant/internal/pricing"
)

const cacheKey = "settings:store"

// Store settings consumed by the pricing computation. LoyaltyPointsRate is the
// number of points required per unit of currency when converting excess points
// into discount.
type Settings struct {
	LoyaltyPointsRate float64 `json:"loyaltyPointsRate" validate:"gt=0"`
	VATPercent        float64 `json:"vatPercent" validate:"gte=0"`
	CurrencyCode      string  `json:"currencyCode" validate:"required,len=3"`
}

// Defaults returns the settings used when nothing has been persisted yet.
func Defaults() Settings {
	return Settings{
		LoyaltyPointsRate: pricing.DefaultPointsRate,
		VATPercent:        pricing.ThaiVATPercent,
		CurrencyCode:      "THB",
	}
}

// Queries is the persistence surface for settings rows.
type Queries interface {
	Get(ctx context.Context) (Settings, error)
	Upsert(ctx context.Context, s Settings) error
}

// Service resolves settings through a Redis cache with a database fallback and
// silent defaults, mirroring the behaviour the dashboard relied on.
type Service struct {
	Q   Queries
	R   *redis.Client
	TTL time.Duration
}

// Get returns the effective settings. Lookup failures degrade to defaults so
// pricing never blocks on the settings store.
func (s *Service) Get(ctx context.Context) Settings {
	if s == nil {
		return Defaults()
	}
	if s.R != nil {
		if data, err := s.R.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached Settings
			if json.Unmarshal(data, &cached) == nil && cached.LoyaltyPointsRate > 0 {
				return cached
			}
		}
	}
	if s.Q == nil {
		return Defaults()
	}
	loaded, err := s.Q.Get(ctx)
	if err != nil {
		return Defaults()
	}
	if loaded.LoyaltyPointsRate <= 0 {
		loaded.LoyaltyPointsRate = pricing.DefaultPointsRate
	}
	s.cache(ctx, loaded)
	return loaded
}

// Update persists new settings and refreshes the cache.
func (s *Service) Update(ctx context.Context, next Settings) (Settings, error) {
	if s == nil || s.Q == nil {
		return Settings{}, errors.New("settings store not configured")
	}
	if next.LoyaltyPointsRate <= 0 {
		next.LoyaltyPointsRate = pricing.DefaultPointsRate
	}
	if err := s.Q.Upsert(ctx, next); err != nil {
		return Settings{}, err
	}
	s.cache(ctx, next)
	return next, nil
}

func (s *Service) cache(ctx context.Context, v Settings) {
	if s.R == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	_ = s.R.Set(ctx, cacheKey, data, ttl).Err()
}

// PGStore persists settings in a single-row Postgres table.
type PGStore struct {
	Pool *pgxpool.Pool
}

// Get loads the singleton settings row.
func (p *PGStore) Get(ctx context.Context) (Settings, error) {
	var s Settings
	err := p.Pool.QueryRow(ctx,
		`SELECT loyalty_points_rate, vat_percent, currency_code FROM store_settings WHERE id = 1`).
		Scan(&s.LoyaltyPointsRate, &s.VATPercent, &s.CurrencyCode)
	if err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Upsert writes the singleton settings row.
func (p *PGStore) Upsert(ctx context.Context, s Settings) error {
	_, err := p.Pool.Exec(ctx,
		`INSERT INTO store_settings (id, loyalty_points_rate, vat_percent, currency_code)
		 VALUES (1, $1, $2, $3)
		 ON CONFLICT (id) DO UPDATE
		 SET loyalty_points_rate = $1, vat_percent = $2, currency_code = $3, updated_at = now()`,
		s.LoyaltyPointsRate, s.VATPercent, s.CurrencyCode)
	return err
}
