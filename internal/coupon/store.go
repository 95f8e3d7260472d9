package coupon

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is a coupon row in API-friendly form.
type Record struct {
	ID         string     `json:"id"`
	Code       string     `json:"code"`
	Kind       string     `json:"kind"`
	Value      float64    `json:"value"`
	Percent    float64    `json:"percent"`
	MinSpend   float64    `json:"minSpend"`
	UsageLimit *int32     `json:"usageLimit"`
	UsedCount  int32      `json:"usedCount"`
	ValidFrom  *time.Time `json:"validFrom"`
	ValidTo    *time.Time `json:"validTo"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Rule converts the stored row into engine form.
func (rec Record) Rule() Rule {
	return Rule{
		Code:       rec.Code,
		Kind:       rec.Kind,
		Value:      rec.Value,
		Percent:    rec.Percent,
		MinSpend:   rec.MinSpend,
		UsageLimit: rec.UsageLimit,
		UsedCount:  rec.UsedCount,
		ValidFrom:  rec.ValidFrom,
		ValidTo:    rec.ValidTo,
	}
}

// Input is the payload for creating or updating a coupon.
type Input struct {
	Code       string     `json:"code" validate:"required"`
	Kind       string     `json:"kind" validate:"required,oneof=fixed percent shipping"`
	Value      float64    `json:"value" validate:"gte=0"`
	Percent    float64    `json:"percent" validate:"gte=0,lte=100"`
	MinSpend   float64    `json:"minSpend" validate:"gte=0"`
	UsageLimit *int32     `json:"usageLimit"`
	ValidFrom  *time.Time `json:"validFrom"`
	ValidTo    *time.Time `json:"validTo"`
}

// Store persists coupons in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

const couponColumns = `id, code, kind, value, percent, min_spend, usage_limit, used_count, valid_from, valid_to, created_at`

// GetByCode loads a coupon by its code.
func (s *Store) GetByCode(ctx context.Context, code string) (Record, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = $1`, code)
	rec, err := scanCoupon(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// Create inserts a new coupon.
func (s *Store) Create(ctx context.Context, in Input) (Record, error) {
	row := s.Pool.QueryRow(ctx,
		`INSERT INTO coupons (id, code, kind, value, percent, min_spend, usage_limit, valid_from, valid_to)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+couponColumns,
		uuid.NewString(), in.Code, in.Kind, in.Value, in.Percent, in.MinSpend,
		in.UsageLimit, in.ValidFrom, in.ValidTo)
	return scanCoupon(row)
}

// Update rewrites the mutable fields of an existing coupon.
func (s *Store) Update(ctx context.Context, code string, in Input) (Record, error) {
	row := s.Pool.QueryRow(ctx,
		`UPDATE coupons
		 SET kind = $2, value = $3, percent = $4, min_spend = $5,
		     usage_limit = $6, valid_from = $7, valid_to = $8, updated_at = now()
		 WHERE code = $1
		 RETURNING `+couponColumns,
		code, in.Kind, in.Value, in.Percent, in.MinSpend,
		in.UsageLimit, in.ValidFrom, in.ValidTo)
	rec, err := scanCoupon(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// IncrementUsed bumps the usage counter after a successful redemption.
func (s *Store) IncrementUsed(ctx context.Context, code string) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE coupons SET used_count = used_count + 1, updated_at = now() WHERE code = $1`, code)
	return err
}

func scanCoupon(row pgx.Row) (Record, error) {
	var (
		rec        Record
		id         pgtype.UUID
		usageLimit pgtype.Int4
		validFrom  pgtype.Timestamptz
		validTo    pgtype.Timestamptz
		createdAt  pgtype.Timestamptz
	)
	err := row.Scan(&id, &rec.Code, &rec.Kind, &rec.Value, &rec.Percent,
		&rec.MinSpend, &usageLimit, &rec.UsedCount, &validFrom, &validTo, &createdAt)
	if err != nil {
		return Record{}, err
	}
	if id.Valid {
		rec.ID = uuid.UUID(id.Bytes).String()
	}
	if usageLimit.Valid {
		v := usageLimit.Int32
		rec.UsageLimit = &v
	}
	if validFrom.Valid {
		t := validFrom.Time
		rec.ValidFrom = &t
	}
	if validTo.Valid {
		t := validTo.Time
		rec.ValidTo = &t
	}
	if createdAt.Valid {
		rec.CreatedAt = createdAt.Time
	}
	return rec, nil
}
