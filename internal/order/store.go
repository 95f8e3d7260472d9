package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when an order id does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidState is returned when a lifecycle transition is not allowed.
	ErrInvalidState = errors.New("invalid order state")
)

// ListFilter narrows order listings.
type ListFilter struct {
	Status Status
	Offset int
	Limit  int
}

// Store persists order documents in Postgres. Structured sections live in
// jsonb columns; the derived money fields are mirrored into scalar columns for
// listing.
type Store struct {
	Pool *pgxpool.Pool
}

const orderColumns = `id, status, currency, items, coupons, discount, tax,
	shipping, points_used, summary, created_at, updated_at`

// Create inserts a new order document.
func (s *Store) Create(ctx context.Context, o Order) (Order, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	cols, err := docColumns(o)
	if err != nil {
		return Order{}, err
	}
	row := s.Pool.QueryRow(ctx,
		`INSERT INTO orders (id, status, currency, items, coupons, discount, tax,
		                     shipping, points_used, summary, pricing_total)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+orderColumns,
		o.ID, o.Status, o.Currency, cols.items, cols.coupons, cols.discount,
		cols.tax, o.Shipping, o.PointsUsed, cols.summary, o.Summary.Total)
	return scanOrder(row)
}

// Get loads one order.
func (s *Store) Get(ctx context.Context, id string) (Order, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

// List returns orders newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, f ListFilter) ([]Order, int, error) {
	var total int
	err := s.Pool.QueryRow(ctx,
		`SELECT count(*) FROM orders WHERE ($1 = '' OR status = $1)`,
		string(f.Status)).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC, id
		 OFFSET $2 LIMIT $3`,
		string(f.Status), f.Offset, f.Limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

// Update rewrites the mutable sections and derived fields of an order.
func (s *Store) Update(ctx context.Context, o Order) (Order, error) {
	cols, err := docColumns(o)
	if err != nil {
		return Order{}, err
	}
	row := s.Pool.QueryRow(ctx,
		`UPDATE orders
		 SET items = $2, coupons = $3, discount = $4, tax = $5, shipping = $6,
		     points_used = $7, summary = $8, pricing_total = $9, updated_at = now()
		 WHERE id = $1
		 RETURNING `+orderColumns,
		o.ID, cols.items, cols.coupons, cols.discount, cols.tax, o.Shipping,
		o.PointsUsed, cols.summary, o.Summary.Total)
	updated, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return updated, err
}

// SetStatus transitions an order when its current status is one of allowedFrom.
// Returns ErrInvalidState when the order exists but the transition is blocked.
func (s *Store) SetStatus(ctx context.Context, id string, to Status, allowedFrom ...Status) (Order, error) {
	from := make([]string, 0, len(allowedFrom))
	for _, st := range allowedFrom {
		from = append(from, string(st))
	}
	row := s.Pool.QueryRow(ctx,
		`UPDATE orders SET status = $2, updated_at = now()
		 WHERE id = $1 AND status = ANY($3)
		 RETURNING `+orderColumns,
		id, string(to), from)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return Order{}, getErr
		}
		return Order{}, ErrInvalidState
	}
	return o, err
}

type jsonColumns struct {
	items    []byte
	coupons  []byte
	discount []byte
	tax      []byte
	summary  []byte
}

func docColumns(o Order) (jsonColumns, error) {
	var (
		cols jsonColumns
		err  error
	)
	if o.Items == nil {
		o.Items = []Line{}
	}
	if o.Coupons == nil {
		o.Coupons = []AppliedCoupon{}
	}
	if cols.items, err = json.Marshal(o.Items); err != nil {
		return cols, fmt.Errorf("encode items: %w", err)
	}
	if cols.coupons, err = json.Marshal(o.Coupons); err != nil {
		return cols, fmt.Errorf("encode coupons: %w", err)
	}
	if cols.discount, err = json.Marshal(o.Discount); err != nil {
		return cols, fmt.Errorf("encode discount: %w", err)
	}
	if cols.tax, err = json.Marshal(o.Tax); err != nil {
		return cols, fmt.Errorf("encode tax: %w", err)
	}
	if cols.summary, err = json.Marshal(o.Summary); err != nil {
		return cols, fmt.Errorf("encode summary: %w", err)
	}
	return cols, nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o         Order
		id        pgtype.UUID
		status    string
		items     []byte
		coupons   []byte
		discount  []byte
		tax       []byte
		summary   []byte
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err := row.Scan(&id, &status, &o.Currency, &items, &coupons, &discount, &tax,
		&o.Shipping, &o.PointsUsed, &summary, &createdAt, &updatedAt)
	if err != nil {
		return Order{}, err
	}
	if id.Valid {
		o.ID = uuid.UUID(id.Bytes).String()
	}
	o.Status = Status(status)
	if err := decodeSections(&o, items, coupons, discount, tax, summary); err != nil {
		return Order{}, err
	}
	if createdAt.Valid {
		o.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		o.UpdatedAt = updatedAt.Time
	}
	return o, nil
}

func decodeSections(o *Order, items, coupons, discount, tax, summary []byte) error {
	o.Items = []Line{}
	o.Coupons = []AppliedCoupon{}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return fmt.Errorf("decode items: %w", err)
		}
	}
	if len(coupons) > 0 {
		if err := json.Unmarshal(coupons, &o.Coupons); err != nil {
			return fmt.Errorf("decode coupons: %w", err)
		}
	}
	if len(discount) > 0 {
		if err := json.Unmarshal(discount, &o.Discount); err != nil {
			return fmt.Errorf("decode discount: %w", err)
		}
	}
	if len(tax) > 0 {
		if err := json.Unmarshal(tax, &o.Tax); err != nil {
			return fmt.Errorf("decode tax: %w", err)
		}
	}
	if len(summary) > 0 {
		if err := json.Unmarshal(summary, &o.Summary); err != nil {
			return fmt.Errorf("decode summary: %w", err)
		}
	}
	return nil
}
