package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a product id does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a sellable item. PointsPrice, when set, marks the product as
// redeemable with loyalty points instead of money.
type Product struct {
	ID          string    `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	PointsPrice *float64  `json:"pointsPrice,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Input is the payload for creating or updating a product.
type Input struct {
	SKU         string   `json:"sku" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       float64  `json:"price" validate:"gte=0"`
	PointsPrice *float64 `json:"pointsPrice" validate:"omitempty,gt=0"`
	Active      *bool    `json:"active"`
}

// ListFilter narrows product listings.
type ListFilter struct {
	Query      string
	ActiveOnly bool
	Offset     int
	Limit      int
}

// Store persists products in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

const productColumns = `id, sku, name, description, price, points_price, active, created_at, updated_at`

// GetByID loads a single product.
func (s *Store) GetByID(ctx context.Context, id string) (Product, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// List returns products matching the filter plus the unpaginated total.
func (s *Store) List(ctx context.Context, f ListFilter) ([]Product, int, error) {
	var total int
	err := s.Pool.QueryRow(ctx,
		`SELECT count(*) FROM products
		 WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR sku ILIKE '%' || $1 || '%')
		   AND (NOT $2 OR active)`,
		f.Query, f.ActiveOnly).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR sku ILIKE '%' || $1 || '%')
		   AND (NOT $2 OR active)
		 ORDER BY name, id
		 OFFSET $3 LIMIT $4`,
		f.Query, f.ActiveOnly, f.Offset, f.Limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

// Create inserts a new product.
func (s *Store) Create(ctx context.Context, in Input) (Product, error) {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	row := s.Pool.QueryRow(ctx,
		`INSERT INTO products (id, sku, name, description, price, points_price, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+productColumns,
		uuid.NewString(), in.SKU, in.Name, in.Description, in.Price, in.PointsPrice, active)
	return scanProduct(row)
}

// Update rewrites the mutable fields of an existing product.
func (s *Store) Update(ctx context.Context, id string, in Input) (Product, error) {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	row := s.Pool.QueryRow(ctx,
		`UPDATE products
		 SET sku = $2, name = $3, description = $4, price = $5,
		     points_price = $6, active = $7, updated_at = now()
		 WHERE id = $1
		 RETURNING `+productColumns,
		id, in.SKU, in.Name, in.Description, in.Price, in.PointsPrice, active)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p           Product
		id          pgtype.UUID
		description pgtype.Text
		pointsPrice pgtype.Float8
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)
	err := row.Scan(&id, &p.SKU, &p.Name, &description, &p.Price, &pointsPrice,
		&p.Active, &createdAt, &updatedAt)
	if err != nil {
		return Product{}, err
	}
	if id.Valid {
		p.ID = uuid.UUID(id.Bytes).String()
	}
	if description.Valid {
		p.Description = description.String
	}
	if pointsPrice.Valid {
		v := pointsPrice.Float64
		p.PointsPrice = &v
	}
	if createdAt.Valid {
		p.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		p.UpdatedAt = updatedAt.Time
	}
	return p, nil
}
