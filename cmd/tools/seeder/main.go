package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedSettings(ctx, pool)
	seedProducts(ctx, pool)
	seedCoupons(ctx, pool)

	log.Println("Seeding completed successfully!")
}

func seedSettings(ctx context.Context, pool *pgxpool.Pool) {
	log.Println("Seeding store settings...")
	_, err := pool.Exec(ctx, `
		INSERT INTO store_settings (id, loyalty_points_rate, vat_percent, currency_code)
		VALUES (1, 100, 7, 'THB')
		ON CONFLICT (id) DO NOTHING;
	`)
	if err != nil {
		log.Printf("Failed to seed settings: %v", err)
	}
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool) {
	products := []struct {
		SKU         string
		Name        string
		Price       float64
		PointsPrice *float64
	}{
		{"TEE-BLK-M", "Plain Black Tee", 250, nil},
		{"TEE-WHT-M", "Plain White Tee", 250, nil},
		{"MUG-CLS", "Classic Mug", 120, nil},
		{"BAG-CNV", "Canvas Tote Bag", 390, nil},
		{"CAP-LGO", "Logo Cap", 290, nil},
		{"STK-SET", "Sticker Set", 50, ptr(500.0)},
		{"PIN-ENM", "Enamel Pin", 80, ptr(800.0)},
		{"NTB-A5", "A5 Notebook", 150, nil},
	}

	log.Println("Seeding products...")
	for _, p := range products {
		_, err := pool.Exec(ctx, `
			INSERT INTO products (id, sku, name, price, points_price, active)
			VALUES (gen_random_uuid(), $1, $2, $3, $4, true)
			ON CONFLICT (sku) DO UPDATE SET
				name = EXCLUDED.name,
				price = EXCLUDED.price,
				points_price = EXCLUDED.points_price;
		`, p.SKU, p.Name, p.Price, p.PointsPrice)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.SKU, err)
		}
	}
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) {
	coupons := []struct {
		Code    string
		Kind    string
		Value   float64
		Percent float64
	}{
		{"WELCOME50", "fixed", 50, 0},
		{"SAVE10", "percent", 0, 10},
		{"FREESHIP", "shipping", 0, 0},
	}

	log.Println("Seeding coupons...")
	for _, c := range coupons {
		_, err := pool.Exec(ctx, `
			INSERT INTO coupons (id, code, kind, value, percent, min_spend, valid_from, valid_to)
			VALUES (gen_random_uuid(), $1, $2, $3, $4, 0, now(), now() + interval '1 year')
			ON CONFLICT (code) DO NOTHING;
		`, c.Code, c.Kind, c.Value, c.Percent)
		if err != nil {
			log.Printf("Failed to seed coupon %s: %v", c.Code, err)
		}
	}
}

func ptr(v float64) *float64 { return &v }
