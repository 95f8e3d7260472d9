package catalog

import (
	"context"
	"fmt"
	"strings"
)

// Queries is the persistence surface the service depends on.
type Queries interface {
	GetByID(ctx context.Context, id string) (Product, error)
	List(ctx context.Context, f ListFilter) ([]Product, int, error)
	Create(ctx context.Context, in Input) (Product, error)
	Update(ctx context.Context, id string, in Input) (Product, error)
}

// ListResult carries a page of products with the unpaginated total.
type ListResult struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

// Service orchestrates product queries with read-through caching. Only the
// unfiltered first page and per-product detail are cached; filtered listings
// go straight to the database.
type Service struct {
	Q            Queries
	Cache        *Cache
	DefaultLimit int
}

// List returns products for the given filter and page.
func (s *Service) List(ctx context.Context, f ListFilter, page int) (ListResult, error) {
	if f.Limit <= 0 {
		f.Limit = s.DefaultLimit
	}
	if page < 1 {
		page = 1
	}
	f.Offset = (page - 1) * f.Limit
	f.Query = strings.TrimSpace(f.Query)

	cacheable := f.Query == "" && !f.ActiveOnly && f.Offset == 0 && f.Limit == s.DefaultLimit
	if cacheable {
		var cached ListResult
		if s.Cache.get(ctx, listKey, &cached) {
			return cached, nil
		}
	}

	items, total, err := s.Q.List(ctx, f)
	if err != nil {
		return ListResult{}, fmt.Errorf("list products: %w", err)
	}
	if items == nil {
		items = []Product{}
	}
	result := ListResult{Items: items, Total: total, Page: page, Limit: f.Limit}
	if cacheable {
		s.Cache.set(ctx, listKey, result)
	}
	return result, nil
}

// Get returns a single product by id.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	key := detailPrefix + id
	var cached Product
	if s.Cache.get(ctx, key, &cached) {
		return cached, nil
	}
	p, err := s.Q.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	s.Cache.set(ctx, key, p)
	return p, nil
}

// Create inserts a product and invalidates the default listing.
func (s *Service) Create(ctx context.Context, in Input) (Product, error) {
	p, err := s.Q.Create(ctx, in)
	if err != nil {
		return Product{}, err
	}
	s.Cache.invalidate(ctx, "")
	return p, nil
}

// Update rewrites a product and invalidates both its detail entry and the
// default listing.
func (s *Service) Update(ctx context.Context, id string, in Input) (Product, error) {
	p, err := s.Q.Update(ctx, id, in)
	if err != nil {
		return Product{}, err
	}
	s.Cache.invalidate(ctx, id)
	return p, nil
}
