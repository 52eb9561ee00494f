// Package catalog holds the storefront's catalog logic: paginated retrieval
// from a catalog source, fuzzy and substring product search, and clearance
// price validation. Everything here works on plain values; the active sector
// and the acting user are always passed in explicitly.
package catalog

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/erazemk/vitrina/internal/model"
)

// Error kinds surfaced by the catalog.
var (
	ErrUpstreamUnavailable = errors.New("catalog source unavailable")
	ErrNotFound            = errors.New("product not found")
	ErrInvalidPricing      = errors.New("invalid pricing")
)

// Source is a paginated catalog source. Page returns the products of sector
// at positions [offset, offset+limit) in a stable order; an empty page marks
// the end of the data.
type Source interface {
	Page(ctx context.Context, sector model.Sector, offset, limit int) ([]model.Product, error)
}

// Lookup resolves a single product. A missing product is reported as
// (nil, nil).
type Lookup interface {
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
}

// Store is a catalog backend that also supports administration.
type Store interface {
	Source
	Lookup
	CreateProduct(ctx context.Context, p *model.Product) (*model.Product, error)
	UpdateProduct(ctx context.Context, p *model.Product) error
	DeleteProduct(ctx context.Context, id int64, sector model.Sector) error
	SetProductImage(ctx context.Context, id int64, url string) error
	SetClearance(ctx context.Context, id int64, on bool) error
	SetClearancePrices(ctx context.Context, id int64, original, clearance decimal.Decimal) error
	CountProducts(ctx context.Context, sector model.Sector) (int, error)
}

// Brands returns the sorted set of brands present in products.
func Brands(products []model.Product) []string {
	seen := make(map[string]bool)
	var brands []string
	for i := range products {
		brand := products[i].Brand()
		if brand == "" || seen[brand] {
			continue
		}
		seen[brand] = true
		brands = append(brands, brand)
	}
	sort.Strings(brands)
	return brands
}

// GetInSector returns a product only when it belongs to sector.
func GetInSector(ctx context.Context, l Lookup, id int64, sector model.Sector) (*model.Product, error) {
	p, err := l.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.Sector != sector {
		return nil, nil
	}
	return p, nil
}

// ToggleClearance flips the clearance flag of a product and returns the new
// value.
func ToggleClearance(ctx context.Context, s Store, id int64, sector model.Sector) (bool, error) {
	p, err := GetInSector(ctx, s, id, sector)
	if err != nil {
		return false, err
	}
	if p == nil {
		return false, ErrNotFound
	}
	on := !p.Clearance
	if err := s.SetClearance(ctx, id, on); err != nil {
		return false, err
	}
	return on, nil
}

// SplitClearance partitions products into clearance and regular items,
// preserving order.
func SplitClearance(products []model.Product) (clearance, regular []model.Product) {
	for _, p := range products {
		if p.Clearance {
			clearance = append(clearance, p)
		} else {
			regular = append(regular, p)
		}
	}
	return clearance, regular
}

// ActiveOffers returns the products that surface as clearance offers.
func ActiveOffers(products []model.Product) []model.Product {
	var offers []model.Product
	for i := range products {
		if products[i].ActiveClearance() {
			offers = append(offers, products[i])
		}
	}
	return offers
}
