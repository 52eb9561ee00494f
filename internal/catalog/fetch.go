package catalog

import (
	"context"
	"fmt"

	"github.com/erazemk/vitrina/internal/model"
)

// PageSize is the window requested from a Source per call.
const PageSize = 1000

// FetchAll reads every product of sector from src, page by page, until a page
// comes back empty. Pages are concatenated in retrieval order. Any source
// error aborts the scan with ErrUpstreamUnavailable; a retry must start over.
// Records inserted or deleted while the scan runs may be missed or repeated.
func FetchAll(ctx context.Context, src Source, sector model.Sector) ([]model.Product, error) {
	var products []model.Product
	for offset := 0; ; offset += PageSize {
		page, err := src.Page(ctx, sector, offset, PageSize)
		if err != nil {
			return nil, fmt.Errorf("%w: fetching %s products at offset %d: %w", ErrUpstreamUnavailable, sector, offset, err)
		}
		if len(page) == 0 {
			return products, nil
		}
		products = append(products, page...)
	}
}
