package catalog

import (
	"sort"
	"strings"

	"github.com/erazemk/vitrina/internal/model"
)

// Search tuning.
const (
	Threshold       = 60 // minimum exclusive fuzzy score
	RelatedLimit    = 50
	RelatedMinQuery = 2
)

// Search ranks products against query. A non-empty brands set first keeps only
// products whose brand is a member. An empty query returns the filtered list
// in its original order; otherwise products scoring at or below Threshold are
// dropped and the rest are ordered by descending score, ties keeping their
// input order. The query is expected to be lower-cased by the caller.
func Search(query string, products []model.Product, brands []string) []model.Product {
	candidates := filterBrands(products, brands)
	if query == "" {
		return candidates
	}

	type scored struct {
		p     model.Product
		score int
	}
	var hits []scored
	for _, p := range candidates {
		score := PartialRatio(query, strings.ToLower(p.Name))
		if score > Threshold {
			hits = append(hits, scored{p, score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	result := make([]model.Product, len(hits))
	for i, h := range hits {
		result[i] = h.p
	}
	return result
}

func filterBrands(products []model.Product, brands []string) []model.Product {
	if len(brands) == 0 {
		return append([]model.Product(nil), products...)
	}
	allowed := make(map[string]bool, len(brands))
	for _, b := range brands {
		allowed[b] = true
	}
	var out []model.Product
	for i := range products {
		if allowed[products[i].Brand()] {
			out = append(out, products[i])
		}
	}
	return out
}

// Related looks up candidates for linking as related products: names that
// contain query case-insensitively, earliest match first, at most
// RelatedLimit results. Queries shorter than RelatedMinQuery runes return
// nothing. excludeID removes one product from the result; 0 excludes none.
func Related(query string, products []model.Product, excludeID int64) []model.Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if len([]rune(query)) < RelatedMinQuery {
		return nil
	}

	type hit struct {
		p   model.Product
		pos int
	}
	var hits []hit
	for _, p := range products {
		if excludeID != 0 && p.ID == excludeID {
			continue
		}
		name := strings.ToLower(p.Name)
		idx := strings.Index(name, query)
		if idx < 0 {
			continue
		}
		hits = append(hits, hit{p, len([]rune(name[:idx]))})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	if len(hits) > RelatedLimit {
		hits = hits[:RelatedLimit]
	}
	result := make([]model.Product, len(hits))
	for i, h := range hits {
		result[i] = h.p
	}
	return result
}
