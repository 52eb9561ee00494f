package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Sector is a top-level partition of the catalog. Browsing, search and
// administration are always scoped to one sector.
type Sector string

// Sectors.
const (
	SectorAutomotive Sector = "automotive"
	SectorRealEstate Sector = "real-estate"
)

// Sectors lists every known sector in display order.
var Sectors = []Sector{SectorAutomotive, SectorRealEstate}

// legacyNames maps sectors to the labels used by the hosted catalog table.
var legacyNames = map[Sector]string{
	SectorAutomotive: "automotivo",
	SectorRealEstate: "imobiliario",
}

// ParseSector accepts both the canonical and the legacy sector labels.
func ParseSector(s string) (Sector, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, sector := range Sectors {
		if s == string(sector) || s == legacyNames[sector] {
			return sector, nil
		}
	}
	return "", fmt.Errorf("unknown sector %q", s)
}

// Valid reports whether s is a known sector.
func (s Sector) Valid() bool {
	_, ok := legacyNames[s]
	return ok
}

// LegacyName returns the label stored in the hosted catalog's setor column.
func (s Sector) LegacyName() string {
	return legacyNames[s]
}

// Product is a catalog entry. The brand is not stored separately: by
// convention it is the last whitespace-separated token of Name.
type Product struct {
	ID             int64               `json:"id"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Image          string              `json:"image,omitempty"`
	Sector         Sector              `json:"sector"`
	RelatedIDs     []int64             `json:"related_product_ids"`
	Clearance      bool                `json:"clearance"`
	OriginalPrice  decimal.NullDecimal `json:"original_price"`
	ClearancePrice decimal.NullDecimal `json:"clearance_price"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// Brand returns the brand token derived from the name.
func (p *Product) Brand() string {
	_, brand := SplitName(p.Name)
	return brand
}

// BaseName returns the name without its trailing brand token.
func (p *Product) BaseName() string {
	base, _ := SplitName(p.Name)
	return base
}

// ActiveClearance reports whether the product surfaces as a clearance offer:
// the flag must be set and both prices present.
func (p *Product) ActiveClearance() bool {
	return p.Clearance && p.OriginalPrice.Valid && p.ClearancePrice.Valid
}

// ParseRelatedIDs parses a comma-separated id list. Blank entries are
// skipped; any non-numeric entry invalidates the whole list.
func ParseRelatedIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid related product id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FormatRelatedIDs encodes ids as a comma-separated list.
func FormatRelatedIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
