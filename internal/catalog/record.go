package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/vitrina/internal/model"
)

// ImageColumn returns the key a remote row stores its image under: "imagem",
// "image", or "" when the row has neither column.
func ImageColumn(record map[string]any) string {
	if _, ok := record["imagem"]; ok {
		return "imagem"
	}
	if _, ok := record["image"]; ok {
		return "image"
	}
	return ""
}

// NormalizeRecord converts a row of the hosted catalog table into a Product.
// Optional fields that are missing, null or malformed degrade to empty values;
// only a missing id or name is an error. Numbers are expected as json.Number
// (decoder with UseNumber), but float64 and strings are accepted too.
func NormalizeRecord(record map[string]any) (model.Product, error) {
	var p model.Product

	id, err := toInt64(record["id"])
	if err != nil {
		return p, fmt.Errorf("record id: %w", err)
	}
	p.ID = id

	name, ok := record["nome"].(string)
	if !ok {
		return p, fmt.Errorf("record %d has no name", id)
	}
	p.Name = name
	p.Description = stringField(record, "descricao")
	p.Image = stringField(record, "imagem")
	if p.Image == "" {
		p.Image = stringField(record, "image")
	}
	if sector, err := model.ParseSector(stringField(record, "setor")); err == nil {
		p.Sector = sector
	}

	related := stringField(record, "produto_relacionado_ids")
	if related == "" {
		if legacy, err := toInt64(record["produto_relacionado_id"]); err == nil && legacy != 0 {
			related = strconv.FormatInt(legacy, 10)
		}
	}
	if ids, err := model.ParseRelatedIDs(related); err == nil {
		p.RelatedIDs = ids
	}

	p.Clearance, _ = record["em_queima_estoque"].(bool)
	p.OriginalPrice = toNullDecimal(record["preco_original"])
	p.ClearancePrice = toNullDecimal(record["preco_queima"])

	if s := stringField(record, "created_at"); s != "" {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			p.CreatedAt = t
		}
	}
	return p, nil
}

func stringField(record map[string]any, key string) string {
	switch v := record[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	}
	return ""
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		return n.Int64()
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	case nil:
		return 0, fmt.Errorf("missing")
	}
	return 0, fmt.Errorf("unexpected type %T", v)
}

func toNullDecimal(v any) decimal.NullDecimal {
	var (
		d   decimal.Decimal
		err error
	)
	switch n := v.(type) {
	case json.Number:
		d, err = decimal.NewFromString(n.String())
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(n))
	case float64:
		d = decimal.NewFromFloat(n)
	default:
		return decimal.NullDecimal{}
	}
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
