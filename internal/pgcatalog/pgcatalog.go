// Package pgcatalog serves the catalog straight from the hosted PostgreSQL
// database that backs the PostgREST endpoint.
package pgcatalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/erazemk/vitrina/internal/catalog"
	"github.com/erazemk/vitrina/internal/model"
)

// Schema creates the catalog table when it does not exist yet. Hosted
// deployments already have it.
const Schema = `
CREATE TABLE IF NOT EXISTS produtos (
    id                      BIGSERIAL PRIMARY KEY,
    nome                    TEXT NOT NULL,
    descricao               TEXT,
    imagem                  TEXT,
    setor                   TEXT NOT NULL,
    produto_relacionado_ids TEXT,
    em_queima_estoque       BOOLEAN NOT NULL DEFAULT FALSE,
    preco_original          NUMERIC(12, 2),
    preco_queima            NUMERIC(12, 2),
    created_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS produtos_setor_id ON produtos (setor, id);
`

// Connect opens a bounded connection pool and verifies it.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return pool, nil
}

// Catalog is a catalog.Store over the produtos table.
type Catalog struct {
	DB *pgxpool.Pool
}

var _ catalog.Store = (*Catalog)(nil)

// EnsureSchema creates the table if needed.
func (c *Catalog) EnsureSchema(ctx context.Context) error {
	if _, err := c.DB.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("creating catalog schema: %w", err)
	}
	return nil
}

const columns = `id, nome, COALESCE(descricao, ''), COALESCE(imagem, ''), setor,
	COALESCE(produto_relacionado_ids, ''), em_queima_estoque,
	preco_original::text, preco_queima::text, created_at`

func scan(row pgx.Row) (*model.Product, error) {
	var (
		p                   model.Product
		sector, related     string
		original, clearance *string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Image, &sector, &related,
		&p.Clearance, &original, &clearance, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if s, err := model.ParseSector(sector); err == nil {
		p.Sector = s
	}
	p.RelatedIDs, _ = model.ParseRelatedIDs(related)
	p.OriginalPrice = parsePrice(original)
	p.ClearancePrice = parsePrice(clearance)
	return &p, nil
}

func parsePrice(s *string) decimal.NullDecimal {
	if s == nil {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func relatedValue(ids []int64) *string {
	return nullable(model.FormatRelatedIDs(ids))
}

// Page returns a window of a sector's products ordered by id.
func (c *Catalog) Page(ctx context.Context, sector model.Sector, offset, limit int) ([]model.Product, error) {
	rows, err := c.DB.Query(ctx,
		`SELECT `+columns+` FROM produtos WHERE setor = $1 ORDER BY id OFFSET $2 LIMIT $3`,
		sector.LegacyName(), offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// GetProduct returns a product by id, or nil if it does not exist.
func (c *Catalog) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	p, err := scan(c.DB.QueryRow(ctx, `SELECT `+columns+` FROM produtos WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	return p, nil
}

// CreateProduct inserts a product and returns the stored row.
func (c *Catalog) CreateProduct(ctx context.Context, p *model.Product) (*model.Product, error) {
	created, err := scan(c.DB.QueryRow(ctx,
		`INSERT INTO produtos (nome, descricao, imagem, setor, produto_relacionado_ids)
		 VALUES ($1, $2, $3, $4, $5) RETURNING `+columns,
		p.Name, nullable(p.Description), nullable(p.Image), p.Sector.LegacyName(), relatedValue(p.RelatedIDs),
	))
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}
	return created, nil
}

func (c *Catalog) exec(ctx context.Context, what, sql string, args ...any) error {
	tag, err := c.DB.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// UpdateProduct writes the editable fields of a product.
func (c *Catalog) UpdateProduct(ctx context.Context, p *model.Product) error {
	return c.exec(ctx, "updating product",
		`UPDATE produtos SET nome = $1, descricao = $2, produto_relacionado_ids = $3 WHERE id = $4`,
		p.Name, nullable(p.Description), relatedValue(p.RelatedIDs), p.ID)
}

// DeleteProduct deletes a product of the given sector.
func (c *Catalog) DeleteProduct(ctx context.Context, id int64, sector model.Sector) error {
	return c.exec(ctx, "deleting product",
		`DELETE FROM produtos WHERE id = $1 AND setor = $2`, id, sector.LegacyName())
}

// SetProductImage stores the public URL of a product's photo.
func (c *Catalog) SetProductImage(ctx context.Context, id int64, url string) error {
	return c.exec(ctx, "setting product image",
		`UPDATE produtos SET imagem = $1 WHERE id = $2`, nullable(url), id)
}

// SetClearance sets the clearance flag.
func (c *Catalog) SetClearance(ctx context.Context, id int64, on bool) error {
	return c.exec(ctx, "setting clearance",
		`UPDATE produtos SET em_queima_estoque = $1 WHERE id = $2`, on, id)
}

// SetClearancePrices stores both clearance prices.
func (c *Catalog) SetClearancePrices(ctx context.Context, id int64, original, clearance decimal.Decimal) error {
	return c.exec(ctx, "setting clearance prices",
		`UPDATE produtos SET preco_original = $1::numeric, preco_queima = $2::numeric WHERE id = $3`,
		original.String(), clearance.String(), id)
}

// CountProducts counts a sector's products.
func (c *Catalog) CountProducts(ctx context.Context, sector model.Sector) (int, error) {
	var n int
	err := c.DB.QueryRow(ctx, `SELECT COUNT(*) FROM produtos WHERE setor = $1`, sector.LegacyName()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting products: %w", err)
	}
	return n, nil
}
