package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erazemk/vitrina/internal/catalog"
	"github.com/erazemk/vitrina/internal/model"
)

const productColumns = `id, name, description, image, sector, related_ids, clearance,
	original_price, clearance_price, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*model.Product, error) {
	p := &model.Product{}
	var description, image, related sql.NullString
	err := row.Scan(&p.ID, &p.Name, &description, &image, &p.Sector, &related, &p.Clearance,
		&p.OriginalPrice, &p.ClearancePrice, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	p.Image = image.String
	// A malformed list is treated as no related products.
	p.RelatedIDs, _ = model.ParseRelatedIDs(related.String)
	return p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ListProducts returns one page of a sector's products ordered by id.
func ListProducts(ctx context.Context, db *sql.DB, sector model.Sector, offset, limit int) ([]model.Product, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE sector = ?
		 ORDER BY id LIMIT ? OFFSET ?`,
		string(sector), limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// GetProduct returns a product by ID.
func GetProduct(ctx context.Context, db *sql.DB, id int64) (*model.Product, error) {
	p, err := scanProduct(db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	return p, nil
}

// LookupProductTx resolves a product inside an open transaction.
func LookupProductTx(ctx context.Context, tx *sql.Tx, id int64) (*model.Product, error) {
	p, err := scanProduct(tx.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up product %d: %w", id, err)
	}
	return p, nil
}

// CreateProduct inserts a product. Prices and the clearance flag are set
// through their own operations.
func CreateProduct(ctx context.Context, db *sql.DB, p *model.Product) (*model.Product, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO products (name, description, image, sector, related_ids)
		 VALUES (?, ?, ?, ?, ?)`,
		p.Name, nullString(p.Description), nullString(p.Image), string(p.Sector),
		nullString(model.FormatRelatedIDs(p.RelatedIDs)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting product id: %w", err)
	}

	return GetProduct(ctx, db, id)
}

// UpdateProduct writes the editable fields of a product.
func UpdateProduct(ctx context.Context, db *sql.DB, p *model.Product) error {
	result, err := db.ExecContext(ctx,
		`UPDATE products SET name = ?, description = ?, image = ?, related_ids = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		p.Name, nullString(p.Description), nullString(p.Image),
		nullString(model.FormatRelatedIDs(p.RelatedIDs)), p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}
	return expectRow(result)
}

// DeleteProduct hard-deletes a product of the given sector. Order items keep
// their snapshot of it.
func DeleteProduct(ctx context.Context, db *sql.DB, id int64, sector model.Sector) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM products WHERE id = ? AND sector = ?`, id, string(sector),
	)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	return expectRow(result)
}

// SetProductImage stores the public URL of a product's photo.
func SetProductImage(ctx context.Context, db *sql.DB, id int64, url string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE products SET image = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		nullString(url), id,
	)
	if err != nil {
		return fmt.Errorf("setting product image: %w", err)
	}
	return expectRow(result)
}

// SetClearance sets the clearance flag.
func SetClearance(ctx context.Context, db *sql.DB, id int64, on bool) error {
	result, err := db.ExecContext(ctx,
		`UPDATE products SET clearance = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		on, id,
	)
	if err != nil {
		return fmt.Errorf("setting clearance: %w", err)
	}
	return expectRow(result)
}

// SetClearancePrices stores both clearance prices. Validation happens in
// catalog.SetClearancePricing.
func SetClearancePrices(ctx context.Context, db *sql.DB, id int64, original, clearance decimal.Decimal) error {
	result, err := db.ExecContext(ctx,
		`UPDATE products SET original_price = ?, clearance_price = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		original.String(), clearance.String(), id,
	)
	if err != nil {
		return fmt.Errorf("setting clearance prices: %w", err)
	}
	return expectRow(result)
}

// CountProducts counts a sector's products.
func CountProducts(ctx context.Context, db *sql.DB, sector model.Sector) (int, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE sector = ?`, string(sector),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting products: %w", err)
	}
	return n, nil
}

func expectRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// Products serves the catalog from the local database.
type Products struct {
	DB *sql.DB
}

var _ catalog.Store = (*Products)(nil)

func (s *Products) Page(ctx context.Context, sector model.Sector, offset, limit int) ([]model.Product, error) {
	return ListProducts(ctx, s.DB, sector, offset, limit)
}

func (s *Products) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return GetProduct(ctx, s.DB, id)
}

func (s *Products) CreateProduct(ctx context.Context, p *model.Product) (*model.Product, error) {
	return CreateProduct(ctx, s.DB, p)
}

func (s *Products) UpdateProduct(ctx context.Context, p *model.Product) error {
	return UpdateProduct(ctx, s.DB, p)
}

func (s *Products) DeleteProduct(ctx context.Context, id int64, sector model.Sector) error {
	return DeleteProduct(ctx, s.DB, id, sector)
}

func (s *Products) SetProductImage(ctx context.Context, id int64, url string) error {
	return SetProductImage(ctx, s.DB, id, url)
}

func (s *Products) SetClearance(ctx context.Context, id int64, on bool) error {
	return SetClearance(ctx, s.DB, id, on)
}

func (s *Products) SetClearancePrices(ctx context.Context, id int64, original, clearance decimal.Decimal) error {
	return SetClearancePrices(ctx, s.DB, id, original, clearance)
}

func (s *Products) CountProducts(ctx context.Context, sector model.Sector) (int, error) {
	return CountProducts(ctx, s.DB, sector)
}
