package repos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

type ProductRepo struct{ db sqlx.ExtContext }

// NewProductRepo accepts either *sqlx.DB or *sqlx.Tx.
func NewProductRepo(db sqlx.ExtContext) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
    id, COALESCE(category_id,'') AS category_id, COALESCE(brand_id,'') AS brand_id,
    name, description, price, discount, stock, is_active,
    created_at, COALESCE(updated_at,'') AS updated_at`

type ProductFilter struct {
	CategoryID string
	BrandID    string
	Search     string
	Limit      int
	Offset     int
}

func (r *ProductRepo) FindProduct(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, r.db, &p, `SELECT`+productCols+` FROM products WHERE id = ?`, id)
	if err != nil {
		return domain.Product{}, notFound(err)
	}
	return p, nil
}

// List returns active products only, newest first.
func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	where := `is_active = 1`
	args := []any{}
	if f.CategoryID != "" {
		where += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.BrandID != "" {
		where += ` AND brand_id = ?`
		args = append(args, f.BrandID)
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		where += ` AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)`
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	if f.Limit <= 0 {
		f.Limit = 25
	}
	args = append(args, f.Limit, f.Offset)

	out := []domain.Product{}
	err := sqlx.SelectContext(ctx, r.db, &out, `SELECT`+productCols+`
  FROM products
  WHERE `+where+`
  ORDER BY datetime(created_at) DESC, id
  LIMIT ? OFFSET ?`, args...)
	return out, err
}

// FindMany returns the products among ids that exist, keyed by id.
func (r *ProductRepo) FindMany(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT`+productCols+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.Product
	if err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// DecrementStock subtracts qty only if enough stock exists, and deactivates
// the product when it reaches zero. On a failed guard it returns the current
// product together with domain.ErrInsufficientStock.
func (r *ProductRepo) DecrementStock(ctx context.Context, id string, qty int) (domain.Product, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - ?,
		    is_active = CASE WHEN stock - ? > 0 THEN 1 ELSE 0 END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock >= ?
	`, qty, qty, id, qty)
	if err != nil {
		return domain.Product{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Product{}, err
	}
	p, ferr := r.FindProduct(ctx, id)
	if ferr != nil {
		return domain.Product{}, ferr
	}
	if n == 0 {
		return p, domain.ErrInsufficientStock
	}
	return p, nil
}

// SetStock is the catalog-management write. A nil active follows the stock rule.
func (r *ProductRepo) SetStock(ctx context.Context, id string, stock int, active *bool) (domain.Product, error) {
	isActive := stock > 0
	if active != nil {
		isActive = *active
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET stock = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, stock, isActive, id)
	if err != nil {
		return domain.Product{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Product{}, domain.ErrNotFound
	}
	return r.FindProduct(ctx, id)
}
