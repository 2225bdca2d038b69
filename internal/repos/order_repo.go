package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

type OrderRepo struct{ db sqlx.ExtContext }

func NewOrderRepo(db sqlx.ExtContext) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `id, user_id, total, status, created_at, COALESCE(published_at,'') AS published_at`

// CreateOrder inserts the order header and its lines. Run it inside a
// transaction when the lines must land together with other writes.
func (r *OrderRepo) CreateOrder(ctx context.Context, o domain.Order) (domain.Order, error) {
	if o.Status == "" {
		o.Status = domain.StatusPending
	}
	if _, err := r.db.ExecContext(ctx, `
	  INSERT INTO orders (id, user_id, total, status, created_at, published_at)
	  VALUES (?, ?, ?, ?, ?, ?)
	`, o.ID, o.UserID, o.Total, o.Status, o.CreatedAt, o.PublishedAt); err != nil {
		return domain.Order{}, err
	}
	for i, it := range o.Items {
		if _, err := r.db.ExecContext(ctx, `
		  INSERT INTO order_items(order_id, product_id, position, quantity, unit_price)
		  VALUES(?, ?, ?, ?, ?)
		`, o.ID, it.ProductID, i, it.Quantity, it.UnitPrice); err != nil {
			return domain.Order{}, err
		}
	}
	return o, nil
}

func (r *OrderRepo) FindOrder(ctx context.Context, id string) (domain.Order, error) {
	var o domain.Order
	if err := sqlx.GetContext(ctx, r.db, &o, `SELECT `+orderCols+` FROM orders WHERE id = ?`, id); err != nil {
		return domain.Order{}, notFound(err)
	}
	items, err := r.items(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = items
	return o, nil
}

func (r *OrderRepo) items(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	items := []domain.OrderLine{}
	err := sqlx.SelectContext(ctx, r.db, &items, `
		SELECT product_id, quantity, unit_price
		FROM order_items
		WHERE order_id = ?
		ORDER BY position
	`, orderID)
	return items, err
}

// OwnerOf returns the user id that placed the order.
func (r *OrderRepo) OwnerOf(ctx context.Context, id string) (string, error) {
	var uid string
	if err := sqlx.GetContext(ctx, r.db, &uid, `SELECT user_id FROM orders WHERE id = ?`, id); err != nil {
		return "", notFound(err)
	}
	return uid, nil
}

func (r *OrderRepo) ListLatest(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.list(ctx, `SELECT `+orderCols+` FROM orders ORDER BY created_at DESC, id LIMIT ?`, limit)
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderCols+` FROM orders WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
}

func (r *OrderRepo) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	out := []domain.Order{}
	if err := sqlx.SelectContext(ctx, r.db, &out, query, args...); err != nil {
		return nil, err
	}
	for i := range out {
		items, err := r.items(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CancelPending moves a pending order to canceled. It reports
// domain.ErrNotFound for a missing order and ok=false when the order has
// already left pending.
func (r *OrderRepo) CancelPending(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ? AND status = ?`,
		domain.StatusCanceled, id, domain.StatusPending)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}
	if _, err := r.OwnerOf(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}
