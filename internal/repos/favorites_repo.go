package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

type FavoritesRepo struct{ db *sqlx.DB }

func NewFavoritesRepo(db *sqlx.DB) *FavoritesRepo { return &FavoritesRepo{db: db} }

// Replace swaps the user's favorite set for productIDs in one transaction.
func (r *FavoritesRepo) Replace(ctx context.Context, userID string, productIDs []string) error {
	return InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM favorites WHERE user_id=?`, userID); err != nil {
			return err
		}
		for _, pid := range productIDs {
			if _, err := tx.ExecContext(ctx, `
			  INSERT INTO favorites(user_id, product_id, created_at)
			  VALUES(?, ?, CURRENT_TIMESTAMP)
			  ON CONFLICT(user_id, product_id) DO NOTHING
			`, userID, pid); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *FavoritesRepo) List(ctx context.Context, userID string) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT p.id, COALESCE(p.category_id,'') AS category_id, COALESCE(p.brand_id,'') AS brand_id,
	         p.name, p.description, p.price, p.discount, p.stock, p.is_active,
	         p.created_at, COALESCE(p.updated_at,'') AS updated_at
	  FROM favorites f
	  JOIN products p ON p.id = f.product_id
	  WHERE f.user_id = ?
	  ORDER BY p.name
	`, userID)
	return out, err
}
