package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.db.SelectContext(ctx, &out, `
  SELECT id, name, description, is_active
  FROM categories
  WHERE is_active = 1
  ORDER BY name
`)
	return out, err
}

type BrandRepo struct{ db *sqlx.DB }

func NewBrandRepo(db *sqlx.DB) *BrandRepo { return &BrandRepo{db: db} }

func (r *BrandRepo) List(ctx context.Context) ([]domain.Brand, error) {
	out := []domain.Brand{}
	err := r.db.SelectContext(ctx, &out, `
  SELECT id, name, description, is_active
  FROM brands
  WHERE is_active = 1
  ORDER BY name
`)
	return out, err
}
