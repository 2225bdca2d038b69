package services

import (
	"context"

	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

// CatalogRepository is the slice of the catalog store order placement needs.
type CatalogRepository interface {
	FindProduct(ctx context.Context, id string) (domain.Product, error)
	// DecrementStock must be a conditional write: it fails with
	// domain.ErrInsufficientStock instead of driving stock below zero.
	DecrementStock(ctx context.Context, id string, qty int) (domain.Product, error)
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, o domain.Order) (domain.Order, error)
	FindOrder(ctx context.Context, id string) (domain.Order, error)
}

// UnitOfWork runs fn against repositories that share one transaction.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(catalog CatalogRepository, orders OrderRepository) error) error
}

type sqlUnitOfWork struct{ db *sqlx.DB }

// NewSQLUnitOfWork backs a UnitOfWork with a sqlx transaction.
func NewSQLUnitOfWork(db *sqlx.DB) UnitOfWork { return sqlUnitOfWork{db: db} }

func (u sqlUnitOfWork) Do(ctx context.Context, fn func(CatalogRepository, OrderRepository) error) error {
	return repos.InTx(ctx, u.db, func(tx *sqlx.Tx) error {
		return fn(repos.NewProductRepo(tx), repos.NewOrderRepo(tx))
	})
}
