package services

import (
	"context"
	"errors"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

var ErrInvalidStock = errors.New("stock must be zero or more")

type CatalogService struct {
	Cats   *repos.CategoryRepo
	Brands *repos.BrandRepo
	Prods  *repos.ProductRepo
}

func NewCatalogService(cats *repos.CategoryRepo, brands *repos.BrandRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Cats: cats, Brands: brands, Prods: prods}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

func (s *CatalogService) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	return s.Brands.List(ctx)
}

type ProductQuery struct {
	Category string
	Brand    string
	Search   string
	Page     int
	Limit    int
}

func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) ([]domain.Product, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.Limit <= 0:
		q.Limit = 25
	case q.Limit > 100:
		q.Limit = 100
	}
	return s.Prods.List(ctx, repos.ProductFilter{
		CategoryID: q.Category,
		BrandID:    q.Brand,
		Search:     q.Search,
		Limit:      q.Limit,
		Offset:     (q.Page - 1) * q.Limit,
	})
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return s.Prods.FindProduct(ctx, id)
}

// CheckAvailability converts stock into IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
// Missing products read as out of stock.
func (s *CatalogService) CheckAvailability(ctx context.Context, productID string) (domain.Availability, error) {
	p, err := s.Prods.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Availability{Status: "OUT_OF_STOCK", Qty: 0}, nil
		}
		return domain.Availability{}, err
	}

	qty := p.Stock
	if !p.IsActive {
		qty = 0
	}
	status := "OUT_OF_STOCK"
	switch {
	case qty >= 5:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: qty}, nil
}

// SetStock is the admin write path. A nil active follows the stock rule.
// An explicit active flag holds only until the next order decrements stock.
func (s *CatalogService) SetStock(ctx context.Context, productID string, stock int, active *bool) (domain.Product, error) {
	if stock < 0 {
		return domain.Product{}, ErrInvalidStock
	}
	return s.Prods.SetStock(ctx, productID, stock, active)
}
