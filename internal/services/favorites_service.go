package services

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

type FavoritesService struct {
	Repo  *repos.FavoritesRepo
	Prods *repos.ProductRepo
}

func NewFavoritesService(r *repos.FavoritesRepo, prods *repos.ProductRepo) *FavoritesService {
	return &FavoritesService{Repo: r, Prods: prods}
}

// Replace sets the caller's favorites to productIDs. Unknown ids reject the whole set.
func (s *FavoritesService) Replace(ctx context.Context, userID string, productIDs []string) ([]domain.Product, error) {
	uniq := make([]string, 0, len(productIDs))
	seen := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	found, err := s.Prods.FindMany(ctx, uniq)
	if err != nil {
		return nil, err
	}
	for _, id := range uniq {
		if _, ok := found[id]; !ok {
			return nil, fmt.Errorf("favorite %s: %w", id, domain.ErrNotFound)
		}
	}
	if err := s.Repo.Replace(ctx, userID, uniq); err != nil {
		return nil, err
	}
	return s.Repo.List(ctx, userID)
}

func (s *FavoritesService) List(ctx context.Context, userID string) ([]domain.Product, error) {
	return s.Repo.List(ctx, userID)
}
