package handlers

import (
	"github.com/jmoiron/sqlx"

	"storefront/internal/config"
	"storefront/internal/repos"
	"storefront/internal/services"
)

// Deps is the composition root: every repo, service and policy is built
// here once and handed to the handlers explicitly.
type Deps struct {
	Auth        *services.AuthService
	OrderPolicy *services.OwnerPolicy
	SelfPolicy  *services.OwnerPolicy

	AuthHandler      *AuthHandler
	CategoryHandler  *CategoryHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	OrderHandler     *OrderHandler
	UserHandler      *UserHandler
	AdminHandler     *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	brandRepo := repos.NewBrandRepo(db)
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	userRepo := repos.NewUserRepo(db)
	favRepo := repos.NewFavoritesRepo(db)

	authSvc := &services.AuthService{Users: userRepo}
	catalogSvc := services.NewCatalogService(catRepo, brandRepo, prodRepo)
	orderSvc := services.NewOrderService(prodRepo, services.NewSQLUnitOfWork(db), orderRepo, cfg.TotalTolerance)
	favSvc := services.NewFavoritesService(favRepo, prodRepo)

	return &Deps{
		Auth:        authSvc,
		OrderPolicy: services.NewOrderPolicy(orderRepo),
		SelfPolicy:  services.NewSelfPolicy(),

		AuthHandler:      &AuthHandler{Auth: authSvc},
		CategoryHandler:  &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		InventoryHandler: &InventoryHandler{Catalog: catalogSvc},
		OrderHandler:     &OrderHandler{Order: orderSvc},
		UserHandler:      &UserHandler{Users: userRepo, Favs: favSvc},
		AdminHandler:     &AdminHandler{Order: orderSvc, Catalog: catalogSvc, Users: userRepo},
	}
}
