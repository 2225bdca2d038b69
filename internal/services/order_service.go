package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// TimeLayout is fixed-width so stored timestamps sort lexically.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

var ErrUnauthenticated = errors.New("authentication required")

type LineRequest struct {
	ProductID string
	Quantity  int
}

// OrderQueries covers the read and admin paths around placed orders.
type OrderQueries interface {
	FindOrder(ctx context.Context, id string) (domain.Order, error)
	ListLatest(ctx context.Context, limit int) ([]domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id, status string) error
	CancelPending(ctx context.Context, id string) (bool, error)
}

type OrderService struct {
	Catalog   CatalogRepository
	UoW       UnitOfWork
	Orders    OrderQueries
	Tolerance decimal.Decimal

	Now   func() time.Time
	NewID func() string
}

func NewOrderService(catalog CatalogRepository, uow UnitOfWork, orders OrderQueries, tolerance decimal.Decimal) *OrderService {
	return &OrderService{
		Catalog:   catalog,
		UoW:       uow,
		Orders:    orders,
		Tolerance: tolerance,
		Now:       time.Now,
		NewID:     uuid.NewString,
	}
}

// Place validates every line against current stock and the client total,
// then creates the order and decrements stock in a single unit of work.
// The up-front check is only a gate; the conditional decrement is what
// keeps two concurrent buyers from overselling.
func (s *OrderService) Place(ctx context.Context, who *domain.Identity, lines []LineRequest, clientTotal decimal.Decimal) (domain.Order, error) {
	if who == nil || who.ID == "" {
		return domain.Order{}, ErrUnauthenticated
	}
	merged, err := mergeLines(lines)
	if err != nil {
		return domain.Order{}, err
	}

	items := make([]domain.OrderLine, 0, len(merged))
	total := decimal.Zero
	for _, l := range merged {
		p, err := s.Catalog.FindProduct(ctx, l.ProductID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Order{}, &ProductNotFoundError{ProductID: l.ProductID}
		}
		if err != nil {
			return domain.Order{}, &CreationError{Err: err}
		}
		if p.Stock < l.Quantity {
			return domain.Order{}, &InsufficientStockError{ProductID: l.ProductID, Available: p.Stock, Requested: l.Quantity}
		}
		unit := p.EffectivePrice()
		items = append(items, domain.OrderLine{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: unit})
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	total = total.Round(2)
	if clientTotal.Sub(total).Abs().GreaterThan(s.Tolerance) {
		return domain.Order{}, &TotalMismatchError{Client: clientTotal, Computed: total}
	}

	now := s.Now().UTC().Format(TimeLayout)
	order := domain.Order{
		ID:          s.NewID(),
		UserID:      who.ID,
		Items:       items,
		Total:       total,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		PublishedAt: now,
	}

	err = s.UoW.Do(ctx, func(catalog CatalogRepository, orders OrderRepository) error {
		created, err := orders.CreateOrder(ctx, order)
		if err != nil {
			return &CreationError{Err: err}
		}
		for _, it := range items {
			p, err := catalog.DecrementStock(ctx, it.ProductID, it.Quantity)
			switch {
			case errors.Is(err, domain.ErrInsufficientStock):
				return &InsufficientStockError{ProductID: it.ProductID, Available: p.Stock, Requested: it.Quantity}
			case errors.Is(err, domain.ErrNotFound):
				return &ProductNotFoundError{ProductID: it.ProductID}
			case err != nil:
				return &CreationError{Err: err}
			}
		}
		order = created
		return nil
	})
	if err != nil {
		var (
			nf *ProductNotFoundError
			is *InsufficientStockError
			ce *CreationError
		)
		if errors.As(err, &nf) || errors.As(err, &is) || errors.As(err, &ce) {
			return domain.Order{}, err
		}
		return domain.Order{}, &CreationError{Err: err}
	}
	return order, nil
}

// mergeLines folds repeated products into one line, keeping first-seen order.
func mergeLines(lines []LineRequest) ([]LineRequest, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	idx := make(map[string]int, len(lines))
	out := make([]LineRequest, 0, len(lines))
	for _, l := range lines {
		if l.ProductID == "" {
			return nil, &ProductNotFoundError{ProductID: l.ProductID}
		}
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if i, ok := idx[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out, nil
}

// List returns every order for admins and the caller's own orders otherwise.
func (s *OrderService) List(ctx context.Context, who *domain.Identity) ([]domain.Order, error) {
	if who == nil {
		return nil, ErrUnauthenticated
	}
	if who.IsAdmin() {
		return s.Orders.ListLatest(ctx, 100)
	}
	return s.Orders.ListByUser(ctx, who.ID)
}

func (s *OrderService) Get(ctx context.Context, id string) (domain.Order, error) {
	return s.Orders.FindOrder(ctx, id)
}

var ErrInvalidStatus = errors.New("invalid order status")

func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) error {
	if !domain.ValidStatus(status) {
		return ErrInvalidStatus
	}
	return s.Orders.UpdateStatus(ctx, id, status)
}

var ErrNotCancelable = errors.New("only pending orders can be canceled")

// Cancel withdraws a pending order. Ownership is checked by the order policy
// before this runs. Stock is not restored.
func (s *OrderService) Cancel(ctx context.Context, id string) (domain.Order, error) {
	ok, err := s.Orders.CancelPending(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !ok {
		return domain.Order{}, ErrNotCancelable
	}
	return s.Orders.FindOrder(ctx, id)
}
