package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"storefront/internal/domain"
)

// memStore is an in-memory catalog/order store. Do runs fn against a copy
// and publishes it only when fn succeeds.
type memStore struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	products map[string]domain.Product
	orders   map[string]domain.Order

	failDecrement string
	failCreate    error
}

func newMemStore(products ...domain.Product) *memStore {
	s := &memStore{products: map[string]domain.Product{}, orders: map[string]domain.Order{}}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *memStore) FindProduct(_ context.Context, id string) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *memStore) DecrementStock(_ context.Context, id string, qty int) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == s.failDecrement {
		return domain.Product{}, errors.New("disk full")
	}
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	if p.Stock < qty {
		return p, domain.ErrInsufficientStock
	}
	p.Stock -= qty
	p.IsActive = p.Stock > 0
	s.products[id] = p
	return p, nil
}

func (s *memStore) CreateOrder(_ context.Context, o domain.Order) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return domain.Order{}, s.failCreate
	}
	s.orders[o.ID] = o
	return o, nil
}

func (s *memStore) FindOrder(_ context.Context, id string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

func (s *memStore) Do(_ context.Context, fn func(CatalogRepository, OrderRepository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	tx := &memStore{
		products:      make(map[string]domain.Product, len(s.products)),
		orders:        make(map[string]domain.Order, len(s.orders)),
		failDecrement: s.failDecrement,
		failCreate:    s.failCreate,
	}
	for k, v := range s.products {
		tx.products[k] = v
	}
	for k, v := range s.orders {
		tx.orders[k] = v
	}
	s.mu.Unlock()

	if err := fn(tx, tx); err != nil {
		return err
	}
	s.mu.Lock()
	s.products, s.orders = tx.products, tx.orders
	s.mu.Unlock()
	return nil
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memStore) stock(t *testing.T, id string) domain.Product {
	t.Helper()
	p, err := s.FindProduct(context.Background(), id)
	require.NoError(t, err)
	return p
}

func product(id, price string, discount, stock int) domain.Product {
	return domain.Product{ID: id, Name: id, Price: decimal.RequireFromString(price), Discount: discount, Stock: stock, IsActive: stock > 0}
}

func newTestOrderService(s *memStore) *OrderService {
	svc := NewOrderService(s, s, nil, decimal.New(1, -2))
	n := 0
	svc.NewID = func() string { n++; return fmt.Sprintf("ord-%d", n) }
	svc.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc
}

var customer = &domain.Identity{ID: "u-alice", RoleType: domain.RoleAuthenticated}

func TestPlace_DecrementsStockForEveryLine(t *testing.T) {
	s := newMemStore(product("a", "10.00", 0, 5), product("b", "20.00", 50, 3))
	svc := newTestOrderService(s)

	// 2*10.00 + 1*(20.00 at 50% off)
	o, err := svc.Place(context.Background(), customer, []LineRequest{{"a", 2}, {"b", 1}}, decimal.RequireFromString("30.00"))
	require.NoError(t, err)

	assert.Equal(t, "ord-1", o.ID)
	assert.Equal(t, "u-alice", o.UserID)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("30")), "total %s", o.Total)
	assert.Equal(t, "2026-01-02T03:04:05.000000Z", o.CreatedAt)
	assert.Equal(t, o.CreatedAt, o.PublishedAt)
	require.Len(t, o.Items, 2)
	assert.True(t, o.Items[1].UnitPrice.Equal(decimal.RequireFromString("10")))

	assert.Equal(t, 3, s.stock(t, "a").Stock)
	assert.Equal(t, 2, s.stock(t, "b").Stock)
	assert.Equal(t, 1, s.orderCount())
}

func TestPlace_StockToZeroDeactivates(t *testing.T) {
	s := newMemStore(product("a", "5.00", 0, 2), product("b", "5.00", 0, 4))
	svc := newTestOrderService(s)

	_, err := svc.Place(context.Background(), customer, []LineRequest{{"a", 2}, {"b", 1}}, decimal.RequireFromString("15"))
	require.NoError(t, err)

	a := s.stock(t, "a")
	assert.Equal(t, 0, a.Stock)
	assert.False(t, a.IsActive)

	b := s.stock(t, "b")
	assert.Equal(t, 3, b.Stock)
	assert.True(t, b.IsActive)
}

func TestPlace_InsufficientStockCreatesNoOrder(t *testing.T) {
	s := newMemStore(product("a", "10.00", 0, 5), product("b", "10.00", 0, 1))
	svc := newTestOrderService(s)

	_, err := svc.Place(context.Background(), customer, []LineRequest{{"a", 1}, {"b", 2}}, decimal.RequireFromString("30"))

	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "b", ise.ProductID)
	assert.Equal(t, 1, ise.Available)
	assert.Equal(t, 2, ise.Requested)
	assert.Zero(t, s.orderCount())
	assert.Equal(t, 5, s.stock(t, "a").Stock, "no line may be decremented")
}

func TestPlace_UnknownProductCreatesNoOrder(t *testing.T) {
	s := newMemStore(product("a", "10.00", 0, 5))
	svc := newTestOrderService(s)

	_, err := svc.Place(context.Background(), customer, []LineRequest{{"a", 1}, {"ghost", 1}}, decimal.RequireFromString("20"))

	var nf *ProductNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ghost", nf.ProductID)
	assert.Zero(t, s.orderCount())
	assert.Equal(t, 5, s.stock(t, "a").Stock)
}

func TestPlace_RejectsTamperedTotal(t *testing.T) {
	s := newMemStore(product("a", "129.99", 0, 5))
	svc := newTestOrderService(s)

	_, err := svc.Place(context.Background(), customer, []LineRequest{{"a", 2}}, decimal.RequireFromString("2.00"))

	var tm *TotalMismatchError
	require.ErrorAs(t, err, &tm)
	assert.True(t, tm.Computed.Equal(decimal.RequireFromString("259.98")))
	assert.Zero(t, s.orderCount())
	assert.Equal(t, 5, s.stock(t, "a").Stock)
}

func TestPlace_ToleratesRounding(t *testing.T) {
	s := newMemStore(product("a", "9.99", 15, 5)) // 8.4915 -> 8.49
	svc := newTestOrderService(s)

	o, err := svc.Place(context.Background(), customer, []LineRequest{{"a", 3}}, decimal.RequireFromString("25.4745"))
	require.NoError(t, err)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("25.47")), "total %s", o.Total)
}

func TestPlace_MergesDuplicateLines(t *testing.T) {
	s := newMemStore(product("a", "1.00", 0, 3))
	svc := newTestOrderService(s)

	_, err := svc.Place(context.Background(), customer, []LineRequest{{"a", 2}, {"a", 2}}, decimal.RequireFromString("4"))
	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 4, ise.Requested)

	o, err := svc.Place(context.Background(), customer, []LineRequest{{"a", 1}, {"a", 2}}, decimal.RequireFromString("3"))
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.Equal(t, 0, s.stock(t, "a").Stock)
}

func TestPlace_RejectsMalformedCarts(t *testing.T) {
	s := newMemStore(product("a", "1.00", 0, 3))
	svc := newTestOrderService(s)
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		_, err := svc.Place(ctx, customer, nil, decimal.Zero)
		assert.ErrorIs(t, err, ErrEmptyOrder)
	})
	t.Run("zero quantity", func(t *testing.T) {
		_, err := svc.Place(ctx, customer, []LineRequest{{"a", 0}}, decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})
	t.Run("negative quantity", func(t *testing.T) {
		_, err := svc.Place(ctx, customer, []LineRequest{{"a", -1}}, decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})
	t.Run("anonymous", func(t *testing.T) {
		_, err := svc.Place(ctx, nil, []LineRequest{{"a", 1}}, decimal.RequireFromString("1"))
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
	assert.Zero(t, s.orderCount())
}

func TestPlace_StorageFailureRollsBack(t *testing.T) {
	s := newMemStore(product("a", "1.00", 0, 3), product("b", "1.00", 0, 3))
	s.failDecrement = "b"
	svc := newTestOrderService(s)

	_, err := svc.Place(context.Background(), customer, []LineRequest{{"a", 1}, {"b", 1}}, decimal.RequireFromString("2"))

	var ce *CreationError
	require.ErrorAs(t, err, &ce)
	assert.EqualError(t, errors.Unwrap(err), "disk full")
	assert.Zero(t, s.orderCount())
	assert.Equal(t, 3, s.stock(t, "a").Stock, "earlier decrement must roll back")
}

func TestPlace_CreateFailureIsCreationError(t *testing.T) {
	s := newMemStore(product("a", "1.00", 0, 3))
	s.failCreate = errors.New("constraint failed")
	svc := newTestOrderService(s)

	_, err := svc.Place(context.Background(), customer, []LineRequest{{"a", 1}}, decimal.RequireFromString("1"))
	var ce *CreationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 3, s.stock(t, "a").Stock)
}

func TestPlace_ConcurrentBuyersOfLastUnits(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newMemStore(product("a", "1.00", 0, 4))
	svc := newTestOrderService(s)
	var mu sync.Mutex
	n := 0
	svc.NewID = func() string { mu.Lock(); defer mu.Unlock(); n++; return fmt.Sprintf("ord-%d", n) }

	const buyers = 8
	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Place(context.Background(), customer, []LineRequest{{"a", 4}}, decimal.RequireFromString("4"))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		var ise *InsufficientStockError
		require.ErrorAs(t, err, &ise)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, s.orderCount())
	assert.Equal(t, 0, s.stock(t, "a").Stock)
}
