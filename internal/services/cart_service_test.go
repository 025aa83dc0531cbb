package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/gestion-commandes/storefront/internal/domain"
)

type stubCartRepository struct {
	getFunc  func(ctx context.Context, sessionID string) (domain.Cart, error)
	saveFunc func(ctx context.Context, cart domain.Cart) error
}

func (s *stubCartRepository) GetCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	if s.getFunc == nil {
		return domain.Cart{}, &repositoryErrorStub{notFound: true}
	}
	return s.getFunc(ctx, sessionID)
}

func (s *stubCartRepository) SaveCart(ctx context.Context, cart domain.Cart) error {
	if s.saveFunc == nil {
		return nil
	}
	return s.saveFunc(ctx, cart)
}

// memoryCartRepository keeps carts in a map so multi-step scenarios read their
// own writes.
type memoryCartRepository struct {
	carts map[string]domain.Cart
}

func newMemoryCartRepository() *memoryCartRepository {
	return &memoryCartRepository{carts: map[string]domain.Cart{}}
}

func (m *memoryCartRepository) GetCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	cart, ok := m.carts[sessionID]
	if !ok {
		return domain.Cart{}, &repositoryErrorStub{notFound: true}
	}
	return cart, nil
}

func (m *memoryCartRepository) SaveCart(ctx context.Context, cart domain.Cart) error {
	m.carts[cart.ID] = cart
	return nil
}

type stubCatalog struct {
	products map[string]domain.Product
}

func (s *stubCatalog) ListProducts(ctx context.Context, filter ProductListFilter) ([]Product, error) {
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubCatalog) GetProduct(ctx context.Context, productID string) (Product, error) {
	product, ok := s.products[productID]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return product, nil
}

func testCatalog() *stubCatalog {
	return &stubCatalog{products: map[string]domain.Product{
		"prd-basket": {ID: "prd-basket", Name: "basket nasa", SKU: "BASKET-001", Price: decimal.NewFromInt(40), Stock: 5},
		"prd-bombom": {ID: "prd-bombom", Name: "boite bombom", SKU: "BOMBOM-002", Price: decimal.NewFromInt(5), Stock: 3},
		"prd-gone":   {ID: "prd-gone", Name: "rupture", SKU: "GONE-003", Price: decimal.NewFromInt(9), Stock: 0},
	}}
}

func newTestCartService(t *testing.T, repo *memoryCartRepository, opts ...func(*CartServiceDeps)) CartService {
	t.Helper()
	deps := CartServiceDeps{
		Repository: repo,
		Catalog:    testCatalog(),
		Clock:      func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) },
	}
	for _, opt := range opts {
		opt(&deps)
	}
	service, err := NewCartService(deps)
	if err != nil {
		t.Fatalf("unexpected error constructing cart service: %v", err)
	}
	return service
}

func TestCartServiceAddToCartCreatesLine(t *testing.T) {
	repo := newMemoryCartRepository()
	service := newTestCartService(t, repo)
	ctx := context.Background()

	snapshot, err := service.AddToCart(ctx, "session-1", "prd-basket")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snapshot.Cart.Lines) != 1 {
		t.Fatalf("expected one line, got %d", len(snapshot.Cart.Lines))
	}
	line := snapshot.Cart.Lines[0]
	if line.ProductID != "prd-basket" || line.Quantity != 1 {
		t.Fatalf("unexpected line %+v", line)
	}
	if !line.UnitPrice.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected captured unit price 40, got %s", line.UnitPrice)
	}
	if _, ok := repo.carts["session-1"]; !ok {
		t.Fatal("expected cart persisted")
	}
}

func TestCartServiceAddToCartIncrementsUpToStock(t *testing.T) {
	repo := newMemoryCartRepository()
	service := newTestCartService(t, repo)
	ctx := context.Background()

	var snapshot CartSnapshot
	var err error
	for i := 0; i < 5; i++ {
		snapshot, err = service.AddToCart(ctx, "session-1", "prd-basket")
		if err != nil {
			t.Fatalf("add %d: unexpected error: %v", i+1, err)
		}
		if got := snapshot.Cart.Lines[0].Quantity; got != i+1 {
			t.Fatalf("add %d: expected quantity %d, got %d", i+1, i+1, got)
		}
	}

	_, err = service.AddToCart(ctx, "session-1", "prd-basket")
	if !errors.Is(err, ErrCartQuantityLimit) {
		t.Fatalf("expected ErrCartQuantityLimit, got %v", err)
	}

	persisted := repo.carts["session-1"]
	if persisted.Lines[0].Quantity != 5 {
		t.Fatalf("expected quantity pinned at stock 5, got %d", persisted.Lines[0].Quantity)
	}
}

func TestCartServiceAddToCartOutOfStock(t *testing.T) {
	repo := newMemoryCartRepository()
	service := newTestCartService(t, repo)
	ctx := context.Background()

	_, err := service.AddToCart(ctx, "session-1", "prd-gone")
	if !errors.Is(err, ErrCartOutOfStock) {
		t.Fatalf("expected ErrCartOutOfStock, got %v", err)
	}
	if len(repo.carts) != 0 {
		t.Fatal("expected no cart persisted for rejected add")
	}
}

func TestCartServiceAddToCartUnknownProduct(t *testing.T) {
	repo := newMemoryCartRepository()
	service := newTestCartService(t, repo)

	_, err := service.AddToCart(context.Background(), "session-1", "prd-nope")
	if !errors.Is(err, ErrCartProductNotFound) {
		t.Fatalf("expected ErrCartProductNotFound, got %v", err)
	}
	if len(repo.carts) != 0 {
		t.Fatal("expected cart untouched")
	}
}

func TestCartServiceAddCapturesPriceAtAddTime(t *testing.T) {
	repo := newMemoryCartRepository()
	catalog := testCatalog()
	service := newTestCartService(t, repo, func(deps *CartServiceDeps) {
		deps.Catalog = catalog
	})
	ctx := context.Background()

	if _, err := service.AddToCart(ctx, "session-1", "prd-basket"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Catalog price changes after the line exists.
	product := catalog.products["prd-basket"]
	product.Price = decimal.NewFromInt(99)
	catalog.products["prd-basket"] = product

	snapshot, err := service.AddToCart(ctx, "session-1", "prd-basket")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snapshot.Cart.Lines[0].UnitPrice.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected original captured price 40, got %s", snapshot.Cart.Lines[0].UnitPrice)
	}
}

func TestCartServiceSetQuantityClampsToStock(t *testing.T) {
	repo := newMemoryCartRepository()
	service := newTestCartService(t, repo)
	ctx := context.Background()

	if _, err := service.AddToCart(ctx, "session-1", "prd-basket"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshot, err := service.SetQuantity(ctx, "session-1", "prd-basket", 999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := snapshot.Cart.Lines[0].Quantity; got != 5 {
		t.Fatalf("expected clamp to stock 5, got %d", got)
	}
}

func TestCartServiceSetQuantityZeroRemovesLine(t *testing.T) {
	repo := newMemoryCartRepository()
	service := newTestCartService(t, repo)
	ctx := context.Background()

	if _, err := service.AddToCart(ctx, "session-1", "prd-basket"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshot, err := service.SetQuantity(ctx, "session-1", "prd-basket", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snapshot.Cart.Lines) != 0 {
		t.Fatalf("expected line removed, got %+v", snapshot.Cart.Lines)
	}

	// A second zero set is a no-op on an absent line.
	snapshot, err = service.SetQuantity(ctx, "session-1", "prd-basket", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snapshot.Cart.Lines) != 0 {
		t.Fatalf("expected still no lines, got %+v", snapshot.Cart.Lines)
	}
}

func TestCartServiceSetQuantityNegativeClampsToRemoval(t *testing.T) {
	repo := newMemoryCartRepository()
	service := newTestCartService(t, repo)
	ctx := context.Background()

	if _, err := service.AddToCart(ctx, "session-1", "prd-bombom"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snapshot, err := service.SetQuantity(ctx, "session-1", "prd-bombom", -4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snapshot.Cart.Lines) != 0 {
		t.Fatalf("expected removal on negative quantity, got %+v", snapshot.Cart.Lines)
	}
}

func TestCartServiceRemoveFromCart(t *testing.T) {
	repo := newMemoryCartRepository()
	service := newTestCartService(t, repo)
	ctx := context.Background()

	if _, err := service.AddToCart(ctx, "session-1", "prd-basket"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.AddToCart(ctx, "session-1", "prd-bombom"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshot, err := service.RemoveFromCart(ctx, "session-1", "prd-basket")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snapshot.Cart.Lines) != 1 || snapshot.Cart.Lines[0].ProductID != "prd-bombom" {
		t.Fatalf("expected only prd-bombom left, got %+v", snapshot.Cart.Lines)
	}
}

func TestCartServicePreservesInsertionOrder(t *testing.T) {
	repo := newMemoryCartRepository()
	service := newTestCartService(t, repo)
	ctx := context.Background()

	if _, err := service.AddToCart(ctx, "session-1", "prd-basket"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.AddToCart(ctx, "session-1", "prd-bombom"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snapshot, err := service.SetQuantity(ctx, "session-1", "prd-basket", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snapshot.Cart.Lines[0].ProductID != "prd-basket" || snapshot.Cart.Lines[1].ProductID != "prd-bombom" {
		t.Fatalf("expected insertion order preserved, got %+v", snapshot.Cart.Lines)
	}
}

func TestCartServiceTotalsWithDiscount(t *testing.T) {
	repo := newMemoryCartRepository()
	service := newTestCartService(t, repo, func(deps *CartServiceDeps) {
		deps.DiscountRate = decimal.NewFromInt(10)
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := service.AddToCart(ctx, "session-1", "prd-basket"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		if _, err := service.AddToCart(ctx, "session-1", "prd-bombom"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	snapshot, err := service.GetCart(ctx, "session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snapshot.Totals.Subtotal.Equal(decimal.NewFromInt(95)) {
		t.Fatalf("expected subtotal 95, got %s", snapshot.Totals.Subtotal)
	}
	if !snapshot.Totals.Discount.Equal(decimal.RequireFromString("9.5")) {
		t.Fatalf("expected discount 9.5, got %s", snapshot.Totals.Discount)
	}
	if !snapshot.Totals.Total.Equal(snapshot.Totals.Subtotal.Sub(snapshot.Totals.Discount)) {
		t.Fatalf("expected total = subtotal - discount, got %s", snapshot.Totals.Total)
	}
	if snapshot.ItemCount != 5 {
		t.Fatalf("expected item count 5, got %d", snapshot.ItemCount)
	}

	again, err := service.GetCart(ctx, "session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !again.Totals.Total.Equal(snapshot.Totals.Total) {
		t.Fatal("expected totals to be idempotent across reads")
	}
}

func TestCartServiceClear(t *testing.T) {
	repo := newMemoryCartRepository()
	service := newTestCartService(t, repo)
	ctx := context.Background()

	if _, err := service.AddToCart(ctx, "session-1", "prd-basket"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := service.Clear(ctx, "session-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshot, err := service.GetCart(ctx, "session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snapshot.Cart.Lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", snapshot.Cart.Lines)
	}
	if !snapshot.Totals.Total.IsZero() {
		t.Fatalf("expected zero total, got %s", snapshot.Totals.Total)
	}
}

func TestCartServiceNotifiesSubscribersAfterPersist(t *testing.T) {
	repo := newMemoryCartRepository()
	var notified []int
	service := newTestCartService(t, repo, func(deps *CartServiceDeps) {
		deps.Subscribers = []CartSubscriber{
			func(_ context.Context, cart Cart) {
				notified = append(notified, len(cart.Lines))
			},
		}
	})
	ctx := context.Background()

	if _, err := service.AddToCart(ctx, "session-1", "prd-basket"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.RemoveFromCart(ctx, "session-1", "prd-basket"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(notified) != 2 || notified[0] != 1 || notified[1] != 0 {
		t.Fatalf("expected notifications [1 0], got %v", notified)
	}
}

func TestCartServiceRejectedAddDoesNotNotify(t *testing.T) {
	repo := newMemoryCartRepository()
	calls := 0
	service := newTestCartService(t, repo, func(deps *CartServiceDeps) {
		deps.Subscribers = []CartSubscriber{
			func(context.Context, Cart) { calls++ },
		}
	})

	if _, err := service.AddToCart(context.Background(), "session-1", "prd-gone"); !errors.Is(err, ErrCartOutOfStock) {
		t.Fatalf("expected ErrCartOutOfStock, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no notification for rejected mutation, got %d", calls)
	}
}

func TestCartServiceCorruptCartDegradesToEmpty(t *testing.T) {
	repo := &stubCartRepository{
		getFunc: func(ctx context.Context, sessionID string) (domain.Cart, error) {
			return domain.Cart{}, &repositoryErrorStub{corrupt: true}
		},
	}
	var events []string
	service, err := NewCartService(CartServiceDeps{
		Repository: repo,
		Catalog:    testCatalog(),
		Clock:      time.Now,
		Logger: func(_ context.Context, event string, _ map[string]any) {
			events = append(events, event)
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshot, err := service.GetCart(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("expected corrupt cart to degrade, got %v", err)
	}
	if len(snapshot.Cart.Lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", snapshot.Cart.Lines)
	}
	if len(events) == 0 || events[0] != "cart.state_corrupt" {
		t.Fatalf("expected cart.state_corrupt logged, got %v", events)
	}
}

func TestCartServiceStoreUnavailable(t *testing.T) {
	repo := &stubCartRepository{
		getFunc: func(ctx context.Context, sessionID string) (domain.Cart, error) {
			return domain.Cart{}, &repositoryErrorStub{unavailable: true}
		},
	}
	service, err := NewCartService(CartServiceDeps{
		Repository: repo,
		Catalog:    testCatalog(),
		Clock:      time.Now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := service.GetCart(context.Background(), "session-1"); !errors.Is(err, ErrCartUnavailable) {
		t.Fatalf("expected ErrCartUnavailable, got %v", err)
	}
}
