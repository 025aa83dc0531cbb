package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/gestion-commandes/storefront/internal/domain"
	"github.com/gestion-commandes/storefront/internal/repositories"
)

var (
	errCartRepositoryRequired = errors.New("cart service: cart repository is required")
	errCartCatalogRequired    = errors.New("cart service: catalog service is required")
	errCartClockRequired      = errors.New("cart service: clock is required")
)

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// ErrCartUnavailable indicates the cart service cannot fulfil the request due
// to missing dependencies or backend issues.
var ErrCartUnavailable = errors.New("cart service: unavailable")

// ErrCartProductNotFound indicates the product id does not exist in the
// catalog. The cart is left untouched.
var ErrCartProductNotFound = errors.New("cart service: product not found")

// ErrCartOutOfStock indicates the product has no stock left. User-facing and
// recoverable; the cart is left untouched.
var ErrCartOutOfStock = errors.New("cart service: product out of stock")

// ErrCartQuantityLimit indicates the line already holds every available unit.
// User-facing and recoverable; the quantity is left unchanged.
var ErrCartQuantityLimit = errors.New("cart service: quantity limit reached")

// CartServiceDeps wires the repository, catalog and notification dependencies
// for cart operations.
type CartServiceDeps struct {
	Repository   repositories.CartRepository
	Catalog      CatalogService
	DiscountRate decimal.Decimal
	Clock        func() time.Time
	Logger       func(context.Context, string, map[string]any)
	Subscribers  []CartSubscriber
}

type cartService struct {
	repo         repositories.CartRepository
	catalog      CatalogService
	discountRate decimal.Decimal
	now          func() time.Time
	logger       func(context.Context, string, map[string]any)
	subscribers  []CartSubscriber
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Repository == nil {
		return nil, errCartRepositoryRequired
	}
	if deps.Catalog == nil {
		return nil, errCartCatalogRequired
	}
	if deps.Clock == nil {
		return nil, errCartClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	rate := deps.DiscountRate
	if rate.IsNegative() {
		rate = decimal.Zero
	}

	return &cartService{
		repo:         deps.Repository,
		catalog:      deps.Catalog,
		discountRate: rate,
		now:          func() time.Time { return deps.Clock().UTC() },
		logger:       logger,
		subscribers:  append([]CartSubscriber(nil), deps.Subscribers...),
	}, nil
}

// GetCart loads the session's cart, creating an empty one when absent.
func (s *cartService) GetCart(ctx context.Context, sessionID string) (CartSnapshot, error) {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return CartSnapshot{}, ErrCartInvalidInput
	}
	cart, err := s.loadCart(ctx, sid)
	if err != nil {
		return CartSnapshot{}, err
	}
	return s.snapshot(cart), nil
}

// AddToCart adds one unit of the product, merging into an existing line. The
// unit price is captured from the catalog at add time so later price changes
// never reprice an open cart.
func (s *cartService) AddToCart(ctx context.Context, sessionID, productID string) (CartSnapshot, error) {
	sid := strings.TrimSpace(sessionID)
	pid := strings.TrimSpace(productID)
	if sid == "" || pid == "" {
		return CartSnapshot{}, ErrCartInvalidInput
	}

	product, err := s.catalog.GetProduct(ctx, pid)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return CartSnapshot{}, ErrCartProductNotFound
		}
		return CartSnapshot{}, ErrCartUnavailable
	}
	if product.Stock <= 0 {
		return CartSnapshot{}, ErrCartOutOfStock
	}

	cart, err := s.loadCart(ctx, sid)
	if err != nil {
		return CartSnapshot{}, err
	}

	idx := indexOfLine(cart.Lines, pid)
	if idx >= 0 {
		if cart.Lines[idx].Quantity >= product.Stock {
			return CartSnapshot{}, ErrCartQuantityLimit
		}
		cart.Lines[idx].Quantity++
	} else {
		cart.Lines = append(cart.Lines, domain.CartLine{
			ProductID: product.ID,
			Quantity:  1,
			UnitPrice: product.Price,
		})
	}

	return s.persist(ctx, cart)
}

// SetQuantity clamps the requested quantity into [0, stock]; a clamped zero
// removes the line. Both increment and decrement route through here. A missing
// line or product is a no-op.
func (s *cartService) SetQuantity(ctx context.Context, sessionID, productID string, quantity int) (CartSnapshot, error) {
	sid := strings.TrimSpace(sessionID)
	pid := strings.TrimSpace(productID)
	if sid == "" || pid == "" {
		return CartSnapshot{}, ErrCartInvalidInput
	}

	cart, err := s.loadCart(ctx, sid)
	if err != nil {
		return CartSnapshot{}, err
	}

	idx := indexOfLine(cart.Lines, pid)
	if idx < 0 {
		return s.snapshot(cart), nil
	}

	product, err := s.catalog.GetProduct(ctx, pid)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return s.snapshot(cart), nil
		}
		return CartSnapshot{}, ErrCartUnavailable
	}

	clamped := quantity
	if clamped < 0 {
		clamped = 0
	}
	if clamped > product.Stock {
		clamped = product.Stock
	}

	if clamped == 0 {
		cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
	} else {
		cart.Lines[idx].Quantity = clamped
	}

	return s.persist(ctx, cart)
}

// RemoveFromCart deletes the line for the product regardless of quantity.
func (s *cartService) RemoveFromCart(ctx context.Context, sessionID, productID string) (CartSnapshot, error) {
	sid := strings.TrimSpace(sessionID)
	pid := strings.TrimSpace(productID)
	if sid == "" || pid == "" {
		return CartSnapshot{}, ErrCartInvalidInput
	}

	cart, err := s.loadCart(ctx, sid)
	if err != nil {
		return CartSnapshot{}, err
	}

	idx := indexOfLine(cart.Lines, pid)
	if idx < 0 {
		return s.snapshot(cart), nil
	}
	cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)

	return s.persist(ctx, cart)
}

// Clear empties the cart. Invoked by callers after a successful checkout
// commit.
func (s *cartService) Clear(ctx context.Context, sessionID string) error {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return ErrCartInvalidInput
	}

	cart, err := s.loadCart(ctx, sid)
	if err != nil {
		return err
	}
	cart.Lines = []domain.CartLine{}

	_, err = s.persist(ctx, cart)
	return err
}

// loadCart fetches the persisted cart for the session. Absence yields a fresh
// cart; a corrupt record degrades to a fresh cart with a warning rather than
// blocking the storefront.
func (s *cartService) loadCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, sessionID)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) {
			switch {
			case repoErr.IsNotFound():
				return s.newCart(sessionID), nil
			case repoErr.IsCorrupt():
				s.logger(ctx, "cart.state_corrupt", map[string]any{
					"sessionID": sessionID,
					"error":     err.Error(),
				})
				return s.newCart(sessionID), nil
			}
		}
		return domain.Cart{}, ErrCartUnavailable
	}

	cart.ID = sessionID
	if cart.Lines == nil {
		cart.Lines = []domain.CartLine{}
	}
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = s.now()
	}
	return cart, nil
}

func (s *cartService) newCart(sessionID string) domain.Cart {
	now := s.now()
	return domain.Cart{
		ID:        sessionID,
		Lines:     []domain.CartLine{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *cartService) persist(ctx context.Context, cart domain.Cart) (CartSnapshot, error) {
	cart.UpdatedAt = s.now()
	if err := s.repo.SaveCart(ctx, cart); err != nil {
		s.logger(ctx, "cart.persist_failed", map[string]any{
			"sessionID": cart.ID,
			"error":     err.Error(),
		})
		return CartSnapshot{}, ErrCartUnavailable
	}

	s.notify(ctx, cart)
	return s.snapshot(cart), nil
}

func (s *cartService) notify(ctx context.Context, cart domain.Cart) {
	for _, subscriber := range s.subscribers {
		if subscriber != nil {
			subscriber(ctx, cloneCart(cart))
		}
	}
}

func (s *cartService) snapshot(cart domain.Cart) CartSnapshot {
	dup := cloneCart(cart)
	return CartSnapshot{
		Cart:      dup,
		Totals:    domain.ComputeTotals(dup.Lines, s.discountRate),
		ItemCount: dup.ItemCount(),
	}
}

func cloneCart(cart domain.Cart) domain.Cart {
	dup := cart
	dup.Lines = make([]domain.CartLine, len(cart.Lines))
	copy(dup.Lines, cart.Lines)
	return dup
}

func indexOfLine(lines []domain.CartLine, productID string) int {
	for i, line := range lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}
