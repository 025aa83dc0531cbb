package services

import (
	"context"

	domain "github.com/gestion-commandes/storefront/internal/domain"
)

// Type aliases expose domain models to the services package without reversing
// dependency direction.
type (
	Product   = domain.Product
	Cart      = domain.Cart
	CartLine  = domain.CartLine
	Totals    = domain.Totals
	Order     = domain.Order
	OrderItem = domain.OrderItem
)

// ProductSort enumerates the supported catalog orderings.
type ProductSort string

const (
	// ProductSortFeatured keeps the stored catalog order.
	ProductSortFeatured ProductSort = "featured"
	// ProductSortPriceAsc orders cheapest first.
	ProductSortPriceAsc ProductSort = "price-asc"
	// ProductSortPriceDesc orders most expensive first.
	ProductSortPriceDesc ProductSort = "price-desc"
	// ProductSortStockDesc orders highest stock first.
	ProductSortStockDesc ProductSort = "stock-desc"
)

// ProductListFilter carries catalog search and ordering parameters.
type ProductListFilter struct {
	Query string
	Sort  ProductSort
}

// CatalogService loads and serves the normalised product set for the session.
type CatalogService interface {
	ListProducts(ctx context.Context, filter ProductListFilter) ([]Product, error)
	GetProduct(ctx context.Context, productID string) (Product, error)
}

// CartSnapshot bundles the cart state with its derived totals so callers never
// recompute or cache totals themselves.
type CartSnapshot struct {
	Cart      Cart
	Totals    Totals
	ItemCount int
}

// CartSubscriber observes cart state changes. Subscribers are notified after
// a mutation has been persisted; the cart state never depends on them.
type CartSubscriber func(ctx context.Context, cart Cart)

// CartService owns per-session cart state: quantity clamping against stock,
// derived totals, persistence and change notification.
type CartService interface {
	GetCart(ctx context.Context, sessionID string) (CartSnapshot, error)
	AddToCart(ctx context.Context, sessionID, productID string) (CartSnapshot, error)
	SetQuantity(ctx context.Context, sessionID, productID string, quantity int) (CartSnapshot, error)
	RemoveFromCart(ctx context.Context, sessionID, productID string) (CartSnapshot, error)
	Clear(ctx context.Context, sessionID string) error
}

// BuildOrderCommand carries the checkout submission for one session.
type BuildOrderCommand struct {
	SessionID string
	Customer  string
	Email     string
	Notes     string
}

// CheckoutService composes immutable orders from cart snapshots and appends
// them to the shared order list. Callers clear the cart after a successful
// commit; composing an order always ends the cart's lifecycle.
type CheckoutService interface {
	BuildOrder(ctx context.Context, cmd BuildOrderCommand) (Order, error)
	CommitOrder(ctx context.Context, order Order) error
}
