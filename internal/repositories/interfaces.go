package repositories

import (
	"context"

	domain "github.com/gestion-commandes/storefront/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation
// used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsCorrupt() bool
	IsUnavailable() bool
}

// CatalogRepository reads the product list out of the shared record document.
type CatalogRepository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// CartRepository persists per-session cart state.
type CartRepository interface {
	GetCart(ctx context.Context, sessionID string) (domain.Cart, error)
	SaveCart(ctx context.Context, cart domain.Cart) error
}

// OrderRepository appends placed orders to the shared order list. Append is a
// read-modify-write over the whole document; previously persisted orders must
// never be dropped.
type OrderRepository interface {
	AppendOrder(ctx context.Context, order domain.Order) error
	ListOrders(ctx context.Context) ([]domain.Order, error)
}
