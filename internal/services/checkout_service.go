package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	domain "github.com/gestion-commandes/storefront/internal/domain"
	"github.com/gestion-commandes/storefront/internal/repositories"
)

const (
	maxCheckoutFieldLength = 200
	maxCheckoutNotesLength = 2000

	// Pickup codes avoid O and I so a code read over the phone is never
	// ambiguous with 0 and 1.
	pickupCodeCharset  = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	pickupCodeGroups   = 2
	pickupCodeGroupLen = 3
)

// ErrCheckoutValidation indicates customer or email is missing after trimming.
// Checkout is blocked; no state is mutated.
var ErrCheckoutValidation = errors.New("checkout service: invalid customer details")

// ErrCheckoutEmptyCart indicates checkout was attempted with no line items.
var ErrCheckoutEmptyCart = errors.New("checkout service: cart is empty")

// ErrCheckoutUnavailable indicates checkout dependencies cannot be reached.
var ErrCheckoutUnavailable = errors.New("checkout service: unavailable")

// ErrCheckoutStoreFailure indicates the order could not be appended to the
// persisted order list. Reported to the caller, never retried here.
var ErrCheckoutStoreFailure = errors.New("checkout service: order store failure")

// CheckoutServiceDeps wires the dependencies required by the order composer.
type CheckoutServiceDeps struct {
	Orders        repositories.OrderRepository
	Carts         CartService
	Catalog       CatalogService
	DiscountRate  decimal.Decimal
	Clock         func() time.Time
	Logger        func(context.Context, string, map[string]any)
	IDGenerator   func() string
	CodeGenerator func() string
}

type checkoutService struct {
	orders       repositories.OrderRepository
	carts        CartService
	catalog      CatalogService
	discountRate decimal.Decimal
	now          func() time.Time
	logger       func(context.Context, string, map[string]any)
	newID        func() string
	newCode      func() string
	sanitizer    *bluemonday.Policy
}

// NewCheckoutService constructs a CheckoutService validating required
// dependencies.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Orders == nil {
		return nil, errors.New("checkout service: order repository is required")
	}
	if deps.Carts == nil {
		return nil, errors.New("checkout service: cart service is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("checkout service: catalog service is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return "ord-" + strings.ToLower(ulid.Make().String()) }
	}
	codeGen := deps.CodeGenerator
	if codeGen == nil {
		codeGen = generatePickupCode
	}
	rate := deps.DiscountRate
	if rate.IsNegative() {
		rate = decimal.Zero
	}

	return &checkoutService{
		orders:       deps.Orders,
		carts:        deps.Carts,
		catalog:      deps.Catalog,
		discountRate: rate,
		now:          func() time.Time { return clock().UTC() },
		logger:       logger,
		newID:        idGen,
		newCode:      codeGen,
		sanitizer:    bluemonday.StrictPolicy(),
	}, nil
}

// BuildOrder validates the submission, snapshots the cart into an immutable
// order and computes its total independently from the line items. The cart is
// left untouched; nothing is persisted yet.
func (s *checkoutService) BuildOrder(ctx context.Context, cmd BuildOrderCommand) (Order, error) {
	sessionID := strings.TrimSpace(cmd.SessionID)
	if sessionID == "" {
		return Order{}, ErrCheckoutValidation
	}

	customer := s.cleanField(cmd.Customer, maxCheckoutFieldLength)
	email := s.cleanField(cmd.Email, maxCheckoutFieldLength)
	notes := s.cleanField(cmd.Notes, maxCheckoutNotesLength)

	if customer == "" {
		return Order{}, fmt.Errorf("%w: customer is required", ErrCheckoutValidation)
	}
	if email == "" {
		return Order{}, fmt.Errorf("%w: email is required", ErrCheckoutValidation)
	}
	if !strings.Contains(email, "@") {
		return Order{}, fmt.Errorf("%w: email is malformed", ErrCheckoutValidation)
	}

	snapshot, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		return Order{}, ErrCheckoutUnavailable
	}
	if len(snapshot.Cart.Lines) == 0 {
		return Order{}, ErrCheckoutEmptyCart
	}

	items := make([]domain.OrderItem, 0, len(snapshot.Cart.Lines))
	for _, line := range snapshot.Cart.Lines {
		item := domain.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
		if product, err := s.catalog.GetProduct(ctx, line.ProductID); err == nil {
			item.ProductName = product.Name
			item.ProductSKU = product.SKU
		}
		items = append(items, item)
	}

	now := s.now()
	order := domain.Order{
		ID:        s.newID(),
		Reference: s.newCode(),
		Customer:  customer,
		Email:     email,
		Notes:     notes,
		Items:     items,
		Total:     orderTotal(items, s.discountRate),
		Status:    domain.OrderStatusPreparing,
		CreatedAt: now,
		History: []domain.OrderHistoryEntry{
			{Status: domain.OrderStatusPreparing, Date: now, Note: "order placed"},
		},
	}
	return order, nil
}

// CommitOrder appends the order to the persisted order list. Failures are
// surfaced to the caller and logged; prior state is never overwritten.
func (s *checkoutService) CommitOrder(ctx context.Context, order Order) error {
	if strings.TrimSpace(order.ID) == "" || len(order.Items) == 0 {
		return fmt.Errorf("%w: order is incomplete", ErrCheckoutValidation)
	}

	if err := s.orders.AppendOrder(ctx, order); err != nil {
		s.logger(ctx, "checkout.commit_failed", map[string]any{
			"orderID": order.ID,
			"error":   err.Error(),
		})
		return fmt.Errorf("%w: %s", ErrCheckoutStoreFailure, err.Error())
	}

	s.logger(ctx, "checkout.order_committed", map[string]any{
		"orderID":   order.ID,
		"reference": order.Reference,
		"items":     len(order.Items),
	})
	return nil
}

// cleanField trims, strips any HTML and caps the length of a free-text field.
func (s *checkoutService) cleanField(value string, limit int) string {
	cleaned := strings.TrimSpace(s.sanitizer.Sanitize(value))
	if len(cleaned) > limit {
		cleaned = cleaned[:limit]
	}
	return cleaned
}

// orderTotal recomputes the order total from the item snapshot, applying the
// same discount clamping the cart engine uses. Must equal the cart's
// computeTotals().total at the same instant.
func orderTotal(items []domain.OrderItem, discountRate decimal.Decimal) decimal.Decimal {
	lines := make([]domain.CartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, domain.CartLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return domain.ComputeTotals(lines, discountRate).Total
}

// generatePickupCode produces a short human-readable code such as "7KF-Q2N".
// Best-effort unique: collisions are accepted as negligible for a single
// storefront's order volume.
func generatePickupCode() string {
	groups := make([]string, 0, pickupCodeGroups)
	charsetLen := big.NewInt(int64(len(pickupCodeCharset)))
	for g := 0; g < pickupCodeGroups; g++ {
		var b strings.Builder
		for i := 0; i < pickupCodeGroupLen; i++ {
			n, err := rand.Int(rand.Reader, charsetLen)
			if err != nil {
				// crypto/rand failing means the platform is broken; fall back
				// to a time-derived index rather than aborting checkout.
				n = big.NewInt(time.Now().UnixNano() % int64(len(pickupCodeCharset)))
			}
			b.WriteByte(pickupCodeCharset[n.Int64()])
		}
		groups = append(groups, b.String())
	}
	return strings.Join(groups, "-")
}
