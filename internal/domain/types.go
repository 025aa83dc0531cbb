package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry loaded at startup. The cart treats products as
// immutable context: stock is read-only input for quantity clamping and is
// never decremented here.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	SKU         string
	Image       string
}

// StockLevel buckets remaining stock for presentation surfaces.
type StockLevel string

const (
	// StockLevelLow marks products that are out of stock.
	StockLevelLow StockLevel = "low"
	// StockLevelMedium marks products with ten units or fewer remaining.
	StockLevelMedium StockLevel = "medium"
	// StockLevelHigh marks products with comfortable stock.
	StockLevelHigh StockLevel = "high"
)

// ClassifyStock maps a stock count onto a StockLevel bucket.
func ClassifyStock(stock int) StockLevel {
	switch {
	case stock <= 0:
		return StockLevelLow
	case stock <= 10:
		return StockLevelMedium
	default:
		return StockLevelHigh
	}
}

// CartLine aggregates one product inside a cart. UnitPrice is captured when the
// line is created so later catalog price changes never reprice an open cart.
type CartLine struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Cart is the ordered line-item state for one session. Line order is insertion
// order and at most one line exists per product.
type Cart struct {
	ID        string
	Lines     []CartLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ItemCount sums the quantities across all lines.
func (c Cart) ItemCount() int {
	count := 0
	for _, line := range c.Lines {
		if line.Quantity > 0 {
			count += line.Quantity
		}
	}
	return count
}

// Totals is the derived subtotal/discount/total snapshot for a cart. It is
// recomputed from the lines on every read and never stored on its own.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// OrderStatus describes the lifecycle state of a placed order. Transitions
// beyond the initial state belong to the administrative surface, not this core.
type OrderStatus string

const (
	// OrderStatusPreparing is the status assigned to every freshly placed order.
	OrderStatusPreparing OrderStatus = "preparing"
)

// OrderItem snapshots one cart line into an immutable order record.
type OrderItem struct {
	ProductID   string
	ProductName string
	ProductSKU  string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// OrderHistoryEntry records a status change on an order.
type OrderHistoryEntry struct {
	Status OrderStatus
	Date   time.Time
	Note   string
}

// Order is the immutable checkout snapshot appended to the shared order list.
// Reference is the human-facing pickup code, distinct from the internal id.
type Order struct {
	ID        string
	Reference string
	Customer  string
	Email     string
	Notes     string
	Items     []OrderItem
	Total     decimal.Decimal
	Status    OrderStatus
	CreatedAt time.Time
	History   []OrderHistoryEntry
}
