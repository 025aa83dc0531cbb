// Package recordstore implements the repository interfaces over the shared
// record store. The shared document carries the product list and the order
// list; carts live in one document per session.
package recordstore

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/gestion-commandes/storefront/internal/domain"
)

const (
	sharedStateKey = "storefront-state"
	cartKeyPrefix  = "client-cart"
)

// imageRef tolerates both the plain string form and the admin app's
// {"dataUrl": ...} object form for product images.
type imageRef string

func (i *imageRef) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*i = imageRef(asString)
		return nil
	}
	var asObject struct {
		DataURL string `json:"dataUrl"`
	}
	if err := json.Unmarshal(data, &asObject); err == nil {
		*i = imageRef(asObject.DataURL)
		return nil
	}
	*i = ""
	return nil
}

type productRecord struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	SKU         string          `json:"sku"`
	Image       imageRef        `json:"image,omitempty"`
}

func (r productRecord) toDomain() domain.Product {
	return domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		SKU:         r.SKU,
		Image:       string(r.Image),
	}
}

type cartLineRecord struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type cartRecord struct {
	ID        string           `json:"id"`
	Lines     []cartLineRecord `json:"lines"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func cartToRecord(cart domain.Cart) cartRecord {
	lines := make([]cartLineRecord, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		lines = append(lines, cartLineRecord{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return cartRecord{
		ID:        cart.ID,
		Lines:     lines,
		CreatedAt: cart.CreatedAt.UTC(),
		UpdatedAt: cart.UpdatedAt.UTC(),
	}
}

func (r cartRecord) toDomain() domain.Cart {
	lines := make([]domain.CartLine, 0, len(r.Lines))
	for _, line := range r.Lines {
		lines = append(lines, domain.CartLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return domain.Cart{
		ID:        r.ID,
		Lines:     lines,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type orderItemRecord struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	ProductSKU  string          `json:"productSku"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

type orderHistoryRecord struct {
	Status string    `json:"status"`
	Date   time.Time `json:"date"`
	Note   string    `json:"note,omitempty"`
}

type orderRecord struct {
	ID        string               `json:"id"`
	Reference string               `json:"reference"`
	Customer  string               `json:"customer"`
	Email     string               `json:"email"`
	Notes     string               `json:"notes,omitempty"`
	Items     []orderItemRecord    `json:"items"`
	Total     decimal.Decimal      `json:"total"`
	Status    string               `json:"status"`
	CreatedAt time.Time            `json:"createdAt"`
	History   []orderHistoryRecord `json:"history,omitempty"`
}

func orderToRecord(order domain.Order) orderRecord {
	items := make([]orderItemRecord, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemRecord{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	history := make([]orderHistoryRecord, 0, len(order.History))
	for _, entry := range order.History {
		history = append(history, orderHistoryRecord{
			Status: string(entry.Status),
			Date:   entry.Date.UTC(),
			Note:   entry.Note,
		})
	}
	return orderRecord{
		ID:        order.ID,
		Reference: order.Reference,
		Customer:  order.Customer,
		Email:     order.Email,
		Notes:     order.Notes,
		Items:     items,
		Total:     order.Total,
		Status:    string(order.Status),
		CreatedAt: order.CreatedAt.UTC(),
		History:   history,
	}
}

func (r orderRecord) toDomain() domain.Order {
	items := make([]domain.OrderItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, domain.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	history := make([]domain.OrderHistoryEntry, 0, len(r.History))
	for _, entry := range r.History {
		history = append(history, domain.OrderHistoryEntry{
			Status: domain.OrderStatus(entry.Status),
			Date:   entry.Date,
			Note:   entry.Note,
		})
	}
	return domain.Order{
		ID:        r.ID,
		Reference: r.Reference,
		Customer:  r.Customer,
		Email:     r.Email,
		Notes:     r.Notes,
		Items:     items,
		Total:     r.Total,
		Status:    domain.OrderStatus(r.Status),
		CreatedAt: r.CreatedAt,
		History:   history,
	}
}
