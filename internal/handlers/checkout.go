package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gestion-commandes/storefront/internal/platform/httpx"
	"github.com/gestion-commandes/storefront/internal/platform/textutil"
	"github.com/gestion-commandes/storefront/internal/services"
)

// CheckoutHandlers exposes the order submission endpoint.
type CheckoutHandlers struct {
	checkout  services.CheckoutService
	carts     services.CartService
	formatter *textutil.CurrencyFormatter
}

// NewCheckoutHandlers constructs handlers composing the checkout and cart
// services.
func NewCheckoutHandlers(checkout services.CheckoutService, carts services.CartService, formatter *textutil.CurrencyFormatter) *CheckoutHandlers {
	return &CheckoutHandlers{
		checkout:  checkout,
		carts:     carts,
		formatter: formatter,
	}
}

// Routes wires the /checkout endpoint onto the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.submitOrder)
}

func (h *CheckoutHandlers) submitOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_service_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req checkoutRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	sessionID := resolveSession(w, r)
	order, err := h.checkout.BuildOrder(ctx, services.BuildOrderCommand{
		SessionID: sessionID,
		Customer:  req.Customer,
		Email:     req.Email,
		Notes:     req.Notes,
	})
	if err != nil {
		h.writeCheckoutError(ctx, w, err)
		return
	}

	if err := h.checkout.CommitOrder(ctx, order); err != nil {
		h.writeCheckoutError(ctx, w, err)
		return
	}

	// The cart is emptied only once the order is durably stored. A clear
	// failure leaves a stale cart behind but never loses the order.
	if h.carts != nil {
		_ = h.carts.Clear(ctx, sessionID)
	}

	writeJSONResponse(w, http.StatusCreated, orderResponse{Order: h.buildOrderPayload(order)})
}

func (h *CheckoutHandlers) writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCheckoutValidation):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("cart_empty", "cart is empty", http.StatusConflict))
	case errors.Is(err, services.ErrCheckoutStoreFailure):
		httpx.WriteError(ctx, w, httpx.NewError("order_store_failure", "order could not be saved; please retry", http.StatusBadGateway))
	case errors.Is(err, services.ErrCheckoutUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("checkout_service_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("checkout_error", "failed to process checkout", http.StatusInternalServerError))
	}
}

func (h *CheckoutHandlers) buildOrderPayload(order services.Order) orderPayload {
	items := make([]orderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemPayload{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.String(),
		})
	}

	payload := orderPayload{
		ID:        order.ID,
		Reference: order.Reference,
		Customer:  order.Customer,
		Email:     order.Email,
		Items:     items,
		Total:     order.Total.String(),
		Status:    string(order.Status),
		CreatedAt: order.CreatedAt.UTC().Format(timeFormat),
	}
	if order.Notes != "" {
		payload.Notes = order.Notes
	}
	if h.formatter != nil {
		payload.TotalFormatted = h.formatter.Format(order.Total)
	}
	return payload
}

type checkoutRequest struct {
	Customer string `json:"customer"`
	Email    string `json:"email"`
	Notes    string `json:"notes"`
}

type orderResponse struct {
	Order orderPayload `json:"order"`
}

type orderPayload struct {
	ID             string             `json:"id"`
	Reference      string             `json:"reference"`
	Customer       string             `json:"customer"`
	Email          string             `json:"email"`
	Notes          string             `json:"notes,omitempty"`
	Items          []orderItemPayload `json:"items"`
	Total          string             `json:"total"`
	TotalFormatted string             `json:"total_formatted,omitempty"`
	Status         string             `json:"status"`
	CreatedAt      string             `json:"created_at"`
}

type orderItemPayload struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	ProductSKU  string `json:"product_sku"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}
