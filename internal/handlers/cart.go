package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gestion-commandes/storefront/internal/platform/httpx"
	"github.com/gestion-commandes/storefront/internal/platform/textutil"
	"github.com/gestion-commandes/storefront/internal/services"
)

// CartHandlers exposes the session-scoped cart endpoints.
type CartHandlers struct {
	carts     services.CartService
	formatter *textutil.CurrencyFormatter
}

// NewCartHandlers constructs handlers serving the cart service.
func NewCartHandlers(carts services.CartService, formatter *textutil.CurrencyFormatter) *CartHandlers {
	return &CartHandlers{
		carts:     carts,
		formatter: formatter,
	}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Put("/items/{productID}", h.setItemQuantity)
	r.Delete("/items/{productID}", h.removeItem)
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	sessionID := resolveSession(w, r)
	snapshot, err := h.carts.GetCart(ctx, sessionID)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: h.buildCartPayload(snapshot)})
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req addItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "productId is required", http.StatusBadRequest))
		return
	}

	sessionID := resolveSession(w, r)
	snapshot, err := h.carts.AddToCart(ctx, sessionID, req.ProductID)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: h.buildCartPayload(snapshot)})
}

func (h *CartHandlers) setItemQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req setQuantityRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}
	if req.Quantity == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "quantity is required", http.StatusBadRequest))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	sessionID := resolveSession(w, r)
	snapshot, err := h.carts.SetQuantity(ctx, sessionID, productID, *req.Quantity)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: h.buildCartPayload(snapshot)})
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	sessionID := resolveSession(w, r)
	snapshot, err := h.carts.RemoveFromCart(ctx, sessionID, productID)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: h.buildCartPayload(snapshot)})
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	sessionID := resolveSession(w, r)
	if err := h.carts.Clear(ctx, sessionID); err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	snapshot, err := h.carts.GetCart(ctx, sessionID)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: h.buildCartPayload(snapshot)})
}

func (h *CartHandlers) writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCartProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCartOutOfStock):
		httpx.WriteError(ctx, w, httpx.NewError("out_of_stock", "product is out of stock", http.StatusConflict))
	case errors.Is(err, services.ErrCartQuantityLimit):
		httpx.WriteError(ctx, w, httpx.NewError("quantity_limit", "all available units are already in the cart", http.StatusConflict))
	case errors.Is(err, services.ErrCartUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("cart_error", "failed to process cart request", http.StatusInternalServerError))
	}
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

func (h *CartHandlers) buildCartPayload(snapshot services.CartSnapshot) cartPayload {
	lines := make([]cartLinePayload, 0, len(snapshot.Cart.Lines))
	for _, line := range snapshot.Cart.Lines {
		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		lines = append(lines, cartLinePayload{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.String(),
			LineTotal: lineTotal.String(),
		})
	}

	payload := cartPayload{
		SessionID: snapshot.Cart.ID,
		Lines:     lines,
		ItemCount: snapshot.ItemCount,
		Totals: totalsPayload{
			Subtotal: snapshot.Totals.Subtotal.String(),
			Discount: snapshot.Totals.Discount.String(),
			Total:    snapshot.Totals.Total.String(),
		},
	}
	if h.formatter != nil {
		payload.Totals.TotalFormatted = h.formatter.Format(snapshot.Totals.Total)
	}
	if !snapshot.Cart.UpdatedAt.IsZero() {
		payload.UpdatedAt = snapshot.Cart.UpdatedAt.UTC().Format(timeFormat)
	}
	return payload
}

type addItemRequest struct {
	ProductID string `json:"productId"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

type cartResponse struct {
	Cart cartPayload `json:"cart"`
}

type cartPayload struct {
	SessionID string            `json:"session_id"`
	Lines     []cartLinePayload `json:"lines"`
	ItemCount int               `json:"item_count"`
	Totals    totalsPayload     `json:"totals"`
	UpdatedAt string            `json:"updated_at,omitempty"`
}

type cartLinePayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type totalsPayload struct {
	Subtotal       string `json:"subtotal"`
	Discount       string `json:"discount"`
	Total          string `json:"total"`
	TotalFormatted string `json:"total_formatted,omitempty"`
}
