package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/gestion-commandes/storefront/internal/domain"
	"github.com/gestion-commandes/storefront/internal/platform/httpx"
	"github.com/gestion-commandes/storefront/internal/platform/textutil"
	"github.com/gestion-commandes/storefront/internal/services"
)

// CatalogHandlers exposes the public product listing endpoints.
type CatalogHandlers struct {
	catalog   services.CatalogService
	formatter *textutil.CurrencyFormatter
}

// NewCatalogHandlers constructs handlers serving the catalog service.
func NewCatalogHandlers(catalog services.CatalogService, formatter *textutil.CurrencyFormatter) *CatalogHandlers {
	return &CatalogHandlers{
		catalog:   catalog,
		formatter: formatter,
	}
}

// Routes wires the /products endpoints onto the provided router.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listProducts)
	r.Get("/{productID}", h.getProduct)
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	filter := services.ProductListFilter{
		Query: r.URL.Query().Get("q"),
	}
	sortKey, err := parseProductSort(r.URL.Query().Get("sort"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	filter.Sort = sortKey

	products, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	payload := productListResponse{
		Products: make([]productPayload, 0, len(products)),
		Count:    len(products),
	}
	for _, product := range products {
		payload.Products = append(payload.Products, h.buildProductPayload(product))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, productResponse{Product: h.buildProductPayload(product)})
}

func (h *CatalogHandlers) writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to load catalog", http.StatusInternalServerError))
	}
}

func (h *CatalogHandlers) buildProductPayload(product services.Product) productPayload {
	payload := productPayload{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price.String(),
		Stock:       product.Stock,
		StockLevel:  string(domain.ClassifyStock(product.Stock)),
		SKU:         product.SKU,
	}
	if product.Image != "" {
		payload.Image = product.Image
	}
	if h.formatter != nil {
		payload.PriceFormatted = h.formatter.Format(product.Price)
	}
	return payload
}

func parseProductSort(raw string) (services.ProductSort, error) {
	switch services.ProductSort(strings.TrimSpace(raw)) {
	case "", services.ProductSortFeatured:
		return services.ProductSortFeatured, nil
	case services.ProductSortPriceAsc:
		return services.ProductSortPriceAsc, nil
	case services.ProductSortPriceDesc:
		return services.ProductSortPriceDesc, nil
	case services.ProductSortStockDesc:
		return services.ProductSortStockDesc, nil
	default:
		return services.ProductSortFeatured, errors.New("sort must be one of featured, price-asc, price-desc, stock-desc")
	}
}

type productListResponse struct {
	Products []productPayload `json:"products"`
	Count    int              `json:"count"`
}

type productResponse struct {
	Product productPayload `json:"product"`
}

type productPayload struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Price          string `json:"price"`
	PriceFormatted string `json:"price_formatted,omitempty"`
	Stock          int    `json:"stock"`
	StockLevel     string `json:"stock_level"`
	SKU            string `json:"sku"`
	Image          string `json:"image,omitempty"`
}
