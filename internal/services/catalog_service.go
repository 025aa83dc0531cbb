package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	domain "github.com/gestion-commandes/storefront/internal/domain"
	"github.com/gestion-commandes/storefront/internal/repositories"
)

// ErrCatalogUnavailable indicates the catalog could not be served at all.
var ErrCatalogUnavailable = errors.New("catalog service: unavailable")

// ErrProductNotFound indicates the requested product is not in the catalog.
var ErrProductNotFound = errors.New("catalog service: product not found")

const missingDescriptionPlaceholder = "Pas de description"

// CatalogServiceDeps wires the repository and logging dependencies for the
// catalog loader.
type CatalogServiceDeps struct {
	Repository repositories.CatalogRepository
	Logger     func(context.Context, string, map[string]any)
}

type catalogService struct {
	repo   repositories.CatalogRepository
	logger func(context.Context, string, map[string]any)

	mu       sync.Mutex
	products []domain.Product
}

// NewCatalogService constructs a CatalogService. A nil repository is allowed;
// the service then always serves the built-in fallback set.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &catalogService{
		repo:   deps.Repository,
		logger: logger,
	}, nil
}

// ListProducts returns the loaded catalog filtered and ordered per the filter.
func (s *catalogService) ListProducts(ctx context.Context, filter ProductListFilter) ([]Product, error) {
	products, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	if query != "" {
		filtered := make([]domain.Product, 0, len(products))
		for _, product := range products {
			haystack := strings.ToLower(product.Name + " " + product.Description + " " + product.SKU)
			if strings.Contains(haystack, query) {
				filtered = append(filtered, product)
			}
		}
		products = filtered
	}

	switch filter.Sort {
	case ProductSortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.LessThan(products[j].Price)
		})
	case ProductSortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[j].Price.LessThan(products[i].Price)
		})
	case ProductSortStockDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[j].Stock < products[i].Stock
		})
	default:
		// Featured keeps stored order.
	}

	return products, nil
}

// GetProduct looks up one product by id.
func (s *catalogService) GetProduct(ctx context.Context, productID string) (Product, error) {
	target := strings.TrimSpace(productID)
	if target == "" {
		return Product{}, ErrProductNotFound
	}

	products, err := s.load(ctx)
	if err != nil {
		return Product{}, err
	}
	for _, product := range products {
		if product.ID == target {
			return product, nil
		}
	}
	return Product{}, ErrProductNotFound
}

// load reads the product set once per process lifetime (one page session) and
// caches the normalised result. Any load failure degrades to the built-in
// fallback set; the loader never fails outward.
func (s *catalogService) load(ctx context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.products != nil {
		return cloneProducts(s.products), nil
	}

	loaded := s.loadFromStore(ctx)
	normalised := make([]domain.Product, 0, len(loaded))
	for _, product := range loaded {
		product, ok := normaliseProduct(product)
		if !ok {
			s.logger(ctx, "catalog.record_dropped", map[string]any{
				"reason": "missing id",
			})
			continue
		}
		normalised = append(normalised, product)
	}
	if len(normalised) == 0 {
		s.logger(ctx, "catalog.load_fallback", map[string]any{
			"reason": "empty product list",
		})
		normalised = defaultProducts()
	}

	s.products = normalised
	return cloneProducts(s.products), nil
}

func (s *catalogService) loadFromStore(ctx context.Context) []domain.Product {
	if s.repo == nil {
		return defaultProducts()
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			s.logger(ctx, "catalog.load_fallback", map[string]any{
				"reason": "no stored catalog",
			})
		} else {
			s.logger(ctx, "catalog.load_failed", map[string]any{
				"error": err.Error(),
			})
		}
		return defaultProducts()
	}
	if len(products) == 0 {
		s.logger(ctx, "catalog.load_fallback", map[string]any{
			"reason": "empty stored catalog",
		})
		return defaultProducts()
	}
	return products
}

func normaliseProduct(product domain.Product) (domain.Product, bool) {
	product.ID = strings.TrimSpace(product.ID)
	if product.ID == "" {
		return domain.Product{}, false
	}
	product.Name = strings.TrimSpace(product.Name)
	product.Description = strings.TrimSpace(product.Description)
	if product.Description == "" {
		product.Description = missingDescriptionPlaceholder
	}
	if product.Price.IsNegative() {
		product.Price = decimal.Zero
	}
	if product.Stock < 0 {
		product.Stock = 0
	}
	product.SKU = strings.TrimSpace(product.SKU)
	if product.SKU == "" {
		product.SKU = product.ID
	}
	product.Image = strings.TrimSpace(product.Image)
	return product, true
}

func cloneProducts(products []domain.Product) []domain.Product {
	dup := make([]domain.Product, len(products))
	copy(dup, products)
	return dup
}

func defaultProducts() []domain.Product {
	return []domain.Product{
		{
			ID:          "prd-basket-nasa",
			Name:        "basket nasa",
			Description: "Sneakers édition orbitale, semelle mémoire de forme.",
			Price:       decimal.RequireFromString("40"),
			Stock:       5,
			SKU:         "BASKET-NASA-001",
		},
		{
			ID:          "prd-boite-bombom",
			Name:        "boite bombom",
			Description: "Assortiment premium de douceurs artisanales.",
			Price:       decimal.RequireFromString("5"),
			Stock:       5,
			SKU:         "BOITE-BOMBOM-002",
		},
		{
			ID:          "prd-lingette",
			Name:        "lingetteplastique",
			Description: "Lot de lingettes nettoyantes recyclées.",
			Price:       decimal.RequireFromString("10"),
			Stock:       42,
			SKU:         "LINGETTE-PLASTIQUE-003",
		},
		{
			ID:          "prd-livre-menage",
			Name:        "livre la femme de menage 4",
			Description: "Roman à suspense best-seller.",
			Price:       decimal.RequireFromString("22"),
			Stock:       18,
			SKU:         "LIVRE-MENAGE4-004",
		},
		{
			ID:          "prd-livre-vlase",
			Name:        "livre la vlase des ame",
			Description: "Saga dramatique inspirée de faits réels.",
			Price:       decimal.RequireFromString("22.90"),
			Stock:       5,
			SKU:         "LIVRE-VLASE-005",
		},
		{
			ID:          "prd-livre-musso",
			Name:        "livre musso",
			Description: "Dernier roman de Guillaume Musso.",
			Price:       decimal.RequireFromString("22.90"),
			Stock:       51,
			SKU:         "LIVRE-MUSSO-006",
		},
		{
			ID:          "prd-tableau",
			Name:        "tableau",
			Description: "Toile minimaliste inspirée du cosmos.",
			Price:       decimal.RequireFromString("23"),
			Stock:       52,
			SKU:         "TABLEAU-007",
		},
		{
			ID:          "prd-veste-ski",
			Name:        "veste ski enfant",
			Description: "Veste technique enfant, isolation thermique renforcée.",
			Price:       decimal.RequireFromString("20"),
			Stock:       52,
			SKU:         "VESTE-SKI-008",
		},
	}
}
