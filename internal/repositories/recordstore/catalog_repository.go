package recordstore

import (
	"context"
	"encoding/json"
	"errors"

	domain "github.com/gestion-commandes/storefront/internal/domain"
	"github.com/gestion-commandes/storefront/internal/platform/recordstore"
	"github.com/gestion-commandes/storefront/internal/repositories"
)

// CatalogRepository reads products out of the shared record document.
type CatalogRepository struct {
	store recordstore.Store
}

// NewCatalogRepository constructs a record-store-backed catalog repository.
func NewCatalogRepository(store recordstore.Store) (*CatalogRepository, error) {
	if store == nil {
		return nil, errors.New("catalog repository requires a record store")
	}
	return &CatalogRepository{store: store}, nil
}

// ListProducts decodes the shared document's product list. Absence, decode
// failure and store failure are reported as categorised errors; the catalog
// service decides how each degrades.
func (r *CatalogRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "catalog repository: list products"

	raw, err := r.store.Read(ctx, sharedStateKey)
	if err != nil {
		if errors.Is(err, recordstore.ErrKeyNotFound) {
			return nil, repositories.NewStoreError(op, repositories.StoreErrorNotFound, err)
		}
		return nil, repositories.NewStoreError(op, repositories.StoreErrorUnavailable, err)
	}

	var doc struct {
		Products []productRecord `json:"products"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, repositories.NewStoreError(op, repositories.StoreErrorCorrupt, err)
	}

	products := make([]domain.Product, 0, len(doc.Products))
	for _, record := range doc.Products {
		products = append(products, record.toDomain())
	}
	return products, nil
}
