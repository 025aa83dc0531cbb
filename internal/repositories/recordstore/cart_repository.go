package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	domain "github.com/gestion-commandes/storefront/internal/domain"
	"github.com/gestion-commandes/storefront/internal/platform/recordstore"
	"github.com/gestion-commandes/storefront/internal/repositories"
)

// CartRepository persists one cart document per session so open carts survive
// process restarts.
type CartRepository struct {
	store recordstore.Store
}

// NewCartRepository constructs a record-store-backed cart repository.
func NewCartRepository(store recordstore.Store) (*CartRepository, error) {
	if store == nil {
		return nil, errors.New("cart repository requires a record store")
	}
	return &CartRepository{store: store}, nil
}

// GetCart loads the cart for the session, or a categorised not-found error.
func (r *CartRepository) GetCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	const op = "cart repository: get cart"

	key, err := cartKey(sessionID)
	if err != nil {
		return domain.Cart{}, repositories.NewStoreError(op, repositories.StoreErrorUnavailable, err)
	}

	raw, err := r.store.Read(ctx, key)
	if err != nil {
		if errors.Is(err, recordstore.ErrKeyNotFound) {
			return domain.Cart{}, repositories.NewStoreError(op, repositories.StoreErrorNotFound, err)
		}
		return domain.Cart{}, repositories.NewStoreError(op, repositories.StoreErrorUnavailable, err)
	}

	var record cartRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return domain.Cart{}, repositories.NewStoreError(op, repositories.StoreErrorCorrupt, err)
	}
	return record.toDomain(), nil
}

// SaveCart overwrites the session's cart document.
func (r *CartRepository) SaveCart(ctx context.Context, cart domain.Cart) error {
	const op = "cart repository: save cart"

	key, err := cartKey(cart.ID)
	if err != nil {
		return repositories.NewStoreError(op, repositories.StoreErrorUnavailable, err)
	}

	payload, err := json.Marshal(cartToRecord(cart))
	if err != nil {
		return repositories.NewStoreError(op, repositories.StoreErrorCorrupt, err)
	}
	if err := r.store.Write(ctx, key, string(payload)); err != nil {
		return repositories.NewStoreError(op, repositories.StoreErrorUnavailable, err)
	}
	return nil
}

func cartKey(sessionID string) (string, error) {
	trimmed := strings.TrimSpace(sessionID)
	if trimmed == "" {
		return "", errors.New("session id is required")
	}
	return cartKeyPrefix + "-" + trimmed, nil
}
