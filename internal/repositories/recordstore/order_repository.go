package recordstore

import (
	"context"
	"encoding/json"
	"errors"

	domain "github.com/gestion-commandes/storefront/internal/domain"
	"github.com/gestion-commandes/storefront/internal/platform/recordstore"
	"github.com/gestion-commandes/storefront/internal/repositories"
)

// OrderRepository appends placed orders to the shared record document. The
// document is shared with the admin surface, so the rewrite preserves every
// key it does not own (products and anything added later).
type OrderRepository struct {
	store recordstore.Store
}

// NewOrderRepository constructs a record-store-backed order repository.
func NewOrderRepository(store recordstore.Store) (*OrderRepository, error) {
	if store == nil {
		return nil, errors.New("order repository requires a record store")
	}
	return &OrderRepository{store: store}, nil
}

// AppendOrder performs the read-modify-write append. A malformed existing
// document fails the append rather than overwriting the list; an absent
// document starts a fresh one.
func (r *OrderRepository) AppendOrder(ctx context.Context, order domain.Order) error {
	const op = "order repository: append order"

	doc, err := r.readDocument(ctx, op)
	if err != nil {
		return err
	}

	var orders []orderRecord
	if raw, ok := doc["orders"]; ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &orders); err != nil {
			return repositories.NewStoreError(op, repositories.StoreErrorCorrupt, err)
		}
	}
	orders = append(orders, orderToRecord(order))

	encoded, err := json.Marshal(orders)
	if err != nil {
		return repositories.NewStoreError(op, repositories.StoreErrorCorrupt, err)
	}
	doc["orders"] = encoded

	payload, err := json.Marshal(doc)
	if err != nil {
		return repositories.NewStoreError(op, repositories.StoreErrorCorrupt, err)
	}
	if err := r.store.Write(ctx, sharedStateKey, string(payload)); err != nil {
		return repositories.NewStoreError(op, repositories.StoreErrorUnavailable, err)
	}
	return nil
}

// ListOrders decodes the persisted order list; an absent document is an empty
// list.
func (r *OrderRepository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	const op = "order repository: list orders"

	doc, err := r.readDocument(ctx, op)
	if err != nil {
		return nil, err
	}

	var records []orderRecord
	if raw, ok := doc["orders"]; ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, repositories.NewStoreError(op, repositories.StoreErrorCorrupt, err)
		}
	}

	orders := make([]domain.Order, 0, len(records))
	for _, record := range records {
		orders = append(orders, record.toDomain())
	}
	return orders, nil
}

func (r *OrderRepository) readDocument(ctx context.Context, op string) (map[string]json.RawMessage, error) {
	raw, err := r.store.Read(ctx, sharedStateKey)
	if err != nil {
		if errors.Is(err, recordstore.ErrKeyNotFound) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, repositories.NewStoreError(op, repositories.StoreErrorUnavailable, err)
	}

	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, repositories.NewStoreError(op, repositories.StoreErrorCorrupt, err)
	}
	return doc, nil
}
