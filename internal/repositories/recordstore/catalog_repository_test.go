package recordstore

import (
	"context"
	"errors"
	"testing"

	"github.com/gestion-commandes/storefront/internal/platform/recordstore"
	"github.com/gestion-commandes/storefront/internal/repositories"
)

func asRepositoryError(err error, target *repositories.RepositoryError) bool {
	return errors.As(err, target)
}

func TestCatalogRepositoryListProducts(t *testing.T) {
	store := recordstore.NewMemoryStore()
	ctx := context.Background()
	seed := `{"products":[
		{"id":"prd-1","name":"basket nasa","description":"","price":40,"stock":5,"sku":"BASKET-NASA-001","image":{"dataUrl":"data:image/png;base64,xyz"}},
		{"id":"prd-2","name":"livre musso","price":"22.90","stock":51,"sku":"LIVRE-MUSSO-006","image":null}
	]}`
	if err := store.Write(ctx, "storefront-state", seed); err != nil {
		t.Fatalf("unexpected seed error: %v", err)
	}

	repo, err := NewCatalogRepository(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	products, err := repo.ListProducts(ctx)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected two products, got %d", len(products))
	}
	if products[0].Image != "data:image/png;base64,xyz" {
		t.Fatalf("expected dataUrl image form decoded, got %q", products[0].Image)
	}
	if products[1].Image != "" {
		t.Fatalf("expected null image decoded empty, got %q", products[1].Image)
	}
	if products[1].Price.String() != "22.9" {
		t.Fatalf("expected price 22.9, got %s", products[1].Price)
	}
}

func TestCatalogRepositoryMissingDocumentIsNotFound(t *testing.T) {
	repo, err := NewCatalogRepository(recordstore.NewMemoryStore())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = repo.ListProducts(context.Background())
	var storeErr repositories.RepositoryError
	if !asRepositoryError(err, &storeErr) || !storeErr.IsNotFound() {
		t.Fatalf("expected not-found store error, got %v", err)
	}
}

func TestCatalogRepositoryCorruptDocument(t *testing.T) {
	store := recordstore.NewMemoryStore()
	ctx := context.Background()
	if err := store.Write(ctx, "storefront-state", "]["); err != nil {
		t.Fatalf("unexpected seed error: %v", err)
	}

	repo, err := NewCatalogRepository(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = repo.ListProducts(ctx)
	var storeErr repositories.RepositoryError
	if !asRepositoryError(err, &storeErr) || !storeErr.IsCorrupt() {
		t.Fatalf("expected corrupt store error, got %v", err)
	}
}
