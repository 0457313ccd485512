package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/saeid-a/tradechat/internal/api"
	"github.com/saeid-a/tradechat/internal/models"
	"github.com/saeid-a/tradechat/internal/store"
)

func TestCatalogCreateValidatesAndUploads(t *testing.T) {
	backend := newFakeBackend()
	catalog := NewCatalogService(stubIdentity{id: 4}, backend, backend)

	_, err := catalog.Create(context.Background(), ItemInput{Name: "", Unit: "kg", Size: 0})
	fields := api.FieldErrors(err)
	if fields["name"] == "" || fields["size"] == "" || fields["image"] == "" {
		t.Fatalf("expected name, size and image errors, got %v", fields)
	}
	if backend.lastCreatedItem != nil {
		t.Fatalf("invalid item must not be sent")
	}

	item, err := catalog.Create(context.Background(), ItemInput{
		Name:      " Milk ",
		Unit:      "Liters",
		Size:      1.5,
		ImageName: "milk.png",
		Image:     strings.NewReader("png"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if item.Name != "Milk" || item.Unit != models.ItemUnitLiters || item.ImageID != "img-milk.png" {
		t.Fatalf("unexpected item %+v", item)
	}
}

func TestCatalogUpdateKeepsImageWithoutUpload(t *testing.T) {
	backend := newFakeBackend()
	backend.items[9] = models.Item{ID: 9, SupplierID: 4, Name: "Milk", Unit: "liters", Size: 1, ImageID: "img-old"}
	catalog := NewCatalogService(stubIdentity{id: 4}, backend, backend)

	updated, err := catalog.Update(context.Background(), 9, ItemInput{Name: "Milk", Unit: "liters", Size: 2})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ImageID != "img-old" || updated.Size != 2 || updated.SupplierID != 4 {
		t.Fatalf("unexpected update %+v", updated)
	}
	if len(backend.uploads) != 0 {
		t.Fatalf("expected no upload, got %v", backend.uploads)
	}
}

func TestCatalogListMineRequiresSession(t *testing.T) {
	catalog := NewCatalogService(stubIdentity{}, newFakeBackend(), newFakeBackend())
	if _, err := catalog.ListMine(context.Background()); !errors.Is(err, store.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
