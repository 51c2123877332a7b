package catalog

import (
	"context"
	"testing"

	pkgerrors "github.com/posterops/poster-bridge/pkg/errors"
	"github.com/posterops/poster-bridge/pkg/poster"
	"github.com/posterops/poster-bridge/pkg/types"
)

type stubMenuAPI struct {
	products    []poster.Product
	ingredients []poster.Ingredient
	productsErr error
	ingredErr   error
}

func (s *stubMenuAPI) GetProducts(context.Context, string) ([]poster.Product, error) {
	return s.products, s.productsErr
}

func (s *stubMenuAPI) GetIngredients(context.Context, string) ([]poster.Ingredient, error) {
	return s.ingredients, s.ingredErr
}

func TestFetchCatalogMapsProductTypes(t *testing.T) {
	menu := &stubMenuAPI{
		products: []poster.Product{
			{ProductID: types.Number(1), ProductName: "Dough", Type: types.Number(1)},
			{ProductID: types.Number(2), ProductName: "Borscht", Type: types.Number(2)},
			{ProductID: types.Number(3), ProductName: "Cola", Type: types.Number(3)},
			{ProductID: types.Number(4), ProductName: "Mystery", Type: types.Number(99)},
		},
	}
	source, err := NewSource(menu, nil, testLogger())
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	items, err := source.FetchCatalog(context.Background(), "")
	if err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}
	want := map[string]ItemType{
		"1": ItemTypePrepack,
		"2": ItemTypeRecipe,
		"3": ItemTypeProduct,
		"4": ItemTypeProduct,
	}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for _, item := range items {
		if want[item.ID] != item.Type {
			t.Errorf("product %s: expected type %v, got %v", item.ID, want[item.ID], item.Type)
		}
	}
}

func TestFetchCatalogFiltersAdministrativeCategories(t *testing.T) {
	menu := &stubMenuAPI{
		ingredients: []poster.Ingredient{
			{IngredientID: types.Number(10), IngredientName: "Milk", CategoryID: types.Number(5)},
			{IngredientID: types.Number(11), IngredientName: "Service Fee", CategoryID: types.Number(7)},
			{IngredientID: types.Number(12), IngredientName: "Flour", CategoryID: types.Number(9)},
			{IngredientID: types.Number(13), IngredientName: "Salt", CategoryID: types.Number(2)},
		},
	}
	source, err := NewSource(menu, []string{"7", "9", "23", "24", "25", "31", "36", "42"}, testLogger())
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	items, err := source.FetchCatalog(context.Background(), "")
	if err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected ignored categories to be dropped, got %d items", len(items))
	}
	for _, item := range items {
		if item.Type != ItemTypeIngredient {
			t.Errorf("ingredient %s mapped to %v", item.ID, item.Type)
		}
		if item.ID == "11" || item.ID == "12" {
			t.Errorf("item %s should have been filtered", item.ID)
		}
	}
}

func TestFetchCatalogIngredientFailureDropsProductsToo(t *testing.T) {
	menu := &stubMenuAPI{
		products:  []poster.Product{{ProductID: types.Number(1), ProductName: "Cola", Type: types.Number(3)}},
		ingredErr: pkgerrors.New(pkgerrors.CodeUpstream, "poster ingredients returned status 502"),
	}
	source, err := NewSource(menu, nil, testLogger())
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	items, err := source.FetchCatalog(context.Background(), "")
	if err == nil {
		t.Fatal("expected hard failure when one listing fails")
	}
	if items != nil {
		t.Fatalf("no partial catalog may be returned, got %+v", items)
	}
}

func TestFetchCatalogCarriesUnitsAndCategories(t *testing.T) {
	menu := &stubMenuAPI{
		products: []poster.Product{
			{ProductID: types.Number(3), ProductName: "Cola", Type: types.Number(3), MenuCategoryID: types.Number(12), Unit: "p"},
		},
		ingredients: []poster.Ingredient{
			{IngredientID: types.Number(10), IngredientName: "Milk", CategoryID: types.Number(5), Unit: "l"},
		},
	}
	source, err := NewSource(menu, nil, testLogger())
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	items, err := source.FetchCatalog(context.Background(), "")
	if err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}
	byID := map[string]Item{}
	for _, item := range items {
		byID[item.ID] = item
	}
	if got := byID["3"]; got.Unit != "p" || got.CategoryID != "12" {
		t.Fatalf("product metadata lost: %+v", got)
	}
	if got := byID["10"]; got.Unit != "l" || got.CategoryID != "5" {
		t.Fatalf("ingredient metadata lost: %+v", got)
	}
}
