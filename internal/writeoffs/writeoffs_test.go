package writeoffs

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/posterops/poster-bridge/internal/catalog"
	"github.com/posterops/poster-bridge/pkg/logger"
	"github.com/posterops/poster-bridge/pkg/poster"
	"github.com/posterops/poster-bridge/pkg/types"
)

func TestClassifyPriorityOrder(t *testing.T) {
	tests := []struct {
		name string
		raw  poster.WriteOff
		want catalog.ItemType
	}{
		{
			name: "modifier wins over everything",
			raw: poster.WriteOff{
				ModificatorID: types.Number(5),
				IngredientID:  types.Number(7),
				PrepackID:     types.Number(9),
			},
			want: catalog.ItemTypeModifier,
		},
		{
			name: "ingredient wins over prepack",
			raw: poster.WriteOff{
				IngredientID: types.Number(7),
				PrepackID:    types.Number(9),
			},
			want: catalog.ItemTypeIngredient,
		},
		{
			name: "prepack when only prepack set",
			raw:  poster.WriteOff{PrepackID: types.Number(9)},
			want: catalog.ItemTypePrepack,
		},
		{
			name: "default is ingredient",
			raw:  poster.WriteOff{},
			want: catalog.ItemTypeIngredient,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.raw); got != tc.want {
				t.Fatalf("Classify = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCalculateTotalCost(t *testing.T) {
	records := []Record{
		{Cost: 12.5},
		{Cost: 4.0},
	}
	if got := CalculateTotalCost(records); !got.Equal(decimal.RequireFromString("16.5")) {
		t.Fatalf("expected 16.5, got %s", got)
	}

	// A line with no cost contributes zero, never NaN.
	records = append(records, Record{})
	if got := CalculateTotalCost(records); !got.Equal(decimal.RequireFromString("16.5")) {
		t.Fatalf("expected 16.5 with zero-cost line, got %s", got)
	}

	if got := CalculateTotalCost(nil); !got.IsZero() {
		t.Fatalf("expected zero for empty input, got %s", got)
	}
}

type stubNamer struct {
	names map[string]string
}

func (s *stubNamer) GetItemName(_ context.Context, id string, itemType catalog.ItemType) string {
	if name, ok := s.names[itemType.String()+"/"+id]; ok {
		return name
	}
	return catalog.UnknownName
}

func TestEnrichAllResolvesNames(t *testing.T) {
	namer := &stubNamer{names: map[string]string{
		"ingredient/7": "Milk",
		"product/3":    "Latte",
	}}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	enricher, err := NewEnricher(namer, logg)
	if err != nil {
		t.Fatalf("NewEnricher: %v", err)
	}

	records := enricher.EnrichAll(context.Background(), []poster.WriteOff{
		{
			WriteOffID:   types.Number(1),
			IngredientID: types.Number(7),
			ProductID:    types.Number(3),
			Weight:       types.Number(0.25),
			Cost:         types.Number(12.5),
		},
		{
			WriteOffID:   types.Number(2),
			IngredientID: types.Number(999),
		},
	})

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].IngredientName != "Milk" || records[0].ProductName != "Latte" {
		t.Fatalf("names not resolved: %+v", records[0])
	}
	if records[0].Type != catalog.ItemTypeIngredient {
		t.Fatalf("expected ingredient classification, got %v", records[0].Type)
	}
	if records[0].Weight != 0.25 || records[0].Cost != 12.5 {
		t.Fatalf("numeric fields lost: %+v", records[0])
	}
	if records[1].IngredientName != catalog.UnknownName {
		t.Fatalf("missing catalog entry should resolve to sentinel, got %q", records[1].IngredientName)
	}
}

func TestDocumentsOmitEmptyNames(t *testing.T) {
	docs := Documents([]Record{
		{WriteOffID: 1, IngredientID: 7, IngredientName: "Milk", Type: catalog.ItemTypeIngredient},
		{WriteOffID: 2, PrepackID: 4, Type: catalog.ItemTypePrepack},
	})
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	first := docs[0].(map[string]any)
	if first["ingredient_name"] != "Milk" {
		t.Fatalf("expected ingredient_name, got %v", first)
	}
	second := docs[1].(map[string]any)
	if _, ok := second["ingredient_name"]; ok {
		t.Fatalf("empty names must be omitted: %v", second)
	}
	if second["type"] != int(catalog.ItemTypePrepack) {
		t.Fatalf("type should be stored numerically, got %v", second["type"])
	}
}
