package catalog

import (
	"context"
	"errors"
	"strconv"

	"github.com/posterops/poster-bridge/pkg/logger"
	"github.com/posterops/poster-bridge/pkg/poster"
)

type menuAPI interface {
	GetProducts(ctx context.Context, token string) ([]poster.Product, error)
	GetIngredients(ctx context.Context, token string) ([]poster.Ingredient, error)
}

// Source pulls the upstream menu and normalizes it into catalog items.
type Source struct {
	menu    menuAPI
	ignored map[string]struct{}
	logg    *logger.Logger
}

// NewSource builds the upstream catalog source. ignoredCategories lists
// administrative ingredient category ids that never become items.
func NewSource(menu menuAPI, ignoredCategories []string, logg *logger.Logger) (*Source, error) {
	if menu == nil {
		return nil, errors.New("menu api client required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	ignored := make(map[string]struct{}, len(ignoredCategories))
	for _, id := range ignoredCategories {
		if id == "" {
			continue
		}
		ignored[id] = struct{}{}
	}
	return &Source{menu: menu, ignored: ignored, logg: logg}, nil
}

// FetchCatalog returns the full normalized item list. A failure on
// either upstream listing fails the whole fetch; no partial catalog is
// ever returned.
func (s *Source) FetchCatalog(ctx context.Context, token string) ([]Item, error) {
	products, err := s.menu.GetProducts(ctx, token)
	if err != nil {
		return nil, err
	}
	ingredients, err := s.menu.GetIngredients(ctx, token)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(products)+len(ingredients))
	for _, p := range products {
		items = append(items, Item{
			ID:         formatID(p.ProductID.Int64()),
			Name:       p.ProductName,
			Type:       mapProductType(p.Type.Int64()),
			Unit:       p.Unit,
			CategoryID: formatID(p.MenuCategoryID.Int64()),
		})
	}

	dropped := 0
	for _, ing := range ingredients {
		categoryID := formatID(ing.CategoryID.Int64())
		if _, skip := s.ignored[categoryID]; skip {
			dropped++
			continue
		}
		items = append(items, Item{
			ID:         formatID(ing.IngredientID.Int64()),
			Name:       ing.IngredientName,
			Type:       ItemTypeIngredient,
			Unit:       ing.Unit,
			CategoryID: categoryID,
		})
	}

	if dropped > 0 {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"dropped_ingredients": dropped,
			"items":               len(items),
		}), "catalog fetch filtered administrative categories")
	}

	return items, nil
}

// mapProductType translates the upstream product type code. Unrecognized
// codes fall back to plain product.
func mapProductType(upstream int64) ItemType {
	switch upstream {
	case 1:
		return ItemTypePrepack
	case 2:
		return ItemTypeRecipe
	case 3:
		return ItemTypeProduct
	}
	return ItemTypeProduct
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
