package catalog

// ItemType classifies a catalog entry.
type ItemType int

const (
	ItemTypeProduct    ItemType = 1
	ItemTypeRecipe     ItemType = 2
	ItemTypePrepack    ItemType = 3
	ItemTypeIngredient ItemType = 4
	ItemTypeModifier   ItemType = 5
)

func (t ItemType) String() string {
	switch t {
	case ItemTypeProduct:
		return "product"
	case ItemTypeRecipe:
		return "recipe"
	case ItemTypePrepack:
		return "prepack"
	case ItemTypeIngredient:
		return "ingredient"
	case ItemTypeModifier:
		return "modifier"
	}
	return "unknown"
}

// UnknownName is returned by name lookups for ids absent from the
// current snapshot. Enrichment keeps going instead of failing.
const UnknownName = "Unknown"

// Item is one normalized catalog entry. Identity is the upstream id in
// string form, scoped by type: products and ingredients live in
// separate upstream id spaces.
type Item struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Type       ItemType `json:"type"`
	Unit       string   `json:"unit,omitempty"`
	CategoryID string   `json:"category_id,omitempty"`
}

// Storage layout: one collection holding two fixed documents. The
// metadata document carries synced_at and items_count; the items
// document carries the full snapshot. Both are replaced together on
// every refresh.
const (
	Collection    = "catalog"
	MetadataDocID = "metadata"
	ItemsDocID    = "items"
)
