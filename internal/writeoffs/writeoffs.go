// Package writeoffs classifies and enriches stock write-off lines
// attached to POS transactions.
package writeoffs

import (
	"github.com/shopspring/decimal"

	"github.com/posterops/poster-bridge/internal/catalog"
	"github.com/posterops/poster-bridge/pkg/poster"
)

// Record is one enriched write-off line, embedded into a transaction
// document. It is recomputed on every enrichment pass and never stored
// on its own.
type Record struct {
	WriteOffID     int64            `json:"write_off_id"`
	StorageID      int64            `json:"storage_id"`
	IngredientID   int64            `json:"ingredient_id"`
	IngredientName string           `json:"ingredient_name,omitempty"`
	ProductID      int64            `json:"product_id"`
	ProductName    string           `json:"product_name,omitempty"`
	ModificatorID  int64            `json:"modificator_id"`
	PrepackID      int64            `json:"prepack_id"`
	Weight         float64          `json:"weight"`
	Unit           string           `json:"unit"`
	Cost           float64          `json:"cost"`
	CostNetto      float64          `json:"cost_netto"`
	Time           int64            `json:"time"`
	Type           catalog.ItemType `json:"type"`
}

// Classify resolves the write-off type from the populated id fields.
// The priority order is fixed: modifier over ingredient over prepack,
// with ingredient as the default when nothing is set. Lines can carry
// several ids at once, so the order is load-bearing.
func Classify(w poster.WriteOff) catalog.ItemType {
	switch {
	case w.ModificatorID.Int64() != 0:
		return catalog.ItemTypeModifier
	case w.IngredientID.Int64() != 0:
		return catalog.ItemTypeIngredient
	case w.PrepackID.Int64() != 0:
		return catalog.ItemTypePrepack
	}
	return catalog.ItemTypeIngredient
}

// CalculateTotalCost sums the cost of all lines. Lines without a cost
// contribute zero.
func CalculateTotalCost(records []Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(decimal.NewFromFloat(r.Cost))
	}
	return total
}

// Documents converts records into backend-neutral documents for
// embedding into a transaction record.
func Documents(records []Record) []any {
	docs := make([]any, len(records))
	for i, r := range records {
		doc := map[string]any{
			"write_off_id":   r.WriteOffID,
			"storage_id":     r.StorageID,
			"ingredient_id":  r.IngredientID,
			"product_id":     r.ProductID,
			"modificator_id": r.ModificatorID,
			"prepack_id":     r.PrepackID,
			"weight":         r.Weight,
			"unit":           r.Unit,
			"cost":           r.Cost,
			"cost_netto":     r.CostNetto,
			"time":           r.Time,
			"type":           int(r.Type),
		}
		if r.IngredientName != "" {
			doc["ingredient_name"] = r.IngredientName
		}
		if r.ProductName != "" {
			doc["product_name"] = r.ProductName
		}
		docs[i] = doc
	}
	return docs
}
