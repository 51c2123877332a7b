package writeoffs

import (
	"context"
	"errors"
	"strconv"

	"github.com/posterops/poster-bridge/internal/catalog"
	"github.com/posterops/poster-bridge/pkg/logger"
	"github.com/posterops/poster-bridge/pkg/poster"
)

type catalogNamer interface {
	GetItemName(ctx context.Context, id string, itemType catalog.ItemType) string
}

// Enricher turns raw upstream write-off rows into classified, named
// records.
type Enricher struct {
	catalog catalogNamer
	logg    *logger.Logger
}

func NewEnricher(names catalogNamer, logg *logger.Logger) (*Enricher, error) {
	if names == nil {
		return nil, errors.New("catalog namer required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Enricher{catalog: names, logg: logg}, nil
}

// EnrichAll classifies every row and resolves display names from the
// catalog. Name misses resolve to the Unknown sentinel, never an error.
func (e *Enricher) EnrichAll(ctx context.Context, raws []poster.WriteOff) []Record {
	records := make([]Record, 0, len(raws))
	for _, raw := range raws {
		records = append(records, e.enrich(ctx, raw))
	}
	return records
}

func (e *Enricher) enrich(ctx context.Context, raw poster.WriteOff) Record {
	record := Record{
		WriteOffID:    raw.WriteOffID.Int64(),
		StorageID:     raw.StorageID.Int64(),
		IngredientID:  raw.IngredientID.Int64(),
		ProductID:     raw.ProductID.Int64(),
		ModificatorID: raw.ModificatorID.Int64(),
		PrepackID:     raw.PrepackID.Int64(),
		Weight:        raw.Weight.Float64(),
		Unit:          raw.Unit,
		Cost:          raw.Cost.Float64(),
		CostNetto:     raw.CostNetto.Float64(),
		Time:          raw.Time.Int64(),
		Type:          Classify(raw),
	}

	if record.IngredientID != 0 {
		record.IngredientName = e.catalog.GetItemName(ctx, strconv.FormatInt(record.IngredientID, 10), catalog.ItemTypeIngredient)
	}
	if record.ProductID != 0 {
		record.ProductName = e.catalog.GetItemName(ctx, strconv.FormatInt(record.ProductID, 10), catalog.ItemTypeProduct)
	}
	return record
}
