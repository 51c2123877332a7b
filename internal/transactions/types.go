package transactions

import (
	"strconv"

	"github.com/posterops/poster-bridge/pkg/poster"
	"github.com/posterops/poster-bridge/pkg/store"
)

// Storage layout. Records are keyed by the upstream transaction id in
// string form; redeliveries upsert into the same document.
const (
	Collection    = "transactions"
	IdentityField = "transaction_id"
)

// SyncResult aggregates one bulk-sync run.
type SyncResult struct {
	TotalRows         int `json:"totalRows"`
	AffectedRows      int `json:"affectedRows"`
	AffectedWithError int `json:"affectedWithError"`
	PagesProcessed    int `json:"pagesProcessed"`
}

// ListParams narrow a read of stored transactions.
type ListParams struct {
	StartDate string
	EndDate   string
	Limit     int
}

// SyncParams gate a bulk pull. DateFrom is mandatory so a sync can
// never accidentally walk the full upstream history.
type SyncParams struct {
	DateFrom string
	DateTo   string
}

// DocumentFromTransaction flattens an upstream transaction into the
// stored shape.
func DocumentFromTransaction(tx poster.Transaction) store.Document {
	doc := store.Document{
		IdentityField: strconv.FormatInt(tx.TransactionID.Int64(), 10),
		"spot_id":     tx.SpotID.Int64(),
		"client_id":   tx.ClientID.Int64(),
		"table_id":    tx.TableID.Int64(),
		"status":      tx.Status.Int64(),
		"date_start":  tx.DateStart,
		"date_close":  tx.DateClose,
		"sum":         tx.Sum.Float64(),
		"payed_sum":   tx.PayedSum.Float64(),
	}
	if len(tx.Products) > 0 {
		doc["products"] = encodeProducts(tx.Products)
	}
	return doc
}

func encodeProducts(lines []poster.TransactionProduct) []any {
	encoded := make([]any, len(lines))
	for i, line := range lines {
		encoded[i] = store.Document{
			"product_id":      line.ProductID.Int64(),
			"modification_id": line.ModificationID.Int64(),
			"num":             line.Num.Float64(),
			"product_sum":     line.ProductSum.Float64(),
			"payed_sum":       line.PayedSum.Float64(),
		}
	}
	return encoded
}
