package poster

import "github.com/posterops/poster-bridge/pkg/types"

// Product is a raw menu product as returned by menu.getProducts.
type Product struct {
	ProductID      types.Number `json:"product_id"`
	ProductName    string       `json:"product_name"`
	Type           types.Number `json:"type"`
	MenuCategoryID types.Number `json:"menu_category_id"`
	Unit           string       `json:"unit"`
}

// Ingredient is a raw ingredient as returned by menu.getIngredients.
type Ingredient struct {
	IngredientID   types.Number `json:"ingredient_id"`
	IngredientName string       `json:"ingredient_name"`
	CategoryID     types.Number `json:"category_id"`
	Unit           string       `json:"ingredient_unit"`
}

// Transaction is the detail record returned by dash.getTransaction and
// the per-row shape of dash.getTransactions.
type Transaction struct {
	TransactionID types.Number         `json:"transaction_id"`
	SpotID        types.Number         `json:"spot_id"`
	ClientID      types.Number         `json:"client_id"`
	TableID       types.Number         `json:"table_id"`
	Status        types.Number         `json:"status"`
	DateStart     string               `json:"date_start"`
	DateClose     string               `json:"date_close"`
	Sum           types.Number         `json:"sum"`
	PayedSum      types.Number         `json:"payed_sum"`
	Products      []TransactionProduct `json:"products,omitempty"`
}

// TransactionProduct is one sold line inside a transaction.
type TransactionProduct struct {
	ProductID      types.Number `json:"product_id"`
	ModificationID types.Number `json:"modification_id"`
	Num            types.Number `json:"num"`
	ProductSum     types.Number `json:"product_sum"`
	PayedSum       types.Number `json:"payed_sum"`
}

// WriteOff is a raw stock write-off row from dash.getTransactionWriteoffs.
type WriteOff struct {
	WriteOffID    types.Number `json:"write_off_id"`
	TransactionID types.Number `json:"transaction_id"`
	StorageID     types.Number `json:"storage_id"`
	IngredientID  types.Number `json:"ingredient_id"`
	ProductID     types.Number `json:"product_id"`
	ModificatorID types.Number `json:"modificator_id"`
	PrepackID     types.Number `json:"prepack_id"`
	Weight        types.Number `json:"weight"`
	Unit          string       `json:"unit"`
	Cost          types.Number `json:"cost"`
	CostNetto     types.Number `json:"cost_netto"`
	Time          types.Number `json:"time"`
}

// TransactionPage bundles one page of the paginated transaction feed.
type TransactionPage struct {
	Transactions []Transaction
	Page         int
}

// TransactionListParams narrow the dash.getTransactions pull. DateFrom
// and DateTo are forwarded upstream when set, but deployments exist
// where the upstream ignores them, so callers must still filter.
type TransactionListParams struct {
	Page     int
	PerPage  int
	DateFrom string
	DateTo   string
}
