package domain

import "time"

// BuyResult is the discriminated outcome of a buy action. Callers must check
// Success before touching the payload; on failure every payload field is nil
// and Error carries a human-readable message.
type BuyResult struct {
	Success          bool                    `json:"success"`
	Error            string                  `json:"error,omitempty"`
	Ingredient       *IngredientWithSpoilage `json:"ingredient"`
	PreviousStockQty *float64                `json:"previous_stock_qty"`
	NewStockQty      *float64                `json:"new_stock_qty"`
}

type ChangeOp string

const (
	ChangeCreated ChangeOp = "created"
	ChangeUpdated ChangeOp = "updated"
	ChangeDeleted ChangeOp = "deleted"
	ChangeBought  ChangeOp = "bought"
)

// ChangeEvent notifies live views that a record changed and a re-read is due.
type ChangeEvent struct {
	Op           ChangeOp  `json:"op"`
	IngredientID string    `json:"ingredient_id"`
	At           time.Time `json:"at"`
}

// AuditRecord captures a buy's before/after stock for future replay. It is
// derived only from a successful result and never persisted by the core.
type AuditRecord struct {
	Action           string    `json:"action"`
	IngredientID     string    `json:"ingredient_id"`
	PreviousStockQty float64   `json:"previous_stock_qty"`
	NewStockQty      float64   `json:"new_stock_qty"`
	At               time.Time `json:"at"`
}

// NewBuyAudit derives the audit record for a successful buy result. It returns
// false when the result is not auditable (failed or missing payload).
func NewBuyAudit(res BuyResult, at time.Time) (AuditRecord, bool) {
	if !res.Success || res.Ingredient == nil || res.PreviousStockQty == nil || res.NewStockQty == nil {
		return AuditRecord{}, false
	}
	return AuditRecord{
		Action:           "buy",
		IngredientID:     res.Ingredient.ID,
		PreviousStockQty: *res.PreviousStockQty,
		NewStockQty:      *res.NewStockQty,
		At:               at,
	}, true
}
