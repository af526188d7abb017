package domain

import "time"

type SpoilageStatus string

const (
	StatusFresh      SpoilageStatus = "fresh"
	StatusNearExpiry SpoilageStatus = "near_expiry"
	StatusExpired    SpoilageStatus = "expired"
	StatusUnknown    SpoilageStatus = "unknown"
)

const (
	MaxNameLen       = 100
	MaxUnitLen       = 20
	MaxShelfLifeDays = 3650
)

type Ingredient struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Unit          string     `json:"unit"`
	StockQty      float64    `json:"stock_qty"`
	ShelfLifeDays int        `json:"shelf_life_days"`
	PurchasedAt   *time.Time `json:"purchased_at"` // nil = never purchased
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Spoilage is the freshness view derived from an ingredient and a reference
// instant. It is recomputed on every read and never persisted.
type Spoilage struct {
	ExpiryDate    *time.Time     `json:"expiry_date"`
	DaysRemaining *int           `json:"days_remaining"`
	Status        SpoilageStatus `json:"status"`
}

type IngredientWithSpoilage struct {
	Ingredient
	InStock bool `json:"in_stock"`
	Spoilage
}

// IngredientPatch is a partial update; nil fields are left untouched.
type IngredientPatch struct {
	Name          *string
	Unit          *string
	StockQty      *float64
	ShelfLifeDays *int
	PurchasedAt   *time.Time
	UpdatedAt     *time.Time
}
