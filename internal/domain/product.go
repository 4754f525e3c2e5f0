package domain

import "time"

// UnknownProductName is the sentinel name used whenever a lookup yields no
// usable product name. Name is never empty, so forms can always render.
const UnknownProductName = "Unknown Product"

// LookupOutcome classifies what a resolution attempt produced. NotFound
// means the provider answered but had no data; Error means we failed to get
// an answer at all. The distinction matters for retry policy.
type LookupOutcome string

const (
	OutcomeFound    LookupOutcome = "found"
	OutcomeNotFound LookupOutcome = "not_found"
	OutcomeError    LookupOutcome = "error"
)

// Category is the fixed food-category set used across the pantry.
type Category string

const (
	CategoryProduce Category = "produce"
	CategoryDairy   Category = "dairy"
	CategoryMeat    Category = "meat"
	CategoryBakery  Category = "bakery"
	CategoryFrozen  Category = "frozen"
	CategorySpice   Category = "spice"
	CategoryOther   Category = "other"
)

// Product is the canonical record every barcode resolution converges to,
// whether the provider matched, returned nothing, or failed outright.
type Product struct {
	Barcode   string        `json:"barcode"`
	Name      string        `json:"name"`
	Brand     string        `json:"brand,omitempty"`
	ImageURL  string        `json:"imageUrl,omitempty"`
	Category  Category      `json:"category"`
	Nutrition *Nutrition    `json:"nutrition,omitempty"`
	Outcome   LookupOutcome `json:"lookupOutcome"`
}

// Nutrition holds per-100g values. Pointers distinguish "provider had no
// data" from "value is zero"; absent fields are never coerced to 0.
type Nutrition struct {
	Calories    *float64 `json:"calories,omitempty"`
	Fat         *float64 `json:"fat,omitempty"`
	Carbs       *float64 `json:"carbs,omitempty"`
	Protein     *float64 `json:"protein,omitempty"`
	Fiber       *float64 `json:"fiber,omitempty"`
	Sugar       *float64 `json:"sugar,omitempty"`
	Sodium      *float64 `json:"sodium,omitempty"`
	Ingredients string   `json:"ingredientsText,omitempty"`
	Allergens   []string `json:"allergens,omitempty"`
}

// FallbackProduct builds the degraded canonical record used when a lookup
// found nothing or failed. The shape is identical either way; only the
// outcome differs, so callers branch on Outcome and nothing else.
func FallbackProduct(barcode string, outcome LookupOutcome) *Product {
	return &Product{
		Barcode:  barcode,
		Name:     UnknownProductName,
		Category: CategoryOther,
		Outcome:  outcome,
	}
}

// ReviewEdits are the user-editable fields merged into a resolved product
// when the review form is confirmed.
type ReviewEdits struct {
	Name       string     `json:"name,omitempty"`
	Quantity   float64    `json:"quantity"`
	Unit       string     `json:"unit"`
	Category   Category   `json:"category,omitempty"`
	Location   string     `json:"location,omitempty"`
	Expiration *time.Time `json:"expiration,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// EnrichedItem is the accepted outcome of an acquisition flow: resolved
// product fields merged with user edits, ready for the inventory backend.
type EnrichedItem struct {
	Barcode    string        `json:"barcode"`
	Name       string        `json:"name"`
	Brand      string        `json:"brand,omitempty"`
	ImageURL   string        `json:"imageUrl,omitempty"`
	Category   Category      `json:"category"`
	Quantity   float64       `json:"quantity"`
	Unit       string        `json:"unit"`
	Location   string        `json:"location,omitempty"`
	Expiration *time.Time    `json:"expiration,omitempty"`
	Notes      string        `json:"notes,omitempty"`
	Outcome    LookupOutcome `json:"lookupOutcome"`
}

// ResolutionEntry is one row of the scan history: what was scanned, what
// came back, and when.
type ResolutionEntry struct {
	ID        int64         `json:"id,omitempty"`
	Barcode   string        `json:"barcode"`
	Outcome   LookupOutcome `json:"outcome"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"createdAt"`
}
