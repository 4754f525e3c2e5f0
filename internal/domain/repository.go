package domain

import (
	"context"
	"time"
)

// ProductLookup defines the interface for the external product database.
// Implementations issue exactly one read-only query per call; retry policy
// belongs to the caller.
type ProductLookup interface {
	FetchProduct(ctx context.Context, barcode string) (*Product, error)
}

// CacheRepository defines the interface for caching resolved products.
type CacheRepository interface {
	Get(ctx context.Context, key string) (*Product, error)
	Set(ctx context.Context, key string, value *Product, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// HistoryRepository records resolution outcomes for diagnostics.
type HistoryRepository interface {
	Record(ctx context.Context, entry ResolutionEntry) error
	Recent(ctx context.Context, limit int) ([]ResolutionEntry, error)
}

// InventoryGateway submits accepted items to the pantry backend.
type InventoryGateway interface {
	CreateItem(ctx context.Context, item *EnrichedItem) error
}
