package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrypal/backend/internal/domain"
)

// stubLookup scripts the provider: per-barcode product or error.
type stubLookup struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	err      error
	calls    int
}

func (s *stubLookup) FetchProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if p, ok := s.products[barcode]; ok {
		return p, nil
	}
	return nil, domain.ErrProductNotFound
}

func (s *stubLookup) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// mapCache is a minimal in-memory CacheRepository for tests.
type mapCache struct {
	mu   sync.Mutex
	data map[string]*domain.Product
}

func newMapCache() *mapCache { return &mapCache{data: map[string]*domain.Product{}} }

func (c *mapCache) Get(ctx context.Context, key string) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.data[key]; ok {
		return p, nil
	}
	return nil, domain.ErrCacheMiss
}

func (c *mapCache) Set(ctx context.Context, key string, value *domain.Product, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// memHistory records entries in memory.
type memHistory struct {
	mu      sync.Mutex
	entries []domain.ResolutionEntry
	err     error
}

func (h *memHistory) Record(ctx context.Context, entry domain.ResolutionEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.entries = append(h.entries, entry)
	return nil
}

func (h *memHistory) Recent(ctx context.Context, limit int) ([]domain.ResolutionEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries, nil
}

func foundProduct(barcode, name string) *domain.Product {
	return &domain.Product{
		Barcode:  barcode,
		Name:     name,
		Category: domain.CategoryDairy,
		Outcome:  domain.OutcomeFound,
	}
}

func TestResolve_EmptyBarcodeFailsFast(t *testing.T) {
	lookup := &stubLookup{}
	svc := NewResolverService(lookup, nil, nil, ResolverConfig{})

	for _, barcode := range []string{"", "   ", "\t"} {
		_, err := svc.Resolve(context.Background(), barcode)
		assert.ErrorIs(t, err, domain.ErrInvalidBarcode)
	}
	assert.Equal(t, 0, lookup.callCount(), "no network round trip for invalid input")
}

func TestResolve_Found(t *testing.T) {
	lookup := &stubLookup{products: map[string]*domain.Product{
		"5901234123457": foundProduct("5901234123457", "Whole Milk"),
	}}
	history := &memHistory{}
	svc := NewResolverService(lookup, newMapCache(), history, ResolverConfig{})

	p, err := svc.Resolve(context.Background(), "5901234123457")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFound, p.Outcome)
	assert.Equal(t, "Whole Milk", p.Name)

	// Second resolve hits the cache; the provider is called once.
	_, err = svc.Resolve(context.Background(), "5901234123457")
	require.NoError(t, err)
	assert.Equal(t, 1, lookup.callCount())

	require.Len(t, history.entries, 1)
	assert.Equal(t, domain.OutcomeFound, history.entries[0].Outcome)
}

func TestResolve_NotFound(t *testing.T) {
	lookup := &stubLookup{}
	svc := NewResolverService(lookup, newMapCache(), nil, ResolverConfig{})

	p, err := svc.Resolve(context.Background(), "0000000000000")
	require.NoError(t, err, "a miss is an outcome, not an error")
	assert.Equal(t, "0000000000000", p.Barcode)
	assert.Equal(t, domain.UnknownProductName, p.Name)
	assert.Equal(t, domain.OutcomeNotFound, p.Outcome)
	assert.Nil(t, p.Nutrition)

	// Misses are never cached: the next attempt asks the provider again.
	_, err = svc.Resolve(context.Background(), "0000000000000")
	require.NoError(t, err)
	assert.Equal(t, 2, lookup.callCount())
}

func TestResolve_TransportErrorAbsorbed(t *testing.T) {
	lookup := &stubLookup{err: errors.New("connection reset")}
	svc := NewResolverService(lookup, newMapCache(), nil, ResolverConfig{})

	p, err := svc.Resolve(context.Background(), "123")
	require.NoError(t, err, "lookup failures never cross the resolver boundary")
	assert.Equal(t, domain.OutcomeError, p.Outcome)

	// Same degraded shape as NOT_FOUND, only the outcome differs.
	notFound := domain.FallbackProduct("123", domain.OutcomeNotFound)
	assert.Equal(t, notFound.Name, p.Name)
	assert.Equal(t, notFound.Barcode, p.Barcode)
	assert.Equal(t, notFound.Category, p.Category)

	// Errors are not cached either.
	_, _ = svc.Resolve(context.Background(), "123")
	assert.Equal(t, 2, lookup.callCount())
}

func TestResolve_HistoryFailureDoesNotFailResolution(t *testing.T) {
	lookup := &stubLookup{products: map[string]*domain.Product{
		"1": foundProduct("1", "Butter"),
	}}
	history := &memHistory{err: errors.New("disk full")}
	svc := NewResolverService(lookup, nil, history, ResolverConfig{})

	p, err := svc.Resolve(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFound, p.Outcome)
}

func TestResolve_AlwaysYieldsRenderableRecord(t *testing.T) {
	// For any barcode, the record has a non-empty name and echoes the
	// barcode, regardless of outcome.
	cases := []*stubLookup{
		{products: map[string]*domain.Product{"42": foundProduct("42", "Oats")}},
		{},
		{err: errors.New("boom")},
	}
	for _, lookup := range cases {
		svc := NewResolverService(lookup, nil, nil, ResolverConfig{})
		p, err := svc.Resolve(context.Background(), "42")
		require.NoError(t, err)
		assert.Equal(t, "42", p.Barcode)
		assert.NotEmpty(t, p.Name)
	}
}
