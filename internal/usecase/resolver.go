// Package usecase holds the application services: product resolution and
// the acquisition state machine that drives a scan-to-accepted flow.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pantrypal/backend/internal/domain"
)

// ResolverConfig holds configuration for the resolver service.
type ResolverConfig struct {
	CacheTTL time.Duration
}

// ResolverService resolves barcodes to canonical product records. Every
// resolution yields exactly one record; lookup failures are absorbed into
// Outcome rather than surfaced as errors, so the only error a caller can
// see is domain.ErrInvalidBarcode.
type ResolverService struct {
	lookup   domain.ProductLookup
	cache    domain.CacheRepository
	history  domain.HistoryRepository
	cacheTTL time.Duration
}

// NewResolverService creates a resolver service. cache and history may be
// nil; resolution works without either.
func NewResolverService(
	lookup domain.ProductLookup,
	cache domain.CacheRepository,
	history domain.HistoryRepository,
	config ResolverConfig,
) *ResolverService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 720 * time.Hour // 30 days
	}

	return &ResolverService{
		lookup:   lookup,
		cache:    cache,
		history:  history,
		cacheTTL: cacheTTL,
	}
}

// Resolve looks up a barcode and returns the canonical record. Idempotent
// and safe to call repeatedly for the same barcode; one external call per
// cache miss, no internal retry.
func (s *ResolverService) Resolve(ctx context.Context, barcode string) (*domain.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, domain.ErrInvalidBarcode
	}

	cacheKey := cacheKeyFor(barcode)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
			return cached, nil
		}
	}

	product, err := s.lookup.FetchProduct(ctx, barcode)
	switch {
	case err == nil:
		// Only confirmed matches are cached: a NOT_FOUND or ERROR today
		// may resolve tomorrow, and callers decide retry policy.
		if s.cache != nil {
			if cerr := s.cache.Set(ctx, cacheKey, product, s.cacheTTL); cerr != nil {
				log.Printf("[Resolver] cache set failed for %q: %v", barcode, cerr)
			}
		}
	case errors.Is(err, domain.ErrProductNotFound):
		product = domain.FallbackProduct(barcode, domain.OutcomeNotFound)
	default:
		log.Printf("[Resolver] lookup failed for %q: %v", barcode, err)
		product = domain.FallbackProduct(barcode, domain.OutcomeError)
	}

	s.record(ctx, product)
	return product, nil
}

// record appends the outcome to the scan history. Best effort: a history
// failure never fails a resolution.
func (s *ResolverService) record(ctx context.Context, p *domain.Product) {
	if s.history == nil {
		return
	}
	entry := domain.ResolutionEntry{
		Barcode:   p.Barcode,
		Outcome:   p.Outcome,
		Name:      p.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.history.Record(ctx, entry); err != nil {
		log.Printf("[Resolver] history record failed for %q: %v", p.Barcode, err)
	}
}

func cacheKeyFor(barcode string) string {
	return fmt.Sprintf("product:%s", barcode)
}
