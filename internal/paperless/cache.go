package paperless

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"
)

type fetchFunc[T any] func(ctx context.Context) ([]T, error)

// cacheSlot holds one taxonomy collection with its fetch timestamp. Each slot
// carries its own lock so distinct collections never serialize on each other.
type cacheSlot[T any] struct {
	mu        sync.Mutex
	items     []T
	fetchedAt time.Time
}

func (s *cacheSlot[T]) fresh(ttl time.Duration) bool {
	return s.items != nil && time.Since(s.fetchedAt) < ttl
}

func (s *cacheSlot[T]) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.fetchedAt = time.Time{}
}

// taxonomyCache caches the backend's tags, correspondents, and document types
// for a bounded TTL. Each collection refetches independently when stale.
type taxonomyCache struct {
	ttl time.Duration

	tagSlot  cacheSlot[Tag]
	corrSlot cacheSlot[Correspondent]
	typeSlot cacheSlot[DocumentType]
}

func newTaxonomyCache(ttl time.Duration) *taxonomyCache {
	return &taxonomyCache{ttl: ttl}
}

func (tc *taxonomyCache) tags(ctx context.Context, fetch fetchFunc[Tag]) ([]Tag, error) {
	return cached(tc.ttl, ctx, &tc.tagSlot, fetch)
}

func (tc *taxonomyCache) correspondents(ctx context.Context, fetch fetchFunc[Correspondent]) ([]Correspondent, error) {
	return cached(tc.ttl, ctx, &tc.corrSlot, fetch)
}

func (tc *taxonomyCache) documentTypes(ctx context.Context, fetch fetchFunc[DocumentType]) ([]DocumentType, error) {
	return cached(tc.ttl, ctx, &tc.typeSlot, fetch)
}

func (tc *taxonomyCache) invalidateTags() {
	tc.tagSlot.reset()
}

func (tc *taxonomyCache) invalidateCorrespondents() {
	tc.corrSlot.reset()
}

func (tc *taxonomyCache) invalidateDocumentTypes() {
	tc.typeSlot.reset()
}

func (tc *taxonomyCache) invalidate() {
	tc.tagSlot.reset()
	tc.corrSlot.reset()
	tc.typeSlot.reset()
}

// cached serves the slot when fresh, otherwise fetches under the slot lock so
// concurrent callers of one collection share a single refetch while other
// collections proceed in parallel.
func cached[T any](ttl time.Duration, ctx context.Context, slot *cacheSlot[T], fetch fetchFunc[T]) ([]T, error) {
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.fresh(ttl) {
		return slot.items, nil
	}

	items, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}

	slot.items = items
	slot.fetchedAt = time.Now()
	return items, nil
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func equalFold(a, b string) bool {
	return fold(a) == fold(b)
}

// relativize strips the base URL prefix from an absolute next link so it can
// be reissued through the client's request builder.
func relativize(baseURL, link string) string {
	if strings.HasPrefix(link, baseURL) {
		return strings.TrimPrefix(link, baseURL)
	}
	if u, err := url.Parse(link); err == nil && u.Host != "" {
		return u.RequestURI()
	}
	return link
}
