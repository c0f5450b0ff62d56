package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

const slugFilterFPR = 0.001

// SlugFilter is a Directory decorator that keeps a bloom filter of every
// product slug and rejects definite misses without touching the database.
//
// The filter only ever produces false positives, so a "maybe present" answer
// still goes to the underlying repository. The trade-off is staleness:
// a product added after the last refresh is reported as missing until the
// next refresh, which is acceptable for a catalog that changes via seeding.
type SlugFilter struct {
	repo ProductRepository

	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

var _ Directory = (*SlugFilter)(nil)

// NewSlugFilter creates a SlugFilter around repo. The filter starts empty
// and pass-through; call Refresh (or Run) to populate it.
func NewSlugFilter(repo ProductRepository) *SlugFilter {
	return &SlugFilter{repo: repo}
}

// Refresh rebuilds the filter from the current set of product slugs.
func (f *SlugFilter) Refresh(ctx context.Context) error {
	slugs, err := f.repo.ListSlugs(ctx)
	if err != nil {
		return err
	}

	n := uint(len(slugs))
	if n == 0 {
		n = 1
	}
	filter := bloom.NewWithEstimates(n, slugFilterFPR)
	for _, s := range slugs {
		filter.AddString(s)
	}

	f.mu.Lock()
	f.filter = filter
	f.mu.Unlock()
	return nil
}

// Run refreshes the filter immediately and then every interval until ctx is
// cancelled. Refresh errors are logged and the previous filter stays active.
func (f *SlugFilter) Run(ctx context.Context, interval time.Duration) {
	lg := zctx.From(ctx)
	if err := f.Refresh(ctx); err != nil {
		lg.Warn("Initial slug filter refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := f.Refresh(ctx); err != nil {
				lg.Warn("Slug filter refresh failed", zap.Error(err))
			}
		}
	}
}

// GetBySlug short-circuits slugs the filter knows are absent, otherwise
// delegates to the repository.
func (f *SlugFilter) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	f.mu.RLock()
	filter := f.filter
	f.mu.RUnlock()

	if filter != nil && !filter.TestString(slug) {
		return nil, ErrNotFound
	}
	return f.repo.GetBySlug(ctx, slug)
}
