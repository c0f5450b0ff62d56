package catalog

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	bySlug map[string]*Product
	hits   atomic.Int64
}

func (r *countingRepo) GetBySlug(_ context.Context, slug string) (*Product, error) {
	r.hits.Add(1)
	p, ok := r.bySlug[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (r *countingRepo) List(_ context.Context, _ Page) ([]Product, int, error) {
	return nil, 0, nil
}

func (r *countingRepo) ListSlugs(_ context.Context) ([]string, error) {
	slugs := make([]string, 0, len(r.bySlug))
	for s := range r.bySlug {
		slugs = append(slugs, s)
	}
	return slugs, nil
}

func TestSlugFilter(t *testing.T) {
	widget := &Product{ID: "p1", Title: "Widget", Slug: "widget", Price: decimal.NewFromInt(10)}
	repo := &countingRepo{bySlug: map[string]*Product{"widget": widget}}
	filter := NewSlugFilter(repo)
	ctx := context.Background()

	t.Run("pass-through before refresh", func(t *testing.T) {
		_, err := filter.GetBySlug(ctx, "missing")
		require.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, int64(1), repo.hits.Load(), "unpopulated filter must not reject")
	})

	require.NoError(t, filter.Refresh(ctx))

	t.Run("known slug reaches repository", func(t *testing.T) {
		before := repo.hits.Load()
		p, err := filter.GetBySlug(ctx, "widget")
		require.NoError(t, err)
		assert.Equal(t, "Widget", p.Title)
		assert.Equal(t, before+1, repo.hits.Load())
	})

	t.Run("definite miss short-circuits", func(t *testing.T) {
		before := repo.hits.Load()
		_, err := filter.GetBySlug(ctx, "definitely-not-a-product")
		require.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, before, repo.hits.Load(), "miss must not hit the repository")
	})
}
