package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, time.Minute), mr
}

func TestRedisCache_CategoriesRoundTrip(t *testing.T) {
	cache, mr := newTestRedisCache(t)
	ctx := context.Background()

	got, err := cache.GetCategories(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "miss returns nil")

	categories := []Category{{ID: 1, Name: "Science"}, {ID: 2, Name: "Art"}}
	require.NoError(t, cache.SetCategories(ctx, categories))

	got, err = cache.GetCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, categories, got)
	assert.Equal(t, time.Minute, mr.TTL(categoriesKey))
}

func TestRedisCache_PageRoundTrip(t *testing.T) {
	cache, _ := newTestRedisCache(t)
	ctx := context.Background()

	page, version, err := cache.GetPage(ctx, 1, 10)
	require.NoError(t, err)
	assert.Nil(t, page)
	assert.Equal(t, int64(0), version)

	stored := Page{
		Number:     1,
		Questions:  []Question{{ID: 4, Text: "Largest planet?", Answer: "Jupiter", CategoryID: 1, Difficulty: 2}},
		Total:      1,
		Categories: []Category{{ID: 1, Name: "Science"}},
	}
	require.NoError(t, cache.SetPage(ctx, version, 10, stored))

	page, _, err = cache.GetPage(ctx, 1, 10)
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Equal(t, stored, *page)

	page, _, err = cache.GetPage(ctx, 1, 5)
	require.NoError(t, err)
	assert.Nil(t, page, "page size is part of the key")
}

func TestRedisCache_InvalidateBumpsVersionAndDropsCategories(t *testing.T) {
	cache, mr := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetCategories(ctx, []Category{{ID: 1, Name: "Science"}}))
	require.NoError(t, cache.SetPage(ctx, 0, 10, Page{Number: 1, Total: 1}))

	require.NoError(t, cache.InvalidateQuestions(ctx))

	assert.False(t, mr.Exists(categoriesKey))
	v, err := mr.Get(questionVersionKey)
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	page, version, err := cache.GetPage(ctx, 1, 10)
	require.NoError(t, err)
	assert.Nil(t, page, "pages of the old version are no longer read")
	assert.Equal(t, int64(1), version)
}

func TestRedisCache_StalePageWriteIsNotServed(t *testing.T) {
	cache, _ := newTestRedisCache(t)
	ctx := context.Background()

	_, version, err := cache.GetPage(ctx, 1, 10)
	require.NoError(t, err)

	// A mutation lands between the miss and the write.
	require.NoError(t, cache.InvalidateQuestions(ctx))
	require.NoError(t, cache.SetPage(ctx, version, 10, Page{Number: 1, Total: 3}))

	page, _, err := cache.GetPage(ctx, 1, 10)
	require.NoError(t, err)
	assert.Nil(t, page)
}

// deletingStore removes a question while a page listing is in progress.
type deletingStore struct {
	*memoryStore
	onList func()
}

func (d *deletingStore) ListQuestions(ctx context.Context, limit, offset int) ([]Question, error) {
	questions, err := d.memoryStore.ListQuestions(ctx, limit, offset)
	if d.onList != nil {
		hook := d.onList
		d.onList = nil
		hook()
	}
	return questions, err
}

func TestQuestions_DeleteDuringListingDoesNotPoisonCache(t *testing.T) {
	cache, _ := newTestRedisCache(t)
	mem := newMemoryStore()
	mem.seed(3, 1)
	store := &deletingStore{memoryStore: mem}
	svc := newTestService(store, cache)
	ctx := context.Background()

	store.onList = func() {
		require.NoError(t, svc.Delete(ctx, 1))
	}

	page, err := svc.Questions(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total, "listing started before the delete")

	page, err = svc.Questions(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Questions, 2)
}
