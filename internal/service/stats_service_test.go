package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloglist/internal/cache"
	"bloglist/internal/domain"
	"bloglist/internal/repository"
	"bloglist/internal/stats"
)

// pausingEntries blocks the first List call after it has read, until release is closed.
type pausingEntries struct {
	repository.EntryRepository
	read    chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *pausingEntries) List(ctx context.Context, sort repository.EntrySort) ([]domain.Entry, error) {
	entries, err := p.EntryRepository.List(ctx, sort)
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})
	return entries, err
}

func TestStatsService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	svc := NewStatsService(f.store.Entries, nil, time.Minute, nil)

	_, err := svc.Favorite(ctx)
	assert.ErrorIs(t, err, stats.ErrNoEntries)
	_, ok, err := svc.MostProlific(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = svc.MostLiked(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	root := f.register(t, "root")
	f.create(t, root, "a", 7)
	f.create(t, root, "b", 12)
	f.create(t, root, "c", 12)

	total, err := svc.TotalLikes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 31, total)

	fav, err := svc.Favorite(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", fav.Title)

	prolific, ok, err := svc.MostProlific(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, stats.AuthorEntries{Author: "Someone", Entries: 3}, prolific)

	liked, ok, err := svc.MostLiked(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, stats.AuthorLikes{Author: "Someone", Likes: 31}, liked)
}

func TestStatsService_CacheInvalidatedOnMutation(t *testing.T) {
	ctx := context.Background()
	db := newFixture(t, nil)
	svc := NewStatsService(db.store.Entries, cache.NewMemory(), time.Hour, nil)
	entries := NewEntryService(db.store, svc)

	root := db.register(t, "root")
	_, err := entries.CreateEntry(ctx, root, fieldsWithLikes("first", 5))
	require.NoError(t, err)

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, sum.TotalLikes)

	second, err := entries.CreateEntry(ctx, root, fieldsWithLikes("second", 3))
	require.NoError(t, err)
	sum, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, sum.TotalLikes)
	assert.Equal(t, 2, sum.Entries)

	_, err = entries.UpdateLikes(ctx, second.ID, 30)
	require.NoError(t, err)
	fav, err := svc.Favorite(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", fav.Title)

	require.NoError(t, entries.DeleteEntry(ctx, root, second.ID))
	sum, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, sum.TotalLikes)
	assert.Equal(t, 1, sum.Entries)
}

func TestStatsService_ServesCachedSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	svc := NewStatsService(f.store.Entries, cache.NewMemory(), time.Hour, nil)

	root := f.register(t, "root")
	f.create(t, root, "first", 5)

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, sum.TotalLikes)

	// written behind the service's back, so no invalidation happens
	f.create(t, root, "hidden", 100)

	sum, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, sum.TotalLikes)
}

func TestStatsService_ConcurrentMutationIsNotCachedStale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	root := f.register(t, "root")
	entry := f.create(t, root, "only", 1)

	entries := &pausingEntries{
		EntryRepository: f.store.Entries,
		read:            make(chan struct{}),
		release:         make(chan struct{}),
	}
	svc := NewStatsService(entries, cache.NewMemory(), time.Hour, nil)
	mutations := NewEntryService(f.store, svc)

	done := make(chan Summary)
	go func() {
		sum, err := svc.Summary(ctx)
		assert.NoError(t, err)
		done <- sum
	}()

	<-entries.read
	_, err := mutations.UpdateLikes(ctx, entry.ID, 50)
	require.NoError(t, err)
	close(entries.release)

	inFlight := <-done
	assert.Equal(t, 1, inFlight.TotalLikes)

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, sum.TotalLikes)
}
