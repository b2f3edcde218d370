package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bloglist/internal/auth"
	"bloglist/internal/cache"
	"bloglist/internal/repository"
	"bloglist/internal/repository/sqlite"
	"bloglist/internal/service"
)

func newSeedStore(t *testing.T) repository.Store {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := sqlite.NewStore(db)
	require.NoError(t, store.Init(context.Background()))
	return store
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	store := newSeedStore(t)

	users := service.NewUserService(store.Authors, auth.NewBcryptCredentials(bcrypt.MinCost), nil)
	root := service.RegisterInput{Username: "root", Name: "Superuser", Password: "sekret"}

	first, err := seed(ctx, store, users, nil, root, initialEntries)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Len(t, first.Entries, 2)
	assert.Empty(t, first.Author.PasswordHash)

	second, err := seed(ctx, store, users, nil, root, initialEntries)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Author.ID, second.Author.ID)

	entries, err := store.Entries.List(ctx, repository.SortByCreated)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "React patterns", entries[0].Title)
	assert.Equal(t, 7, entries[0].Likes)

	owner, err := store.Authors.GetByID(ctx, first.Author.ID)
	require.NoError(t, err)
	assert.Equal(t, append(first.Entries, second.Entries...), owner.Entries)
}

func TestSeed_ClearsCachedSummary(t *testing.T) {
	ctx := context.Background()
	store := newSeedStore(t)
	shared := cache.NewMemory()

	// a server process caching the summary before the seed runs
	server := service.NewStatsService(store.Entries, shared, time.Hour, nil)
	before, err := server.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, before.Entries)

	seeder := service.NewStatsService(store.Entries, shared, time.Hour, nil)
	users := service.NewUserService(store.Authors, auth.NewBcryptCredentials(bcrypt.MinCost), nil)
	root := service.RegisterInput{Username: "root", Name: "Superuser", Password: "sekret"}
	_, err = seed(ctx, store, users, seeder, root, initialEntries)
	require.NoError(t, err)

	after, err := server.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, after.Entries)
	assert.Equal(t, 12, after.TotalLikes)
}
