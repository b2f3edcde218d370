package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bloglist/internal/auth"
	"bloglist/internal/domain"
	"bloglist/internal/repository"
	"bloglist/internal/repository/sqlite"
)

type fixture struct {
	store   repository.Store
	tokens  *auth.TokenManager
	users   UserService
	entries EntryService
}

func newFixture(t *testing.T, notify ChangeNotifier) *fixture {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := sqlite.NewStore(db)
	require.NoError(t, store.Init(context.Background()))

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return &fixture{
		store:   store,
		tokens:  tokens,
		users:   NewUserService(store.Authors, auth.NewBcryptCredentials(bcrypt.MinCost), tokens),
		entries: NewEntryService(store, notify),
	}
}

func (f *fixture) register(t *testing.T, username string) *domain.Author {
	t.Helper()
	author, err := f.users.Register(context.Background(), RegisterInput{
		Username: username,
		Name:     username + " name",
		Password: "secret",
	})
	require.NoError(t, err)
	return author
}

func (f *fixture) create(t *testing.T, actor *domain.Author, title string, likes int) *domain.Entry {
	t.Helper()
	entry, err := f.entries.CreateEntry(context.Background(), actor, domain.EntryFields{
		Title:  title,
		Author: "Someone",
		URL:    "https://example.com/" + title,
		Likes:  &likes,
	})
	require.NoError(t, err)
	return entry
}

type countingNotifier struct{ calls int }

func (n *countingNotifier) EntriesChanged(context.Context) { n.calls++ }

func fieldsWithLikes(title string, likes int) domain.EntryFields {
	return domain.EntryFields{
		Title:  title,
		Author: "Someone",
		URL:    "https://example.com/" + title,
		Likes:  &likes,
	}
}
