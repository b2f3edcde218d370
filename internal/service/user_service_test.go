package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloglist/internal/auth"
	"bloglist/internal/domain"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	author, err := f.users.Register(ctx, RegisterInput{Username: " mluukkai ", Name: "Matti Luukkainen", Password: "salainen"})
	require.NoError(t, err)
	assert.Equal(t, "mluukkai", author.Username)
	assert.Empty(t, author.PasswordHash)
	assert.Empty(t, author.Entries)

	stored, err := f.store.Authors.GetByID(ctx, author.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "salainen", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestRegister_Rejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.register(t, "root")

	tests := []struct {
		name   string
		input  RegisterInput
		field  string
		reason string
	}{
		{"short username", RegisterInput{Username: "ab", Password: "secret"}, "username", "username is shorter than the minimum allowed length (3)"},
		{"missing username", RegisterInput{Password: "secret"}, "username", "username is required"},
		{"short password", RegisterInput{Username: "valid", Password: "pw"}, "password", "Password must be at least 3 chars long"},
		{"missing password", RegisterInput{Username: "valid"}, "password", "password is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.Register(ctx, tt.input)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.reason, verr.Reason)
		})
	}

	authors, err := f.users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, authors, 1)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.register(t, "root")

	_, err := f.users.Register(ctx, RegisterInput{Username: "root", Name: "Superuser", Password: "salainen"})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "expected `username` to be unique", conflict.Error())

	authors, err := f.users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, authors, 1)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	root := f.register(t, "root")

	token, author, err := f.users.Login(ctx, "root", "secret")
	require.NoError(t, err)
	assert.Equal(t, root.ID, author.ID)

	resolved, err := auth.NewResolver(f.tokens, f.store.Authors).Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, root.ID, resolved.ID)

	_, _, err = f.users.Login(ctx, "root", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = f.users.Login(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestListAuthors_HidesHashes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	root := f.register(t, "root")
	entry := f.create(t, root, "owned", 0)

	authors, err := f.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, authors, 1)
	assert.Empty(t, authors[0].PasswordHash)
	assert.Equal(t, []string{entry.ID}, authors[0].Entries)
}
