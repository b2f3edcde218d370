package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloglist/internal/domain"
	"bloglist/internal/repository"
)

func TestCreateEntry(t *testing.T) {
	ctx := context.Background()
	notify := &countingNotifier{}
	f := newFixture(t, notify)
	root := f.register(t, "root")

	entry, err := f.entries.CreateEntry(ctx, root, domain.EntryFields{
		Title:  "  Go To Statement Considered Harmful ",
		Author: "Edsger W. Dijkstra",
		URL:    "http://example.com/goto",
	})
	require.NoError(t, err)
	assert.Equal(t, "Go To Statement Considered Harmful", entry.Title)
	assert.Equal(t, 0, entry.Likes)
	assert.Equal(t, root.ID, entry.OwnerID)
	assert.Equal(t, 1, notify.calls)

	owner, err := f.users.GetByID(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{entry.ID}, owner.Entries)

	second := f.create(t, root, "second", 4)
	owner, err = f.users.GetByID(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{entry.ID, second.ID}, owner.Entries)
}

func TestCreateEntry_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	root := f.register(t, "root")
	negative := -1

	tests := []struct {
		name   string
		fields domain.EntryFields
		field  string
	}{
		{"missing title", domain.EntryFields{Author: "a", URL: "u"}, "title"},
		{"blank title", domain.EntryFields{Title: "   ", Author: "a", URL: "u"}, "title"},
		{"missing url", domain.EntryFields{Title: "t", Author: "a"}, "url"},
		{"missing author", domain.EntryFields{Title: "t", URL: "u"}, "author"},
		{"title before url", domain.EntryFields{Author: "a"}, "title"},
		{"negative likes", domain.EntryFields{Title: "t", Author: "a", URL: "u", Likes: &negative}, "likes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.entries.CreateEntry(ctx, root, tt.fields)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	entries, err := f.entries.ListEntries(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateEntry_RequiresActor(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.entries.CreateEntry(context.Background(), nil, domain.EntryFields{Title: "t", Author: "a", URL: "u"})
	var authErr *domain.AuthenticationError
	require.ErrorAs(t, err, &authErr)
}

func TestCreateEntry_UnknownActor(t *testing.T) {
	f := newFixture(t, nil)
	ghost := &domain.Author{ID: uuid.NewString(), Username: "ghost"}

	_, err := f.entries.CreateEntry(context.Background(), ghost, domain.EntryFields{Title: "t", Author: "a", URL: "u"})
	var authErr *domain.AuthenticationError
	require.ErrorAs(t, err, &authErr)
}

func TestDeleteEntry(t *testing.T) {
	ctx := context.Background()
	notify := &countingNotifier{}
	f := newFixture(t, notify)
	root := f.register(t, "root")
	keep := f.create(t, root, "keep", 1)
	gone := f.create(t, root, "gone", 2)

	_, err := f.entries.AddComment(ctx, gone.ID, "nice")
	require.NoError(t, err)

	require.NoError(t, f.entries.DeleteEntry(ctx, root, gone.ID))
	assert.Equal(t, 3, notify.calls)

	_, err = f.entries.GetEntry(ctx, gone.ID)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "entry", nf.Kind)

	owner, err := f.users.GetByID(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{keep.ID}, owner.Entries)

	comments, err := f.store.Comments.ListByEntry(ctx, gone.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	err = f.entries.DeleteEntry(ctx, root, gone.ID)
	require.ErrorAs(t, err, &nf)
}

func TestDeleteEntry_NonOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	root := f.register(t, "root")
	other := f.register(t, "other")
	entry := f.create(t, root, "mine", 3)

	err := f.entries.DeleteEntry(ctx, other, entry.ID)
	var forbidden *domain.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Equal(t, other.ID, forbidden.ActorID)

	err = f.entries.DeleteEntry(ctx, nil, entry.ID)
	var authErr *domain.AuthenticationError
	require.ErrorAs(t, err, &authErr)

	got, err := f.entries.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Likes)

	owner, err := f.users.GetByID(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{entry.ID}, owner.Entries)
}

func TestEntryIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	root := f.register(t, "root")

	_, err := f.entries.GetEntry(ctx, "5a3d5da59070081a82a3445")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "id", verr.Field)
	assert.Equal(t, "malformatted id", verr.Error())

	missing := uuid.NewString()
	_, err = f.entries.GetEntry(ctx, missing)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, missing, nf.ID)

	f.create(t, root, "survivor", 0)
	before, err := f.entries.ListEntries(ctx, false)
	require.NoError(t, err)
	require.Len(t, before, 1)

	err = f.entries.DeleteEntry(ctx, root, "not-an-id")
	require.ErrorAs(t, err, &verr)
	err = f.entries.DeleteEntry(ctx, root, missing)
	require.ErrorAs(t, err, &nf)

	after, err := f.entries.ListEntries(ctx, false)
	require.NoError(t, err)
	assert.Len(t, after, len(before))

	_, err = f.entries.UpdateLikes(ctx, missing, 1)
	require.ErrorAs(t, err, &nf)

	_, err = f.entries.AddComment(ctx, missing, "hello")
	require.ErrorAs(t, err, &nf)
}

func TestUpdateLikes(t *testing.T) {
	ctx := context.Background()
	notify := &countingNotifier{}
	f := newFixture(t, notify)
	root := f.register(t, "root")
	entry := f.create(t, root, "liked", 2)

	updated, err := f.entries.UpdateLikes(ctx, entry.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Likes)
	assert.Equal(t, entry.Title, updated.Title)
	assert.Equal(t, 2, notify.calls)

	_, err = f.entries.UpdateLikes(ctx, entry.ID, -1)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "likes", verr.Field)

	got, err := f.entries.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Likes)
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	root := f.register(t, "root")
	entry := f.create(t, root, "discussed", 0)

	first, err := f.entries.AddComment(ctx, entry.ID, "first")
	require.NoError(t, err)
	second, err := f.entries.AddComment(ctx, entry.ID, "second")
	require.NoError(t, err)

	_, err = f.entries.AddComment(ctx, entry.ID, "  ")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "text", verr.Field)

	comments, err := f.entries.ListComments(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Text)
	assert.Equal(t, "second", comments[1].Text)

	got, err := f.entries.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID}, got.Comments)
}

func TestListEntries_Sort(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	root := f.register(t, "root")
	low := f.create(t, root, "low", 1)
	high := f.create(t, root, "high", 9)
	mid := f.create(t, root, "mid", 5)

	byLikes, err := f.entries.ListEntries(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{high.ID, mid.ID, low.ID}, ids(byLikes))

	byCreated, err := f.entries.ListEntries(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{low.ID, high.ID, mid.ID}, ids(byCreated))
}

func TestErrorKindsAreDistinct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	root := f.register(t, "root")
	other := f.register(t, "other")
	entry := f.create(t, root, "x", 0)

	err := f.entries.DeleteEntry(ctx, other, entry.ID)
	var nf *domain.NotFoundError
	var verr *domain.ValidationError
	assert.False(t, errors.As(err, &nf))
	assert.False(t, errors.As(err, &verr))
}

func ids(entries []domain.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

type failingLinks struct {
	repository.AuthorRepository
}

func (failingLinks) ReplaceEntries(context.Context, string, []string) error {
	return errors.New("link write failed")
}

func TestCreateEntry_LinkFailureLeavesNoEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	root := f.register(t, "root")

	store := f.store
	store.Authors = failingLinks{AuthorRepository: f.store.Authors}
	svc := NewEntryService(store, nil)

	_, err := svc.CreateEntry(ctx, root, fieldsWithLikes("orphan", 1))
	require.EqualError(t, err, "link write failed")

	entries, err := f.entries.ListEntries(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, entries)

	owner, err := f.users.GetByID(ctx, root.ID)
	require.NoError(t, err)
	assert.Empty(t, owner.Entries)
}
