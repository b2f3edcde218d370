package main

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"bloglist/internal/domain"
	"bloglist/internal/repository"
	"bloglist/internal/service"
)

var initialEntries = []domain.EntryFields{
	{Title: "React patterns", Author: "Michael Chan", URL: "https://reactpatterns.com/", Likes: intPtr(7)},
	{Title: "Go To Statement Considered Harmful", Author: "Edsger W. Dijkstra", URL: "http://www.u.arizona.edu/~rubinson/copyright_violations/Go_To_Considered_Harmful.html", Likes: intPtr(5)},
}

type seedResult struct {
	Author  *domain.Author `json:"author"`
	Created bool           `json:"created"`
	Entries []string       `json:"entries"`
}

// seed registers the root author unless it exists and inserts fields as its
// entries in one batch. notify, when set, is told once the entries are linked.
func seed(ctx context.Context, store repository.Store, users service.UserService, notify service.ChangeNotifier, root service.RegisterInput, fields []domain.EntryFields) (seedResult, error) {
	var result seedResult

	author, err := users.Register(ctx, root)
	var conflict *domain.ConflictError
	switch {
	case err == nil:
		result.Created = true
	case errors.As(err, &conflict):
		author, err = store.Authors.GetByUsername(ctx, root.Username)
		if err != nil {
			return seedResult{}, err
		}
	default:
		return seedResult{}, err
	}

	batch := make([]*domain.Entry, 0, len(fields))
	for _, f := range fields {
		likes := 0
		if f.Likes != nil {
			likes = *f.Likes
		}
		batch = append(batch, &domain.Entry{
			ID:       uuid.NewString(),
			Title:    f.Title,
			Author:   f.Author,
			URL:      f.URL,
			Likes:    likes,
			OwnerID:  author.ID,
			Comments: []string{},
		})
	}
	if err := store.Entries.InsertMany(ctx, batch); err != nil {
		return seedResult{}, err
	}

	for _, e := range batch {
		author.LinkEntry(e.ID)
		result.Entries = append(result.Entries, e.ID)
	}
	if err := store.Authors.ReplaceEntries(ctx, author.ID, author.Entries); err != nil {
		return seedResult{}, err
	}
	if notify != nil {
		notify.EntriesChanged(ctx)
	}

	author.PasswordHash = ""
	result.Author = author
	return result, nil
}

func intPtr(v int) *int { return &v }
