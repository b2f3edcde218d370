package repository

import (
	"context"
	"errors"

	"bloglist/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate")
)

// EntrySort selects the ordering of EntryRepository.List.
type EntrySort int

const (
	// SortByCreated returns entries in insertion order.
	SortByCreated EntrySort = iota
	// SortByLikesDesc returns the most liked entries first, ties in insertion order.
	SortByLikesDesc
)

// AuthorRepository defines persistence operations for Author entities.
type AuthorRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, author *domain.Author) error
	GetByID(ctx context.Context, id string) (*domain.Author, error)
	GetByUsername(ctx context.Context, username string) (*domain.Author, error)
	List(ctx context.Context) ([]domain.Author, error)
	// ReplaceEntries stores the ordered owned-entry list of an author.
	ReplaceEntries(ctx context.Context, authorID string, entryIDs []string) error
}

// EntryRepository exposes persistence operations for Entry aggregates.
type EntryRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, entry *domain.Entry) error
	InsertMany(ctx context.Context, entries []*domain.Entry) error
	Get(ctx context.Context, id string) (*domain.Entry, error)
	List(ctx context.Context, sort EntrySort) ([]domain.Entry, error)
	UpdateLikes(ctx context.Context, id string, likes int) error
	Delete(ctx context.Context, id string) error
}

// CommentRepository stores comments attached to entries.
type CommentRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, comment *domain.Comment) error
	ListByEntry(ctx context.Context, entryID string) ([]domain.Comment, error)
}

// Store bundles the repositories backed by one database.
type Store struct {
	Authors  AuthorRepository
	Entries  EntryRepository
	Comments CommentRepository
}

// Init creates the schema for every repository. Authors come first since entries reference them.
func (s Store) Init(ctx context.Context) error {
	if err := s.Authors.Init(ctx); err != nil {
		return err
	}
	if err := s.Entries.Init(ctx); err != nil {
		return err
	}
	return s.Comments.Init(ctx)
}
