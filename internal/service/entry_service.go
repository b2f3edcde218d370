package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"bloglist/internal/domain"
	"bloglist/internal/repository"
)

// ChangeNotifier is told whenever the set of entries or their likes changes.
type ChangeNotifier interface {
	EntriesChanged(ctx context.Context)
}

// EntryService creates, mutates and reads blog entries. Mutations on the same
// entry or the same owner are serialized.
type EntryService interface {
	ListEntries(ctx context.Context, sortByLikes bool) ([]domain.Entry, error)
	GetEntry(ctx context.Context, id string) (*domain.Entry, error)
	CreateEntry(ctx context.Context, actor *domain.Author, fields domain.EntryFields) (*domain.Entry, error)
	DeleteEntry(ctx context.Context, actor *domain.Author, id string) error
	UpdateLikes(ctx context.Context, id string, likes int) (*domain.Entry, error)
	AddComment(ctx context.Context, entryID, text string) (*domain.Comment, error)
	ListComments(ctx context.Context, entryID string) ([]domain.Comment, error)
}

type entryService struct {
	authors  repository.AuthorRepository
	entries  repository.EntryRepository
	comments repository.CommentRepository
	notify   ChangeNotifier
	locks    keyedMutex
}

// NewEntryService builds the entry workflow. notify may be nil.
func NewEntryService(store repository.Store, notify ChangeNotifier) EntryService {
	return &entryService{
		authors:  store.Authors,
		entries:  store.Entries,
		comments: store.Comments,
		notify:   notify,
	}
}

func validateEntryFields(f domain.EntryFields) error {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required.Error("title is required")),
		validation.Field(&f.URL, validation.Required.Error("url is required")),
		validation.Field(&f.Author, validation.Required.Error("author is required")),
		validation.Field(&f.Likes, validation.Min(0).Error("likes must not be negative")),
	)
	return fieldError(err, "title", "url", "author", "likes")
}

func (s *entryService) ListEntries(ctx context.Context, sortByLikes bool) ([]domain.Entry, error) {
	sort := repository.SortByCreated
	if sortByLikes {
		sort = repository.SortByLikesDesc
	}
	return s.entries.List(ctx, sort)
}

func (s *entryService) GetEntry(ctx context.Context, id string) (*domain.Entry, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

func (s *entryService) CreateEntry(ctx context.Context, actor *domain.Author, fields domain.EntryFields) (*domain.Entry, error) {
	if err := domain.Authorize(actor, nil, domain.ActionCreate).Err(); err != nil {
		return nil, err
	}

	fields.Title = strings.TrimSpace(fields.Title)
	fields.Author = strings.TrimSpace(fields.Author)
	fields.URL = strings.TrimSpace(fields.URL)
	if err := validateEntryFields(fields); err != nil {
		return nil, err
	}

	likes := 0
	if fields.Likes != nil {
		likes = *fields.Likes
	}

	unlock := s.locks.Lock("author:" + actor.ID)
	defer unlock()

	owner, err := s.authors.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &domain.AuthenticationError{Reason: "token missing or invalid"}
		}
		return nil, err
	}

	entry := &domain.Entry{
		ID:       uuid.NewString(),
		Title:    fields.Title,
		Author:   fields.Author,
		URL:      fields.URL,
		Likes:    likes,
		OwnerID:  owner.ID,
		Comments: []string{},
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}

	owner.LinkEntry(entry.ID)
	if err := s.authors.ReplaceEntries(ctx, owner.ID, owner.Entries); err != nil {
		// an entry missing from its owner's list must not stay stored
		if delErr := s.entries.Delete(ctx, entry.ID); delErr != nil {
			return nil, errors.Join(err, fmt.Errorf("remove unlinked entry %s: %w", entry.ID, delErr))
		}
		return nil, err
	}

	s.changed(ctx)
	return entry, nil
}

func (s *entryService) DeleteEntry(ctx context.Context, actor *domain.Author, id string) error {
	id, err := parseID(id)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock("entry:" + id)
	defer unlock()

	entry, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := domain.Authorize(actor, entry, domain.ActionDelete).Err(); err != nil {
		return err
	}

	unlockOwner := s.locks.Lock("author:" + entry.OwnerID)
	defer unlockOwner()

	if err := s.entries.Delete(ctx, id); err != nil {
		return entryNotFound(err, id)
	}

	owner, err := s.authors.GetByID(ctx, entry.OwnerID)
	if err != nil {
		return err
	}
	if owner.UnlinkEntry(id) {
		if err := s.authors.ReplaceEntries(ctx, owner.ID, owner.Entries); err != nil {
			return err
		}
	}

	s.changed(ctx)
	return nil
}

func (s *entryService) UpdateLikes(ctx context.Context, id string, likes int) (*domain.Entry, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if likes < 0 {
		return nil, &domain.ValidationError{Field: "likes", Reason: "likes must not be negative"}
	}

	unlock := s.locks.Lock("entry:" + id)
	defer unlock()

	entry, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(nil, entry, domain.ActionUpdateLikes).Err(); err != nil {
		return nil, err
	}

	if err := s.entries.UpdateLikes(ctx, id, likes); err != nil {
		return nil, entryNotFound(err, id)
	}
	entry.Likes = likes

	s.changed(ctx)
	return entry, nil
}

func (s *entryService) AddComment(ctx context.Context, entryID, text string) (*domain.Comment, error) {
	entryID, err := parseID(entryID)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &domain.ValidationError{Field: "text", Reason: "text is required"}
	}

	unlock := s.locks.Lock("entry:" + entryID)
	defer unlock()

	entry, err := s.get(ctx, entryID)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ID:      uuid.NewString(),
		Text:    text,
		EntryID: entry.ID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, entryNotFound(err, entryID)
	}
	entry.AttachComment(comment.ID)
	return comment, nil
}

func (s *entryService) ListComments(ctx context.Context, entryID string) ([]domain.Comment, error) {
	entryID, err := parseID(entryID)
	if err != nil {
		return nil, err
	}
	if _, err := s.get(ctx, entryID); err != nil {
		return nil, err
	}
	return s.comments.ListByEntry(ctx, entryID)
}

func (s *entryService) get(ctx context.Context, id string) (*domain.Entry, error) {
	entry, err := s.entries.Get(ctx, id)
	if err != nil {
		return nil, entryNotFound(err, id)
	}
	return entry, nil
}

func (s *entryService) changed(ctx context.Context) {
	if s.notify != nil {
		s.notify.EntriesChanged(ctx)
	}
}

func entryNotFound(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.NotFoundError{Kind: "entry", ID: id}
	}
	return err
}
