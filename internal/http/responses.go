package http

import (
	"time"

	"bloglist/internal/domain"
)

// OwnerRef is the populated form of an entry's owner.
type OwnerRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type EntryResponse struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Author   string    `json:"author"`
	URL      string    `json:"url"`
	Likes    int       `json:"likes"`
	User     *OwnerRef `json:"user"`
	Comments []string  `json:"comments"`
}

// EntryRef is the populated form of an entry listed under its owner.
type EntryRef struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
}

type AuthorResponse struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Name     string     `json:"name"`
	Blogs    []EntryRef `json:"blogs"`
}

type CommentResponse struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Blog      string `json:"blog"`
	CreatedAt string `json:"created_at,omitempty"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

func entryToResponse(entry domain.Entry, owner *OwnerRef) EntryResponse {
	resp := EntryResponse{
		ID:       entry.ID,
		Title:    entry.Title,
		Author:   entry.Author,
		URL:      entry.URL,
		Likes:    entry.Likes,
		User:     owner,
		Comments: entry.Comments,
	}
	if resp.Comments == nil {
		resp.Comments = []string{}
	}
	return resp
}

// authorToResponse lists the author's entries, populated from entries when
// given. Ids missing from entries are skipped.
func authorToResponse(author domain.Author, entries map[string]domain.Entry) AuthorResponse {
	resp := AuthorResponse{
		ID:       author.ID,
		Username: author.Username,
		Name:     author.Name,
		Blogs:    make([]EntryRef, 0, len(author.Entries)),
	}
	for _, id := range author.Entries {
		if entries == nil {
			resp.Blogs = append(resp.Blogs, EntryRef{ID: id})
			continue
		}
		e, ok := entries[id]
		if !ok {
			continue
		}
		resp.Blogs = append(resp.Blogs, EntryRef{ID: e.ID, Title: e.Title, Author: e.Author, URL: e.URL})
	}
	return resp
}

func commentToResponse(comment domain.Comment) CommentResponse {
	resp := CommentResponse{
		ID:   comment.ID,
		Text: comment.Text,
		Blog: comment.EntryID,
	}
	if !comment.CreatedAt.IsZero() {
		resp.CreatedAt = comment.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

func ownerRef(owners map[string]domain.Author, id string) *OwnerRef {
	owner, ok := owners[id]
	if !ok {
		return nil
	}
	return &OwnerRef{ID: owner.ID, Username: owner.Username, Name: owner.Name}
}
