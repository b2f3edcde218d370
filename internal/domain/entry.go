package domain

import "time"

// Entry represents a blog post. Title, Author, URL and OwnerID never change after creation.
type Entry struct {
	ID      string
	Title   string
	Author  string
	URL     string
	Likes   int
	OwnerID string
	// Comments holds the ids of attached comments in the order they were added.
	Comments  []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AttachComment appends a comment id to the entry.
func (e *Entry) AttachComment(commentID string) {
	e.Comments = append(e.Comments, commentID)
}

// EntryFields carries the caller supplied values for a new entry.
// A nil Likes means the field was omitted.
type EntryFields struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
	Likes  *int   `json:"likes"`
}

// Comment is an immutable note attached to a single entry.
type Comment struct {
	ID        string
	Text      string
	EntryID   string
	CreatedAt time.Time
}
