// Package stats derives totals and rankings from a sequence of entries.
// Every function is pure: output depends only on the input slice and its order.
package stats

import (
	"errors"

	"bloglist/internal/domain"
)

// ErrNoEntries is returned by FavoriteEntry when called with an empty sequence.
var ErrNoEntries = errors.New("favorite entry requires at least one entry")

// Favorite is the most liked entry reduced to its display fields.
type Favorite struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Likes  int    `json:"likes"`
}

// AuthorEntries is the result of MostProlificAuthor.
type AuthorEntries struct {
	Author  string `json:"author"`
	Entries int    `json:"blogs"`
}

// AuthorLikes is the result of MostLikedAuthor.
type AuthorLikes struct {
	Author string `json:"author"`
	Likes  int    `json:"likes"`
}

// AuthorGroup collects the entries sharing one author display string.
type AuthorGroup struct {
	Author  string
	Entries []domain.Entry
}

// TotalLikes sums likes over entries. It is 0 for an empty sequence.
func TotalLikes(entries []domain.Entry) int {
	total := 0
	for _, e := range entries {
		total += e.Likes
	}
	return total
}

// FavoriteEntry returns the entry with the most likes. Ties go to the earliest entry.
// entries must be non-empty; ErrNoEntries is returned otherwise.
func FavoriteEntry(entries []domain.Entry) (Favorite, error) {
	if len(entries) == 0 {
		return Favorite{}, ErrNoEntries
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.Likes > best.Likes {
			best = e
		}
	}
	return Favorite{Title: best.Title, Author: best.Author, Likes: best.Likes}, nil
}

// GroupByAuthor groups entries by author display string. Groups appear in the
// order their author is first seen and keep the input order of their entries.
func GroupByAuthor(entries []domain.Entry) []AuthorGroup {
	index := make(map[string]int)
	var groups []AuthorGroup
	for _, e := range entries {
		i, ok := index[e.Author]
		if !ok {
			i = len(groups)
			index[e.Author] = i
			groups = append(groups, AuthorGroup{Author: e.Author})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups
}

// MostProlificAuthor returns the author with the most entries. Ties go to the
// author seen first. ok is false for an empty sequence.
func MostProlificAuthor(entries []domain.Entry) (result AuthorEntries, ok bool) {
	best := maxGroup(GroupByAuthor(entries), func(g AuthorGroup) int {
		return len(g.Entries)
	})
	if best == nil {
		return AuthorEntries{}, false
	}
	return AuthorEntries{Author: best.Author, Entries: len(best.Entries)}, true
}

// MostLikedAuthor returns the author whose entries have the most likes in total.
// Ties go to the author seen first. ok is false for an empty sequence.
func MostLikedAuthor(entries []domain.Entry) (result AuthorLikes, ok bool) {
	best := maxGroup(GroupByAuthor(entries), func(g AuthorGroup) int {
		return TotalLikes(g.Entries)
	})
	if best == nil {
		return AuthorLikes{}, false
	}
	return AuthorLikes{Author: best.Author, Likes: TotalLikes(best.Entries)}, true
}

func maxGroup(groups []AuthorGroup, score func(AuthorGroup) int) *AuthorGroup {
	var (
		best      *AuthorGroup
		bestScore int
	)
	for i := range groups {
		s := score(groups[i])
		if best == nil || s > bestScore {
			best = &groups[i]
			bestScore = s
		}
	}
	return best
}
