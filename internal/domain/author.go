package domain

import "time"

// MinUsernameLength is the shortest accepted authentication handle.
const MinUsernameLength = 3

// Author represents a registered user who owns blog entries.
type Author struct {
	ID           string
	Username     string
	Name         string
	PasswordHash string
	// Entries holds the ids of owned entries in the order they were authored.
	Entries   []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LinkEntry appends an entry id to the owned collection.
func (a *Author) LinkEntry(entryID string) {
	a.Entries = append(a.Entries, entryID)
}

// UnlinkEntry removes an entry id from the owned collection and reports whether it was present.
func (a *Author) UnlinkEntry(entryID string) bool {
	for i, id := range a.Entries {
		if id == entryID {
			a.Entries = append(a.Entries[:i:i], a.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// Owns reports whether the author owns the entry.
func (a *Author) Owns(e *Entry) bool {
	return a != nil && e != nil && e.OwnerID == a.ID
}
