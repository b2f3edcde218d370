package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bloglist/internal/domain"
	"bloglist/internal/repository"
)

const createEntriesTable = `
CREATE TABLE IF NOT EXISTS entries (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	url TEXT NOT NULL,
	likes INTEGER NOT NULL DEFAULT 0,
	owner_id TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY(owner_id) REFERENCES authors(id)
);
CREATE INDEX IF NOT EXISTS idx_entries_likes ON entries(likes DESC);
CREATE INDEX IF NOT EXISTS idx_entries_owner_id ON entries(owner_id);
`

const selectEntry = `
SELECT id, title, author, url, likes, owner_id, created_at, updated_at
FROM entries`

type EntryRepository struct {
	db *sql.DB
}

func NewEntryRepository(db *sql.DB) repository.EntryRepository {
	return &EntryRepository{db: db}
}

func (r *EntryRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createEntriesTable); err != nil {
		return fmt.Errorf("create entries table: %w", err)
	}
	return nil
}

func (r *EntryRepository) Create(ctx context.Context, entry *domain.Entry) error {
	return r.InsertMany(ctx, []*domain.Entry{entry})
}

func (r *EntryRepository) InsertMany(ctx context.Context, entries []*domain.Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, entry := range entries {
		entry.CreatedAt = now
		entry.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, `
INSERT INTO entries (id, title, author, url, likes, owner_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ID,
			entry.Title,
			entry.Author,
			entry.URL,
			entry.Likes,
			entry.OwnerID,
			entry.CreatedAt,
			entry.UpdatedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("entry %s: %w", entry.ID, repository.ErrDuplicate)
			}
			return fmt.Errorf("insert entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entries insert: %w", err)
	}
	return nil
}

func (r *EntryRepository) Get(ctx context.Context, id string) (*domain.Entry, error) {
	row := r.db.QueryRowContext(ctx, selectEntry+`
WHERE id=?`,
		id,
	)
	entry, err := scanEntry(row)
	if err != nil {
		return nil, err
	}

	comments, err := r.commentIDs(ctx, []string{entry.ID})
	if err != nil {
		return nil, err
	}
	entry.Comments = comments[entry.ID]
	return entry, nil
}

func (r *EntryRepository) List(ctx context.Context, sort repository.EntrySort) ([]domain.Entry, error) {
	order := `ORDER BY seq ASC`
	if sort == repository.SortByLikesDesc {
		order = `ORDER BY likes DESC, seq ASC`
	}

	rows, err := r.db.QueryContext(ctx, selectEntry+"\n"+order)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}

	var entries []domain.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	ids := make([]string, len(entries))
	for i := range entries {
		ids[i] = entries[i].ID
	}
	comments, err := r.commentIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Comments = comments[entries[i].ID]
	}
	return entries, nil
}

func (r *EntryRepository) UpdateLikes(ctx context.Context, id string, likes int) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE entries
SET likes=?, updated_at=?
WHERE id=?`,
		likes,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update entry likes: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("entry update rows affected: %w", err)
	}
	if aff == 0 {
		return fmt.Errorf("entry %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE entry_id=?`, id); err != nil {
		return fmt.Errorf("delete entry comments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM author_entries WHERE entry_id=?`, id); err != nil {
		return fmt.Errorf("delete entry links: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("entry delete rows affected: %w", err)
	}
	if aff == 0 {
		return fmt.Errorf("entry %s: %w", id, repository.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entry delete: %w", err)
	}
	return nil
}

// commentIDs returns the ordered comment ids of each requested entry. Every
// requested entry gets a non-nil slice.
func (r *EntryRepository) commentIDs(ctx context.Context, entryIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(entryIDs))
	for _, id := range entryIDs {
		out[id] = []string{}
	}
	if len(entryIDs) == 0 {
		return out, nil
	}

	placeholders := make([]string, len(entryIDs))
	args := make([]any, len(entryIDs))
	for i, id := range entryIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
SELECT entry_id, id
FROM comments
WHERE entry_id IN (%s)
ORDER BY seq ASC`, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entry comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entryID, commentID string
		if err := rows.Scan(&entryID, &commentID); err != nil {
			return nil, fmt.Errorf("scan entry comment: %w", err)
		}
		if ids, ok := out[entryID]; ok {
			out[entryID] = append(ids, commentID)
		}
	}
	return out, rows.Err()
}

func scanEntry(row rowScanner) (*domain.Entry, error) {
	var entry domain.Entry
	if err := row.Scan(
		&entry.ID,
		&entry.Title,
		&entry.Author,
		&entry.URL,
		&entry.Likes,
		&entry.OwnerID,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("entry: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	return &entry, nil
}
