package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bloglist/internal/domain"
	"bloglist/internal/repository"
)

const createEntriesTable = `
CREATE TABLE IF NOT EXISTS entries (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	url TEXT NOT NULL,
	likes INTEGER NOT NULL DEFAULT 0 CHECK (likes >= 0),
	owner_id TEXT NOT NULL REFERENCES authors(id),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_likes ON entries(likes DESC);
CREATE INDEX IF NOT EXISTS idx_entries_owner_id ON entries(owner_id);
`

const selectEntry = `
SELECT id, title, author, url, likes, owner_id, created_at, updated_at
FROM entries`

type EntryRepository struct {
	pool *pgxpool.Pool
}

func NewEntryRepository(pool *pgxpool.Pool) repository.EntryRepository {
	return &EntryRepository{pool: pool}
}

func (r *EntryRepository) Init(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createEntriesTable); err != nil {
		return fmt.Errorf("create entries table: %w", err)
	}
	return nil
}

func (r *EntryRepository) Create(ctx context.Context, entry *domain.Entry) error {
	return r.InsertMany(ctx, []*domain.Entry{entry})
}

func (r *EntryRepository) InsertMany(ctx context.Context, entries []*domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, entry := range entries {
		entry.CreatedAt = now
		entry.UpdatedAt = now
		batch.Queue(`
INSERT INTO entries (id, title, author, url, likes, owner_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			entry.ID,
			entry.Title,
			entry.Author,
			entry.URL,
			entry.Likes,
			entry.OwnerID,
			entry.CreatedAt,
			entry.UpdatedAt,
		)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for _, entry := range entries {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				if pgCode(err) == codeUniqueViolation {
					return fmt.Errorf("entry %s: %w", entry.ID, repository.ErrDuplicate)
				}
				return fmt.Errorf("insert entry: %w", err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("insert entries: %w", err)
		}
		return nil
	})
}

func (r *EntryRepository) Get(ctx context.Context, id string) (*domain.Entry, error) {
	entry, err := scanEntry(r.pool.QueryRow(ctx, selectEntry+`
WHERE id=$1`, id))
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

	rows, err := r.pool.Query(ctx, selectEntry+"\n"+order)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Entry, error) {
		entry, err := scanEntry(row)
		if err != nil {
			return domain.Entry{}, err
		}
		return *entry, nil
	})
	if err != nil {
		return nil, err
	}

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
	tag, err := r.pool.Exec(ctx, `
UPDATE entries
SET likes=$1, updated_at=$2
WHERE id=$3`,
		likes,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update entry likes: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entry %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE entry_id=$1`, id); err != nil {
			return fmt.Errorf("delete entry comments: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM author_entries WHERE entry_id=$1`, id); err != nil {
			return fmt.Errorf("delete entry links: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM entries WHERE id=$1`, id)
		if err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("entry %s: %w", id, repository.ErrNotFound)
		}
		return nil
	})
}

func (r *EntryRepository) commentIDs(ctx context.Context, entryIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(entryIDs))
	for _, id := range entryIDs {
		out[id] = []string{}
	}
	if len(entryIDs) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT entry_id, id
FROM comments
WHERE entry_id = ANY($1)
ORDER BY seq ASC`, entryIDs)
	if err != nil {
		return nil, fmt.Errorf("query entry comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entryID, commentID string
		if err := rows.Scan(&entryID, &commentID); err != nil {
			return nil, fmt.Errorf("scan entry comment: %w", err)
		}
		out[entryID] = append(out[entryID], commentID)
	}
	return out, rows.Err()
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
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
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("entry: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	return &entry, nil
}
