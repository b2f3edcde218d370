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

const createAuthorsTable = `
CREATE TABLE IF NOT EXISTS authors (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	username TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS author_entries (
	author_id TEXT NOT NULL REFERENCES authors(id) ON DELETE CASCADE,
	entry_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY (author_id, entry_id)
);
CREATE INDEX IF NOT EXISTS idx_author_entries_entry_id ON author_entries(entry_id);
`

type AuthorRepository struct {
	pool *pgxpool.Pool
}

func NewAuthorRepository(pool *pgxpool.Pool) repository.AuthorRepository {
	return &AuthorRepository{pool: pool}
}

func (r *AuthorRepository) Init(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createAuthorsTable); err != nil {
		return fmt.Errorf("create authors table: %w", err)
	}
	return nil
}

func (r *AuthorRepository) Create(ctx context.Context, author *domain.Author) error {
	now := time.Now().UTC()
	author.CreatedAt = now
	author.UpdatedAt = now

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
INSERT INTO authors (id, username, name, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
			author.ID,
			author.Username,
			author.Name,
			author.PasswordHash,
			author.CreatedAt,
			author.UpdatedAt,
		); err != nil {
			if pgCode(err) == codeUniqueViolation {
				return fmt.Errorf("author %s: %w", author.Username, repository.ErrDuplicate)
			}
			return fmt.Errorf("insert author: %w", err)
		}
		return replaceEntries(ctx, tx, author.ID, author.Entries)
	})
}

func (r *AuthorRepository) GetByID(ctx context.Context, id string) (*domain.Author, error) {
	return r.load(ctx, `WHERE id = $1`, id)
}

func (r *AuthorRepository) GetByUsername(ctx context.Context, username string) (*domain.Author, error) {
	return r.load(ctx, `WHERE username = $1`, username)
}

func (r *AuthorRepository) List(ctx context.Context) ([]domain.Author, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, username, name, password_hash, created_at, updated_at
FROM authors
ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query authors: %w", err)
	}
	authors, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Author, error) {
		author, err := scanAuthor(row)
		if err != nil {
			return domain.Author{}, err
		}
		return *author, nil
	})
	if err != nil {
		return nil, err
	}

	for i := range authors {
		ids, err := r.entryIDs(ctx, authors[i].ID)
		if err != nil {
			return nil, err
		}
		authors[i].Entries = ids
	}
	return authors, nil
}

func (r *AuthorRepository) ReplaceEntries(ctx context.Context, authorID string, entryIDs []string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := replaceEntries(ctx, tx, authorID, entryIDs); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE authors SET updated_at=$1 WHERE id=$2`, time.Now().UTC(), authorID); err != nil {
			return fmt.Errorf("touch author: %w", err)
		}
		return nil
	})
}

func replaceEntries(ctx context.Context, tx pgx.Tx, authorID string, entryIDs []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM author_entries WHERE author_id=$1`, authorID); err != nil {
		return fmt.Errorf("delete author entries: %w", err)
	}
	if len(entryIDs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, entryID := range entryIDs {
		batch.Queue(`
INSERT INTO author_entries (author_id, entry_id, position)
VALUES ($1, $2, $3)`, authorID, entryID, i)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert author entries: %w", err)
	}
	return nil
}

func (r *AuthorRepository) load(ctx context.Context, where string, arg any) (*domain.Author, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, username, name, password_hash, created_at, updated_at
FROM authors
`+where, arg)
	author, err := scanAuthor(row)
	if err != nil {
		return nil, err
	}
	ids, err := r.entryIDs(ctx, author.ID)
	if err != nil {
		return nil, err
	}
	author.Entries = ids
	return author, nil
}

func (r *AuthorRepository) entryIDs(ctx context.Context, authorID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
SELECT entry_id
FROM author_entries
WHERE author_id=$1
ORDER BY position ASC`, authorID)
	if err != nil {
		return nil, fmt.Errorf("query author entries: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan author entries: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func scanAuthor(row pgx.Row) (*domain.Author, error) {
	var author domain.Author
	if err := row.Scan(
		&author.ID,
		&author.Username,
		&author.Name,
		&author.PasswordHash,
		&author.CreatedAt,
		&author.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("author: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan author: %w", err)
	}
	return &author, nil
}
