package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bloglist/internal/domain"
	"bloglist/internal/repository"
)

const createAuthorsTable = `
CREATE TABLE IF NOT EXISTS authors (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	username TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS author_entries (
	author_id TEXT NOT NULL,
	entry_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY (author_id, entry_id),
	FOREIGN KEY(author_id) REFERENCES authors(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_author_entries_entry_id ON author_entries(entry_id);
`

type AuthorRepository struct {
	db *sql.DB
}

func NewAuthorRepository(db *sql.DB) repository.AuthorRepository {
	return &AuthorRepository{db: db}
}

func (r *AuthorRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createAuthorsTable); err != nil {
		return fmt.Errorf("create authors table: %w", err)
	}
	return nil
}

func (r *AuthorRepository) Create(ctx context.Context, author *domain.Author) error {
	now := time.Now().UTC()
	author.CreatedAt = now
	author.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO authors (id, username, name, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		author.ID,
		author.Username,
		author.Name,
		author.PasswordHash,
		author.CreatedAt,
		author.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("author %s: %w", author.Username, repository.ErrDuplicate)
		}
		return fmt.Errorf("insert author: %w", err)
	}

	if err := replaceEntries(ctx, tx, author.ID, author.Entries); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit author insert: %w", err)
	}
	return nil
}

func (r *AuthorRepository) GetByID(ctx context.Context, id string) (*domain.Author, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, username, name, password_hash, created_at, updated_at
FROM authors
WHERE id = ?`,
		id,
	)
	return r.load(ctx, row)
}

func (r *AuthorRepository) GetByUsername(ctx context.Context, username string) (*domain.Author, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, username, name, password_hash, created_at, updated_at
FROM authors
WHERE username = ?`,
		username,
	)
	return r.load(ctx, row)
}

func (r *AuthorRepository) List(ctx context.Context) ([]domain.Author, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, username, name, password_hash, created_at, updated_at
FROM authors
ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query authors: %w", err)
	}

	var authors []domain.Author
	for rows.Next() {
		author, err := scanAuthor(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		authors = append(authors, *author)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

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
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // safe no-op on commit

	if err := replaceEntries(ctx, tx, authorID, entryIDs); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE authors SET updated_at=? WHERE id=?`, time.Now().UTC(), authorID); err != nil {
		return fmt.Errorf("touch author: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func replaceEntries(ctx context.Context, tx *sql.Tx, authorID string, entryIDs []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM author_entries WHERE author_id=?`, authorID); err != nil {
		return fmt.Errorf("delete author entries: %w", err)
	}
	for i, entryID := range entryIDs {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO author_entries (author_id, entry_id, position)
VALUES (?, ?, ?)`,
			authorID,
			entryID,
			i,
		); err != nil {
			return fmt.Errorf("insert author entry: %w", err)
		}
	}
	return nil
}

func (r *AuthorRepository) load(ctx context.Context, row *sql.Row) (*domain.Author, error) {
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
	rows, err := r.db.QueryContext(ctx, `
SELECT entry_id
FROM author_entries
WHERE author_id=?
ORDER BY position ASC`, authorID)
	if err != nil {
		return nil, fmt.Errorf("query author entries: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan author entry: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanAuthor(row rowScanner) (*domain.Author, error) {
	var author domain.Author
	if err := row.Scan(
		&author.ID,
		&author.Username,
		&author.Name,
		&author.PasswordHash,
		&author.CreatedAt,
		&author.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("author: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan author: %w", err)
	}
	return &author, nil
}
