package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bloglist/internal/domain"
	"bloglist/internal/repository"
)

const createCommentsTable = `
CREATE TABLE IF NOT EXISTS comments (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	entry_id TEXT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
	text TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_entry_id ON comments(entry_id);
`

type CommentRepository struct {
	pool *pgxpool.Pool
}

func NewCommentRepository(pool *pgxpool.Pool) repository.CommentRepository {
	return &CommentRepository{pool: pool}
}

func (r *CommentRepository) Init(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createCommentsTable); err != nil {
		return fmt.Errorf("create comments table: %w", err)
	}
	return nil
}

func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	comment.CreatedAt = time.Now().UTC()
	if _, err := r.pool.Exec(ctx, `
INSERT INTO comments (id, entry_id, text, created_at)
VALUES ($1, $2, $3, $4)`,
		comment.ID,
		comment.EntryID,
		comment.Text,
		comment.CreatedAt,
	); err != nil {
		switch pgCode(err) {
		case codeUniqueViolation:
			return fmt.Errorf("comment %s: %w", comment.ID, repository.ErrDuplicate)
		case codeForeignKeyViolation:
			return fmt.Errorf("entry %s: %w", comment.EntryID, repository.ErrNotFound)
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) ListByEntry(ctx context.Context, entryID string) ([]domain.Comment, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, entry_id, text, created_at
FROM comments
WHERE entry_id=$1
ORDER BY seq ASC`, entryID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	comments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Comment, error) {
		var c domain.Comment
		err := row.Scan(&c.ID, &c.EntryID, &c.Text, &c.CreatedAt)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan comments: %w", err)
	}
	if comments == nil {
		comments = []domain.Comment{}
	}
	return comments, nil
}
