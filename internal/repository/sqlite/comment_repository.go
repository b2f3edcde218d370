package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bloglist/internal/domain"
	"bloglist/internal/repository"
)

const createCommentsTable = `
CREATE TABLE IF NOT EXISTS comments (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	entry_id TEXT NOT NULL,
	text TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY(entry_id) REFERENCES entries(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_comments_entry_id ON comments(entry_id);
`

type CommentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) repository.CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCommentsTable); err != nil {
		return fmt.Errorf("create comments table: %w", err)
	}
	return nil
}

func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	comment.CreatedAt = time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO comments (id, entry_id, text, created_at)
VALUES (?, ?, ?, ?)`,
		comment.ID,
		comment.EntryID,
		comment.Text,
		comment.CreatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("comment %s: %w", comment.ID, repository.ErrDuplicate)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("entry %s: %w", comment.EntryID, repository.ErrNotFound)
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) ListByEntry(ctx context.Context, entryID string) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, entry_id, text, created_at
FROM comments
WHERE entry_id=?
ORDER BY seq ASC`, entryID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.EntryID, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
