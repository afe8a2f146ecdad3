package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/brewquest/internal/ports/secondary"
)

// PostRepository implements secondary.PostRepository with SQLite.
type PostRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new SQLite post repository.
func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create persists a new post.
func (r *PostRepository) Create(ctx context.Context, post *secondary.PostRecord) error {
	if post.ID == "" {
		return fmt.Errorf("post ID must be pre-populated by service layer")
	}

	status := post.Status
	if status == "" {
		status = "scheduled"
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO posts (id, state_code, platform, content, status, created_at, archived_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		post.ID, nullString(post.StateCode), post.Platform, post.Content, status, post.CreatedAt.UTC(), nullTime(post.ArchivedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// List retrieves posts matching the given filters, newest first.
func (r *PostRepository) List(ctx context.Context, filters secondary.PostFilters) ([]*secondary.PostRecord, error) {
	query := "SELECT id, state_code, platform, content, status, created_at, archived_at FROM posts"
	var (
		where []string
		args  []any
	)

	if filters.StateCode != "" {
		where = append(where, "state_code = ?")
		args = append(args, filters.StateCode)
	}
	if filters.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filters.Status)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*secondary.PostRecord
	for rows.Next() {
		var (
			stateCode  sql.NullString
			archivedAt sql.NullTime
		)
		post := &secondary.PostRecord{}
		if err := rows.Scan(&post.ID, &stateCode, &post.Platform, &post.Content, &post.Status, &post.CreatedAt, &archivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		post.StateCode = stateCode.String
		post.CreatedAt = post.CreatedAt.UTC()
		if archivedAt.Valid {
			post.ArchivedAt = archivedAt.Time.UTC()
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// ArchiveOlderThan archives every non-archived post created before cutoff.
// Running it twice with the same cutoff archives nothing the second time.
func (r *PostRepository) ArchiveOlderThan(ctx context.Context, cutoff, archivedAt time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE posts SET status = 'archived', archived_at = ? WHERE status != 'archived' AND created_at < ?",
		archivedAt.UTC(), cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to archive posts: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return int(n), nil
}

// Ensure PostRepository implements the interface
var _ secondary.PostRepository = (*PostRepository)(nil)
