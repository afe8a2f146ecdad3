package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	corejourney "github.com/example/brewquest/internal/core/journey"
	"github.com/example/brewquest/internal/ports/secondary"
)

// SubscriberRepository implements secondary.SubscriberRepository with SQLite.
type SubscriberRepository struct {
	db *sql.DB
}

// NewSubscriberRepository creates a new SQLite subscriber repository.
func NewSubscriberRepository(db *sql.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

// Create persists a new subscriber.
func (r *SubscriberRepository) Create(ctx context.Context, sub *secondary.SubscriberRecord) error {
	if sub.ID == "" {
		return fmt.Errorf("subscriber ID must be pre-populated by service layer")
	}

	status := sub.Status
	if status == "" {
		status = "active"
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO subscribers (id, email, name, status, created_at) VALUES (?, ?, ?, ?, ?)",
		sub.ID, sub.Email, nullString(sub.Name), status, sub.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create subscriber %s: %w", sub.Email, err)
	}
	return nil
}

// ListActive lists active subscribers ordered by email.
func (r *SubscriberRepository) ListActive(ctx context.Context) ([]*secondary.SubscriberRecord, error) {
	return r.list(ctx, "WHERE status = 'active'")
}

// List lists all subscribers ordered by email.
func (r *SubscriberRepository) List(ctx context.Context) ([]*secondary.SubscriberRecord, error) {
	return r.list(ctx, "")
}

func (r *SubscriberRepository) list(ctx context.Context, where string) ([]*secondary.SubscriberRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, email, name, status, created_at FROM subscribers "+where+" ORDER BY email ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	var subs []*secondary.SubscriberRecord
	for rows.Next() {
		var name sql.NullString
		sub := &secondary.SubscriberRecord{}
		if err := rows.Scan(&sub.ID, &sub.Email, &name, &sub.Status, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		sub.Name = name.String
		sub.CreatedAt = sub.CreatedAt.UTC()
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Unsubscribe marks a subscriber unsubscribed by email.
func (r *SubscriberRepository) Unsubscribe(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE subscribers SET status = 'unsubscribed', updated_at = CURRENT_TIMESTAMP WHERE email = ?",
		email,
	)
	if err != nil {
		return fmt.Errorf("failed to unsubscribe %s: %w", email, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: subscriber %s", corejourney.ErrNotFound, email)
	}
	return nil
}

// Ensure SubscriberRepository implements the interface
var _ secondary.SubscriberRepository = (*SubscriberRepository)(nil)
