package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	corejourney "github.com/example/brewquest/internal/core/journey"
	"github.com/example/brewquest/internal/ports/secondary"
)

// PostRepository implements secondary.PostRepository with Postgres.
type PostRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new Postgres post repository.
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
		"INSERT INTO posts (id, state_code, platform, content, status, created_at, archived_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
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
		args = append(args, filters.StateCode)
		where = append(where, fmt.Sprintf("state_code = $%d", len(args)))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
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
func (r *PostRepository) ArchiveOlderThan(ctx context.Context, cutoff, archivedAt time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE posts SET status = 'archived', archived_at = $1 WHERE status <> 'archived' AND created_at < $2",
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

const reviewColumns = "id, state_code, day_number, beer_name, brewery, style, rating, status, published_at"

// ReviewRepository implements secondary.ReviewRepository with Postgres.
type ReviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new Postgres review repository.
func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func scanReview(row rowScanner) (*secondary.ReviewRecord, error) {
	var (
		style       sql.NullString
		rating      sql.NullFloat64
		publishedAt sql.NullTime
	)
	review := &secondary.ReviewRecord{}
	if err := row.Scan(&review.ID, &review.StateCode, &review.DayNumber, &review.BeerName, &review.Brewery, &style, &rating, &review.Status, &publishedAt); err != nil {
		return nil, err
	}
	review.Style = style.String
	review.Rating = rating.Float64
	if publishedAt.Valid {
		review.PublishedAt = publishedAt.Time.UTC()
	}
	return review, nil
}

// Create persists a new review.
func (r *ReviewRepository) Create(ctx context.Context, review *secondary.ReviewRecord) error {
	if review.ID == "" {
		return fmt.Errorf("review ID must be pre-populated by service layer")
	}
	var rating sql.NullFloat64
	if review.Rating > 0 {
		rating = sql.NullFloat64{Float64: review.Rating, Valid: true}
	}
	status := review.Status
	if status == "" {
		status = "draft"
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (id, state_code, day_number, beer_name, brewery, style, rating, status, published_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		review.ID, review.StateCode, review.DayNumber, review.BeerName, review.Brewery,
		nullString(review.Style), rating, status, nullTime(review.PublishedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("review for %s day %d already exists", review.StateCode, review.DayNumber)
	}
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// GetForDay retrieves the review scheduled for a state's day.
func (r *ReviewRepository) GetForDay(ctx context.Context, stateCode string, day int) (*secondary.ReviewRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE state_code = $1 AND day_number = $2",
		stateCode, day,
	)
	review, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no review for %s day %d", corejourney.ErrNotFound, stateCode, day)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

// ListByState lists reviews for a state ordered by day.
func (r *ReviewRepository) ListByState(ctx context.Context, stateCode string) ([]*secondary.ReviewRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE state_code = $1 ORDER BY day_number",
		stateCode,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*secondary.ReviewRecord
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// MarkPublished publishes a draft review.
func (r *ReviewRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	var status string
	err := r.db.QueryRowContext(ctx,
		"UPDATE reviews SET status = 'published', published_at = $1 WHERE id = $2 AND status = 'draft' RETURNING status",
		publishedAt.UTC(), id,
	).Scan(&status)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to publish review: %w", err)
	}

	err = r.db.QueryRowContext(ctx, "SELECT status FROM reviews WHERE id = $1", id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: review %s", corejourney.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to get review: %w", err)
	}
	return fmt.Errorf("%w: review %s is %s, not draft", corejourney.ErrInvalidTransition, id, status)
}

// SubscriberRepository implements secondary.SubscriberRepository with Postgres.
type SubscriberRepository struct {
	db *sql.DB
}

// NewSubscriberRepository creates a new Postgres subscriber repository.
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
		"INSERT INTO subscribers (id, email, name, status, created_at) VALUES ($1, $2, $3, $4, $5)",
		sub.ID, sub.Email, nullString(sub.Name), status, sub.CreatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("subscriber %s already exists", sub.Email)
	}
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
	rows, err := r.db.QueryContext(ctx, "SELECT id, email, name, status, created_at FROM subscribers "+where+" ORDER BY email")
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
		"UPDATE subscribers SET status = 'unsubscribed', updated_at = now() WHERE email = $1",
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

var (
	_ secondary.PostRepository       = (*PostRepository)(nil)
	_ secondary.ReviewRepository     = (*ReviewRepository)(nil)
	_ secondary.SubscriberRepository = (*SubscriberRepository)(nil)
)
