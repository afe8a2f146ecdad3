package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	corejourney "github.com/example/brewquest/internal/core/journey"
	"github.com/example/brewquest/internal/ports/secondary"
)

const reviewColumns = "id, state_code, day_number, beer_name, brewery, style, rating, status, published_at"

// ReviewRepository implements secondary.ReviewRepository with SQLite.
type ReviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new SQLite review repository.
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
		"INSERT INTO reviews (id, state_code, day_number, beer_name, brewery, style, rating, status, published_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		review.ID, review.StateCode, review.DayNumber, review.BeerName, review.Brewery,
		nullString(review.Style), rating, status, nullTime(review.PublishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// GetForDay retrieves the review scheduled for a state's day.
func (r *ReviewRepository) GetForDay(ctx context.Context, stateCode string, day int) (*secondary.ReviewRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE state_code = ? AND day_number = ?",
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
		"SELECT "+reviewColumns+" FROM reviews WHERE state_code = ? ORDER BY day_number ASC",
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
	res, err := r.db.ExecContext(ctx,
		"UPDATE reviews SET status = 'published', published_at = ? WHERE id = ? AND status = 'draft'",
		publishedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to publish review: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		var status string
		err := r.db.QueryRowContext(ctx, "SELECT status FROM reviews WHERE id = ?", id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: review %s", corejourney.ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("failed to get review: %w", err)
		}
		return fmt.Errorf("%w: review %s is %s, not draft", corejourney.ErrInvalidTransition, id, status)
	}
	return nil
}

// Ensure ReviewRepository implements the interface
var _ secondary.ReviewRepository = (*ReviewRepository)(nil)
