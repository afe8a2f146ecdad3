package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/brewquest/internal/ports/secondary"
)

// defaultRunLimit caps List when no limit is given.
const defaultRunLimit = 20

// TransitionRunRepository implements secondary.TransitionRunRepository with SQLite.
type TransitionRunRepository struct {
	db *sql.DB
}

// NewTransitionRunRepository creates a new SQLite transition run repository.
func NewTransitionRunRepository(db *sql.DB) *TransitionRunRepository {
	return &TransitionRunRepository{db: db}
}

// Create records one weekly invocation.
func (r *TransitionRunRepository) Create(ctx context.Context, run *secondary.TransitionRunRecord) error {
	if run.ID == "" {
		return fmt.Errorf("run ID must be pre-populated by service layer")
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO transition_runs (id, outcome, from_code, to_code, triggered_by, message, invoked_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		run.ID, run.Outcome, nullString(run.FromCode), nullString(run.ToCode), run.Trigger, nullString(run.Message), run.InvokedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record transition run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (r *TransitionRunRepository) List(ctx context.Context, limit int) ([]*secondary.TransitionRunRecord, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, outcome, from_code, to_code, triggered_by, message, invoked_at FROM transition_runs ORDER BY invoked_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transition runs: %w", err)
	}
	defer rows.Close()

	var runs []*secondary.TransitionRunRecord
	for rows.Next() {
		var fromCode, toCode, message sql.NullString
		run := &secondary.TransitionRunRecord{}
		if err := rows.Scan(&run.ID, &run.Outcome, &fromCode, &toCode, &run.Trigger, &message, &run.InvokedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transition run: %w", err)
		}
		run.FromCode = fromCode.String
		run.ToCode = toCode.String
		run.Message = message.String
		run.InvokedAt = run.InvokedAt.UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Ensure TransitionRunRepository implements the interface
var _ secondary.TransitionRunRepository = (*TransitionRunRepository)(nil)
