// Package sqlite contains SQLite implementations of repository interfaces.
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

const stateColumns = "code, name, capital, region, week_number, status, start_date, completion_date"

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// StateRepository implements secondary.TransactionalStateRepository with SQLite.
type StateRepository struct {
	db *sql.DB
}

// NewStateRepository creates a new SQLite state repository.
func NewStateRepository(db *sql.DB) *StateRepository {
	return &StateRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanState(row rowScanner) (*secondary.StateRecord, error) {
	var (
		capital        sql.NullString
		region         sql.NullString
		startDate      sql.NullTime
		completionDate sql.NullTime
	)

	record := &secondary.StateRecord{}
	if err := row.Scan(&record.Code, &record.Name, &capital, &region, &record.WeekNumber, &record.Status, &startDate, &completionDate); err != nil {
		return nil, err
	}

	record.Capital = capital.String
	record.Region = region.String
	if startDate.Valid {
		record.StartDate = startDate.Time.UTC()
	}
	if completionDate.Valid {
		record.CompletionDate = completionDate.Time.UTC()
	}
	return record, nil
}

func listStates(ctx context.Context, q queryer, where string, args ...any) ([]*secondary.StateRecord, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+stateColumns+" FROM states "+where+" ORDER BY week_number ASC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	defer rows.Close()

	var states []*secondary.StateRecord
	for rows.Next() {
		record, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan state: %w", err)
		}
		states = append(states, record)
	}
	return states, rows.Err()
}

// GetCurrent returns the unique current state.
// Zero or several current rows is reported, never resolved by picking one.
func (r *StateRepository) GetCurrent(ctx context.Context) (*secondary.StateRecord, error) {
	states, err := listStates(ctx, r.db, "WHERE status = ?", string(corejourney.StatusCurrent))
	if err != nil {
		return nil, err
	}
	if len(states) != 1 {
		return nil, fmt.Errorf("%w: found %d current states", corejourney.ErrNoCurrentState, len(states))
	}
	return states[0], nil
}

// GetNextUpcoming returns the upcoming state with the smallest week number.
func (r *StateRepository) GetNextUpcoming(ctx context.Context) (*secondary.StateRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+stateColumns+" FROM states WHERE status = ? ORDER BY week_number ASC LIMIT 1",
		string(corejourney.StatusUpcoming),
	)
	record, err := scanState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, corejourney.ErrJourneyComplete
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get next upcoming state: %w", err)
	}
	return record, nil
}

// GetByCode retrieves a state by its code.
func (r *StateRepository) GetByCode(ctx context.Context, code string) (*secondary.StateRecord, error) {
	return getStateByCode(ctx, r.db, code)
}

func getStateByCode(ctx context.Context, q queryer, code string) (*secondary.StateRecord, error) {
	row := q.QueryRowContext(ctx, "SELECT "+stateColumns+" FROM states WHERE code = ?", code)
	record, err := scanState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", corejourney.ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get state: %w", err)
	}
	return record, nil
}

// stateContext loads the guard context for a state; a missing row is not an error.
func stateContext(ctx context.Context, q queryer, code string) (corejourney.StateContext, error) {
	record, err := getStateByCode(ctx, q, code)
	if errors.Is(err, corejourney.ErrNotFound) {
		return corejourney.StateContext{Code: code}, nil
	}
	if err != nil {
		return corejourney.StateContext{}, err
	}
	return corejourney.StateContext{Code: code, Exists: true, Status: corejourney.Status(record.Status)}, nil
}

// MarkCompleted moves a current state to completed.
func (r *StateRepository) MarkCompleted(ctx context.Context, code string, completedAt time.Time) error {
	return markCompleted(ctx, r.db, code, completedAt)
}

func markCompleted(ctx context.Context, q queryer, code string, completedAt time.Time) error {
	guardCtx, err := stateContext(ctx, q, code)
	if err != nil {
		return err
	}
	if result := corejourney.CanMarkCompleted(guardCtx); !result.Allowed {
		return result.Error()
	}

	transition := corejourney.ApplyStatusTransition(corejourney.StatusCompleted, completedAt.UTC())
	// The status predicate makes the guard and the write atomic.
	res, err := q.ExecContext(ctx,
		"UPDATE states SET status = ?, completion_date = ?, updated_at = CURRENT_TIMESTAMP WHERE code = ? AND status = ?",
		string(transition.NewStatus), *transition.CompletionDate, code, string(corejourney.StatusCurrent),
	)
	if err != nil {
		return fmt.Errorf("failed to complete state %s: %w", code, err)
	}
	return requireOneRow(res, code)
}

// MarkCurrent moves an upcoming state to current.
func (r *StateRepository) MarkCurrent(ctx context.Context, code string, startedAt time.Time) error {
	return markCurrent(ctx, r.db, code, startedAt)
}

func markCurrent(ctx context.Context, q queryer, code string, startedAt time.Time) error {
	guardCtx, err := stateContext(ctx, q, code)
	if err != nil {
		return err
	}
	if result := corejourney.CanMarkCurrent(guardCtx); !result.Allowed {
		return result.Error()
	}

	transition := corejourney.ApplyStatusTransition(corejourney.StatusCurrent, startedAt.UTC())
	res, err := q.ExecContext(ctx,
		"UPDATE states SET status = ?, start_date = ?, completion_date = NULL, updated_at = CURRENT_TIMESTAMP WHERE code = ? AND status = ?",
		string(transition.NewStatus), *transition.StartDate, code, string(corejourney.StatusUpcoming),
	)
	if err != nil {
		return fmt.Errorf("failed to make state %s current: %w", code, err)
	}
	return requireOneRow(res, code)
}

// RestoreCurrent moves a completed state back to current.
func (r *StateRepository) RestoreCurrent(ctx context.Context, code string, startedAt time.Time) error {
	guardCtx, err := stateContext(ctx, r.db, code)
	if err != nil {
		return err
	}
	if result := corejourney.CanRestoreCurrent(guardCtx); !result.Allowed {
		return result.Error()
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE states SET status = ?, start_date = ?, completion_date = NULL, updated_at = CURRENT_TIMESTAMP WHERE code = ? AND status = ?",
		string(corejourney.StatusCurrent), startedAt.UTC(), code, string(corejourney.StatusCompleted),
	)
	if err != nil {
		return fmt.Errorf("failed to restore state %s: %w", code, err)
	}
	return requireOneRow(res, code)
}

// Advance applies a transition in one transaction.
func (r *StateRepository) Advance(ctx context.Context, fromCode, toCode string, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transition: %w", err)
	}
	defer tx.Rollback()

	if err := markCompleted(ctx, tx, fromCode, at); err != nil {
		return err
	}
	if toCode != "" {
		if err := markCurrent(ctx, tx, toCode, at); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}
	return nil
}

// ListByStatus lists states ordered by week number. Empty status lists all.
func (r *StateRepository) ListByStatus(ctx context.Context, status string) ([]*secondary.StateRecord, error) {
	if status == "" {
		return listStates(ctx, r.db, "")
	}
	return listStates(ctx, r.db, "WHERE status = ?", status)
}

// CountByStatus returns the number of states per status.
func (r *StateRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM states GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count states: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan state count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// Create persists a new state.
// The record must have Status pre-populated by the service layer.
func (r *StateRepository) Create(ctx context.Context, state *secondary.StateRecord) error {
	if state.Code == "" {
		return fmt.Errorf("state code must be pre-populated by service layer")
	}
	if state.Status == "" {
		return fmt.Errorf("state Status must be pre-populated by service layer")
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO states (code, name, capital, region, week_number, status) VALUES (?, ?, ?, ?, ?, ?)",
		state.Code, state.Name, nullString(state.Capital), nullString(state.Region), state.WeekNumber, state.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create state %s: %w", state.Code, err)
	}
	return nil
}

func requireOneRow(res sql.Result, code string) error {
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: state %s changed concurrently", corejourney.ErrInvalidTransition, code)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// Ensure StateRepository implements the interface
var _ secondary.TransactionalStateRepository = (*StateRepository)(nil)
