package postgres

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

// StateRepository implements secondary.TransactionalStateRepository with Postgres.
type StateRepository struct {
	db *sql.DB
}

// NewStateRepository creates a new Postgres state repository.
func NewStateRepository(db *sql.DB) *StateRepository {
	return &StateRepository{db: db}
}

func scanState(row rowScanner) (*secondary.StateRecord, error) {
	var (
		capital, region           sql.NullString
		startDate, completionDate sql.NullTime
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
	rows, err := q.QueryContext(ctx, "SELECT "+stateColumns+" FROM states "+where+" ORDER BY week_number", args...)
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
func (r *StateRepository) GetCurrent(ctx context.Context) (*secondary.StateRecord, error) {
	states, err := listStates(ctx, r.db, "WHERE status = $1", string(corejourney.StatusCurrent))
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
		"SELECT "+stateColumns+" FROM states WHERE status = $1 ORDER BY week_number LIMIT 1",
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
	return getStateByCode(ctx, r.db, code, false)
}

func getStateByCode(ctx context.Context, q queryer, code string, forUpdate bool) (*secondary.StateRecord, error) {
	query := "SELECT " + stateColumns + " FROM states WHERE code = $1"
	if forUpdate {
		query += " FOR UPDATE"
	}
	record, err := scanState(q.QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", corejourney.ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get state: %w", err)
	}
	return record, nil
}

func stateContext(ctx context.Context, q queryer, code string, forUpdate bool) (corejourney.StateContext, error) {
	record, err := getStateByCode(ctx, q, code, forUpdate)
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
	return markCompleted(ctx, r.db, code, completedAt, false)
}

func markCompleted(ctx context.Context, q queryer, code string, completedAt time.Time, lock bool) error {
	guardCtx, err := stateContext(ctx, q, code, lock)
	if err != nil {
		return err
	}
	if result := corejourney.CanMarkCompleted(guardCtx); !result.Allowed {
		return result.Error()
	}

	transition := corejourney.ApplyStatusTransition(corejourney.StatusCompleted, completedAt.UTC())
	res, err := q.ExecContext(ctx,
		"UPDATE states SET status = $1, completion_date = $2, updated_at = now() WHERE code = $3 AND status = $4",
		string(transition.NewStatus), *transition.CompletionDate, code, string(corejourney.StatusCurrent),
	)
	if err != nil {
		return fmt.Errorf("failed to complete state %s: %w", code, err)
	}
	return requireOneRow(res, code)
}

// MarkCurrent moves an upcoming state to current.
func (r *StateRepository) MarkCurrent(ctx context.Context, code string, startedAt time.Time) error {
	return markCurrent(ctx, r.db, code, startedAt, false)
}

func markCurrent(ctx context.Context, q queryer, code string, startedAt time.Time, lock bool) error {
	guardCtx, err := stateContext(ctx, q, code, lock)
	if err != nil {
		return err
	}
	if result := corejourney.CanMarkCurrent(guardCtx); !result.Allowed {
		return result.Error()
	}

	transition := corejourney.ApplyStatusTransition(corejourney.StatusCurrent, startedAt.UTC())
	res, err := q.ExecContext(ctx,
		"UPDATE states SET status = $1, start_date = $2, completion_date = NULL, updated_at = now() WHERE code = $3 AND status = $4",
		string(transition.NewStatus), *transition.StartDate, code, string(corejourney.StatusUpcoming),
	)
	if err != nil {
		return fmt.Errorf("failed to make state %s current: %w", code, err)
	}
	return requireOneRow(res, code)
}

// RestoreCurrent moves a completed state back to current.
func (r *StateRepository) RestoreCurrent(ctx context.Context, code string, startedAt time.Time) error {
	guardCtx, err := stateContext(ctx, r.db, code, false)
	if err != nil {
		return err
	}
	if result := corejourney.CanRestoreCurrent(guardCtx); !result.Allowed {
		return result.Error()
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE states SET status = $1, start_date = $2, completion_date = NULL, updated_at = now() WHERE code = $3 AND status = $4",
		string(corejourney.StatusCurrent), startedAt.UTC(), code, string(corejourney.StatusCompleted),
	)
	if err != nil {
		return fmt.Errorf("failed to restore state %s: %w", code, err)
	}
	return requireOneRow(res, code)
}

// Advance applies a transition in one transaction. Both rows are locked
// with SELECT ... FOR UPDATE before either is written.
func (r *StateRepository) Advance(ctx context.Context, fromCode, toCode string, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transition: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := markCompleted(ctx, tx, fromCode, at, true); err != nil {
		return err
	}
	if toCode != "" {
		if err := markCurrent(ctx, tx, toCode, at, true); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}
	committed = true
	return nil
}

// ListByStatus lists states ordered by week number. Empty status lists all.
func (r *StateRepository) ListByStatus(ctx context.Context, status string) ([]*secondary.StateRecord, error) {
	if status == "" {
		return listStates(ctx, r.db, "")
	}
	return listStates(ctx, r.db, "WHERE status = $1", status)
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
func (r *StateRepository) Create(ctx context.Context, state *secondary.StateRecord) error {
	if state.Code == "" {
		return fmt.Errorf("state code must be pre-populated by service layer")
	}
	if state.Status == "" {
		return fmt.Errorf("state Status must be pre-populated by service layer")
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO states (code, name, capital, region, week_number, status) VALUES ($1, $2, $3, $4, $5, $6)",
		state.Code, state.Name, nullString(state.Capital), nullString(state.Region), state.WeekNumber, state.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create state %s: %w", state.Code, err)
	}
	return nil
}

func requireOneRow(res sql.Result, code string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: state %s changed concurrently", corejourney.ErrInvalidTransition, code)
	}
	return nil
}

var _ secondary.TransactionalStateRepository = (*StateRepository)(nil)
