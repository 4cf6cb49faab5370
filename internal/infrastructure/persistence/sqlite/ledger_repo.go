package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/servicehours/hours-hub/internal/domain/ledger"
	"github.com/servicehours/hours-hub/internal/domain/shared"
)

const entryColumns = `id, student_id, staff_id, hours, description, logged_at, is_confirmed, confirmed_at`

type entryRepo struct {
	q querier
}

func scanEntry(row rowScanner) (*ledger.Entry, error) {
	var (
		e           ledger.Entry
		loggedAt    string
		confirmedAt sql.NullString
	)
	err := row.Scan(&e.ID, &e.StudentID, &e.StaffID, &e.Hours, &e.Description, &loggedAt, &e.Confirmed, &confirmedAt)
	if err != nil {
		return nil, err
	}
	if e.LoggedAt, err = parseTime(loggedAt); err != nil {
		return nil, err
	}
	if e.ConfirmedAt, err = parseNullTime(confirmedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *entryRepo) list(ctx context.Context, column, value string) ([]*ledger.Entry, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM logged_hours WHERE "+column+" = ? ORDER BY logged_at, id", value)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list entries: %w", err)
	}
	defer rows.Close()

	var result []*ledger.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan entry: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// Create implements ledger.Repository.
func (r *entryRepo) Create(ctx context.Context, e *ledger.Entry) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO logged_hours (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.StudentID, e.StaffID, e.Hours, e.Description,
		formatTime(e.LoggedAt), e.Confirmed, nullTime(e.ConfirmedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: create entry: %w", err)
	}
	return nil
}

// GetByID implements ledger.Repository.
func (r *entryRepo) GetByID(ctx context.Context, id string) (*ledger.Entry, error) {
	e, err := scanEntry(r.q.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM logged_hours WHERE id = ?", id))
	if IsNoRows(err) {
		return nil, shared.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get entry: %w", err)
	}
	return e, nil
}

// LockByID implements ledger.Repository.
func (r *entryRepo) LockByID(ctx context.Context, id string) (*ledger.Entry, error) {
	return r.GetByID(ctx, id)
}

// MarkConfirmed implements ledger.Repository.
func (r *entryRepo) MarkConfirmed(ctx context.Context, id string, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE logged_hours SET is_confirmed = 1, confirmed_at = ? WHERE id = ? AND is_confirmed = 0",
		formatTime(at), id)
	if err != nil {
		return fmt.Errorf("sqlite: confirm entry: %w", err)
	}
	return expectOneRow(res, shared.ErrEntryAlreadyConfirmed)
}

// ListByStudent implements ledger.Repository.
func (r *entryRepo) ListByStudent(ctx context.Context, studentID string) ([]*ledger.Entry, error) {
	return r.list(ctx, "student_id", studentID)
}

// ListByStaff implements ledger.Repository.
func (r *entryRepo) ListByStaff(ctx context.Context, staffID string) ([]*ledger.Entry, error) {
	return r.list(ctx, "staff_id", staffID)
}

// SumConfirmed implements ledger.Repository.
func (r *entryRepo) SumConfirmed(ctx context.Context, studentID string) (int, error) {
	var total int
	err := r.q.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(hours), 0) FROM logged_hours WHERE student_id = ? AND is_confirmed = 1",
		studentID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sqlite: sum confirmed: %w", err)
	}
	return total, nil
}

// ConfirmedTotals implements ledger.Repository.
func (r *entryRepo) ConfirmedTotals(ctx context.Context) (map[string]int, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT student_id, SUM(hours) FROM logged_hours WHERE is_confirmed = 1 GROUP BY student_id")
	if err != nil {
		return nil, fmt.Errorf("sqlite: confirmed totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var (
			id    string
			total int
		)
		if err := rows.Scan(&id, &total); err != nil {
			return nil, fmt.Errorf("sqlite: scan total: %w", err)
		}
		totals[id] = total
	}
	return totals, rows.Err()
}
