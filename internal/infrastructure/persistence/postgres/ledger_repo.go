package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/servicehours/hours-hub/internal/domain/accolade"
	"github.com/servicehours/hours-hub/internal/domain/confirmation"
	"github.com/servicehours/hours-hub/internal/domain/ledger"
	"github.com/servicehours/hours-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOGGED HOURS
// ══════════════════════════════════════════════════════════════════════════════

const entrySelect = `
	SELECT id, student_id, staff_id, hours, description, logged_at, is_confirmed, confirmed_at
	FROM logged_hours`

type entryRepo struct {
	q Querier
}

func scanEntry(row pgx.Row) (*ledger.Entry, error) {
	var e ledger.Entry
	err := row.Scan(&e.ID, &e.StudentID, &e.StaffID, &e.Hours, &e.Description, &e.LoggedAt, &e.Confirmed, &e.ConfirmedAt)
	if err != nil {
		return nil, err
	}
	e.LoggedAt = e.LoggedAt.UTC()
	if e.ConfirmedAt != nil {
		t := e.ConfirmedAt.UTC()
		e.ConfirmedAt = &t
	}
	return &e, nil
}

func (r *entryRepo) getOne(ctx context.Context, query, id string) (*ledger.Entry, error) {
	if !validID(id) {
		return nil, shared.ErrEntryNotFound
	}
	e, err := scanEntry(r.q.QueryRow(ctx, query, id))
	if IsNoRows(err) {
		return nil, shared.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get entry: %w", err)
	}
	return e, nil
}

func (r *entryRepo) list(ctx context.Context, query, id string) ([]*ledger.Entry, error) {
	if !validID(id) {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("postgres: list entries: %w", err)
	}
	defer rows.Close()

	var result []*ledger.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan entry: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// Create implements ledger.Repository.
func (r *entryRepo) Create(ctx context.Context, e *ledger.Entry) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO logged_hours (id, student_id, staff_id, hours, description, logged_at, is_confirmed, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.StudentID, e.StaffID, e.Hours, e.Description, e.LoggedAt, e.Confirmed, e.ConfirmedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create entry: %w", err)
	}
	return nil
}

// GetByID implements ledger.Repository.
func (r *entryRepo) GetByID(ctx context.Context, id string) (*ledger.Entry, error) {
	return r.getOne(ctx, entrySelect+" WHERE id = $1", id)
}

// LockByID implements ledger.Repository.
func (r *entryRepo) LockByID(ctx context.Context, id string) (*ledger.Entry, error) {
	return r.getOne(ctx, entrySelect+" WHERE id = $1 FOR UPDATE", id)
}

// MarkConfirmed implements ledger.Repository.
func (r *entryRepo) MarkConfirmed(ctx context.Context, id string, at time.Time) error {
	if !validID(id) {
		return shared.ErrEntryNotFound
	}
	tag, err := r.q.Exec(ctx,
		"UPDATE logged_hours SET is_confirmed = TRUE, confirmed_at = $1 WHERE id = $2 AND NOT is_confirmed",
		at, id)
	if err != nil {
		return fmt.Errorf("postgres: confirm entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrEntryAlreadyConfirmed
	}
	return nil
}

// ListByStudent implements ledger.Repository.
func (r *entryRepo) ListByStudent(ctx context.Context, studentID string) ([]*ledger.Entry, error) {
	return r.list(ctx, entrySelect+" WHERE student_id = $1 ORDER BY logged_at, id", studentID)
}

// ListByStaff implements ledger.Repository.
func (r *entryRepo) ListByStaff(ctx context.Context, staffID string) ([]*ledger.Entry, error) {
	return r.list(ctx, entrySelect+" WHERE staff_id = $1 ORDER BY logged_at, id", staffID)
}

// SumConfirmed implements ledger.Repository.
func (r *entryRepo) SumConfirmed(ctx context.Context, studentID string) (int, error) {
	if !validID(studentID) {
		return 0, nil
	}
	var total int
	err := r.q.QueryRow(ctx,
		"SELECT COALESCE(SUM(hours), 0)::int FROM logged_hours WHERE student_id = $1 AND is_confirmed",
		studentID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("postgres: sum confirmed: %w", err)
	}
	return total, nil
}

// ConfirmedTotals implements ledger.Repository.
func (r *entryRepo) ConfirmedTotals(ctx context.Context) (map[string]int, error) {
	rows, err := r.q.Query(ctx,
		"SELECT student_id, SUM(hours)::int FROM logged_hours WHERE is_confirmed GROUP BY student_id")
	if err != nil {
		return nil, fmt.Errorf("postgres: confirmed totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var (
			id    string
			total int
		)
		if err := rows.Scan(&id, &total); err != nil {
			return nil, fmt.Errorf("postgres: scan total: %w", err)
		}
		totals[id] = total
	}
	return totals, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// ACCOLADES
// ══════════════════════════════════════════════════════════════════════════════

type accoladeRepo struct {
	q Querier
}

// Create implements accolade.Repository.
func (r *accoladeRepo) Create(ctx context.Context, a *accolade.Accolade) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO accolades (id, student_id, milestone, name, awarded_at)
		VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.StudentID, a.Milestone, a.Name, a.AwardedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create accolade: %w", err)
	}
	return nil
}

// Exists implements accolade.Repository.
func (r *accoladeRepo) Exists(ctx context.Context, studentID string, milestone int) (bool, error) {
	if !validID(studentID) {
		return false, nil
	}
	var exists bool
	err := r.q.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM accolades WHERE student_id = $1 AND milestone = $2)",
		studentID, milestone).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: accolade exists: %w", err)
	}
	return exists, nil
}

// ListByStudent implements accolade.Repository.
func (r *accoladeRepo) ListByStudent(ctx context.Context, studentID string) ([]*accolade.Accolade, error) {
	if !validID(studentID) {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, student_id, milestone, name, awarded_at
		FROM accolades WHERE student_id = $1 ORDER BY milestone`, studentID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list accolades: %w", err)
	}
	defer rows.Close()

	var result []*accolade.Accolade
	for rows.Next() {
		var a accolade.Accolade
		if err := rows.Scan(&a.ID, &a.StudentID, &a.Milestone, &a.Name, &a.AwardedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan accolade: %w", err)
		}
		a.AwardedAt = a.AwardedAt.UTC()
		result = append(result, &a)
	}
	return result, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// CONFIRMATION REQUESTS
// ══════════════════════════════════════════════════════════════════════════════

const requestSelect = `
	SELECT id, logged_hours_id, student_id, requested_at, status
	FROM confirmation_requests`

type requestRepo struct {
	q Querier
}

func scanRequest(row pgx.Row) (*confirmation.Request, error) {
	var (
		req    confirmation.Request
		status string
	)
	if err := row.Scan(&req.ID, &req.EntryID, &req.StudentID, &req.RequestedAt, &status); err != nil {
		return nil, err
	}
	req.RequestedAt = req.RequestedAt.UTC()
	req.Status = confirmation.Status(status)
	return &req, nil
}

func (r *requestRepo) list(ctx context.Context, query, id string) ([]*confirmation.Request, error) {
	if !validID(id) {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("postgres: list requests: %w", err)
	}
	defer rows.Close()

	var result []*confirmation.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan request: %w", err)
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

// Create implements confirmation.Repository.
func (r *requestRepo) Create(ctx context.Context, req *confirmation.Request) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO confirmation_requests (id, logged_hours_id, student_id, requested_at, status)
		VALUES ($1, $2, $3, $4, $5)`,
		req.ID, req.EntryID, req.StudentID, req.RequestedAt, string(req.Status),
	)
	if err != nil {
		return fmt.Errorf("postgres: create request: %w", err)
	}
	return nil
}

// GetByID implements confirmation.Repository.
func (r *requestRepo) GetByID(ctx context.Context, id string) (*confirmation.Request, error) {
	if !validID(id) {
		return nil, shared.ErrRequestNotFound
	}
	req, err := scanRequest(r.q.QueryRow(ctx, requestSelect+" WHERE id = $1", id))
	if IsNoRows(err) {
		return nil, shared.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get request: %w", err)
	}
	return req, nil
}

// ListByStudent implements confirmation.Repository.
func (r *requestRepo) ListByStudent(ctx context.Context, studentID string) ([]*confirmation.Request, error) {
	return r.list(ctx, requestSelect+" WHERE student_id = $1 ORDER BY requested_at, id", studentID)
}

// ListByEntry implements confirmation.Repository.
func (r *requestRepo) ListByEntry(ctx context.Context, entryID string) ([]*confirmation.Request, error) {
	return r.list(ctx, requestSelect+" WHERE logged_hours_id = $1 ORDER BY requested_at, id", entryID)
}

// UpdateStatus implements confirmation.Repository.
func (r *requestRepo) UpdateStatus(ctx context.Context, id string, status confirmation.Status) error {
	if !validID(id) {
		return shared.ErrRequestNotFound
	}
	tag, err := r.q.Exec(ctx, "UPDATE confirmation_requests SET status = $1 WHERE id = $2", string(status), id)
	if err != nil {
		return fmt.Errorf("postgres: update request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrRequestNotFound
	}
	return nil
}
