package sqlite

import (
	"context"
	"fmt"

	"github.com/servicehours/hours-hub/internal/domain/accolade"
	"github.com/servicehours/hours-hub/internal/domain/confirmation"
	"github.com/servicehours/hours-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACCOLADES
// ══════════════════════════════════════════════════════════════════════════════

type accoladeRepo struct {
	q querier
}

// Create implements accolade.Repository.
func (r *accoladeRepo) Create(ctx context.Context, a *accolade.Accolade) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO accolades (id, student_id, milestone, name, awarded_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.StudentID, a.Milestone, a.Name, formatTime(a.AwardedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: create accolade: %w", err)
	}
	return nil
}

// Exists implements accolade.Repository.
func (r *accoladeRepo) Exists(ctx context.Context, studentID string, milestone int) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM accolades WHERE student_id = ? AND milestone = ?)",
		studentID, milestone).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: accolade exists: %w", err)
	}
	return exists, nil
}

// ListByStudent implements accolade.Repository.
func (r *accoladeRepo) ListByStudent(ctx context.Context, studentID string) ([]*accolade.Accolade, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, student_id, milestone, name, awarded_at
		FROM accolades WHERE student_id = ? ORDER BY milestone`, studentID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list accolades: %w", err)
	}
	defer rows.Close()

	var result []*accolade.Accolade
	for rows.Next() {
		var (
			a         accolade.Accolade
			awardedAt string
		)
		if err := rows.Scan(&a.ID, &a.StudentID, &a.Milestone, &a.Name, &awardedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan accolade: %w", err)
		}
		if a.AwardedAt, err = parseTime(awardedAt); err != nil {
			return nil, err
		}
		result = append(result, &a)
	}
	return result, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// CONFIRMATION REQUESTS
// ══════════════════════════════════════════════════════════════════════════════

const requestColumns = `id, logged_hours_id, student_id, requested_at, status`

type requestRepo struct {
	q querier
}

func scanRequest(row rowScanner) (*confirmation.Request, error) {
	var (
		req         confirmation.Request
		requestedAt string
		status      string
	)
	if err := row.Scan(&req.ID, &req.EntryID, &req.StudentID, &requestedAt, &status); err != nil {
		return nil, err
	}
	t, err := parseTime(requestedAt)
	if err != nil {
		return nil, err
	}
	req.RequestedAt = t
	req.Status = confirmation.Status(status)
	return &req, nil
}

func (r *requestRepo) list(ctx context.Context, column, value string) ([]*confirmation.Request, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+requestColumns+" FROM confirmation_requests WHERE "+column+" = ? ORDER BY requested_at, id", value)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list requests: %w", err)
	}
	defer rows.Close()

	var result []*confirmation.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan request: %w", err)
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

// Create implements confirmation.Repository.
func (r *requestRepo) Create(ctx context.Context, req *confirmation.Request) error {
	_, err := r.q.ExecContext(ctx,
		"INSERT INTO confirmation_requests ("+requestColumns+") VALUES (?, ?, ?, ?, ?)",
		req.ID, req.EntryID, req.StudentID, formatTime(req.RequestedAt), string(req.Status),
	)
	if err != nil {
		return fmt.Errorf("sqlite: create request: %w", err)
	}
	return nil
}

// GetByID implements confirmation.Repository.
func (r *requestRepo) GetByID(ctx context.Context, id string) (*confirmation.Request, error) {
	req, err := scanRequest(r.q.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM confirmation_requests WHERE id = ?", id))
	if IsNoRows(err) {
		return nil, shared.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get request: %w", err)
	}
	return req, nil
}

// ListByStudent implements confirmation.Repository.
func (r *requestRepo) ListByStudent(ctx context.Context, studentID string) ([]*confirmation.Request, error) {
	return r.list(ctx, "student_id", studentID)
}

// ListByEntry implements confirmation.Repository.
func (r *requestRepo) ListByEntry(ctx context.Context, entryID string) ([]*confirmation.Request, error) {
	return r.list(ctx, "logged_hours_id", entryID)
}

// UpdateStatus implements confirmation.Repository.
func (r *requestRepo) UpdateStatus(ctx context.Context, id string, status confirmation.Status) error {
	res, err := r.q.ExecContext(ctx, "UPDATE confirmation_requests SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("sqlite: update request: %w", err)
	}
	return expectOneRow(res, shared.ErrRequestNotFound)
}
