package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/servicehours/hours-hub/internal/domain/account"
	"github.com/servicehours/hours-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// USERS
// ══════════════════════════════════════════════════════════════════════════════

func insertCredential(ctx context.Context, q querier, c account.Credential) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, user_type, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Username, c.PasswordHash, string(c.UserType), formatTime(c.CreatedAt),
	)
	if IsUniqueViolation(err) {
		return shared.ErrUsernameTaken
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(createdAt string, userType string, c *account.Credential) error {
	t, err := parseTime(createdAt)
	if err != nil {
		return err
	}
	c.CreatedAt = t
	c.UserType = account.UserType(userType)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

const studentColumns = `
	u.id, u.username, u.password_hash, u.user_type, u.created_at,
	s.name, s.email, s.total_hours`

const studentFrom = ` FROM students s JOIN users u ON u.id = s.user_id`

type studentRepo struct {
	q querier
}

func scanStudent(row rowScanner) (*account.Student, error) {
	var (
		st                  account.Student
		userType, createdAt string
	)
	err := row.Scan(
		&st.ID, &st.Username, &st.PasswordHash, &userType, &createdAt,
		&st.Name, &st.Email, &st.TotalHours,
	)
	if err != nil {
		return nil, err
	}
	if err := scanCredential(createdAt, userType, &st.Credential); err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *studentRepo) queryOne(ctx context.Context, where string, arg any) (*account.Student, error) {
	st, err := scanStudent(r.q.QueryRowContext(ctx, "SELECT"+studentColumns+studentFrom+" WHERE "+where, arg))
	if IsNoRows(err) {
		return nil, shared.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get student: %w", err)
	}
	return st, nil
}

func (r *studentRepo) queryMany(ctx context.Context, query string, args ...any) ([]*account.Student, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list students: %w", err)
	}
	defer rows.Close()

	var result []*account.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan student: %w", err)
		}
		result = append(result, st)
	}
	return result, rows.Err()
}

// Create implements account.StudentRepository.
func (r *studentRepo) Create(ctx context.Context, st *account.Student) error {
	if err := insertCredential(ctx, r.q, st.Credential); err != nil {
		return err
	}
	_, err := r.q.ExecContext(ctx,
		"INSERT INTO students (user_id, name, email, total_hours) VALUES (?, ?, ?, ?)",
		st.ID, st.Name, st.Email, st.TotalHours,
	)
	return err
}

// GetByID implements account.StudentRepository.
func (r *studentRepo) GetByID(ctx context.Context, id string) (*account.Student, error) {
	return r.queryOne(ctx, "u.id = ?", id)
}

// GetByUsername implements account.StudentRepository.
func (r *studentRepo) GetByUsername(ctx context.Context, username string) (*account.Student, error) {
	return r.queryOne(ctx, "u.username = ?", username)
}

// List implements account.StudentRepository.
func (r *studentRepo) List(ctx context.Context) ([]*account.Student, error) {
	return r.queryMany(ctx, "SELECT"+studentColumns+studentFrom+" ORDER BY u.id")
}

// LockByID implements account.StudentRepository.
// The transaction already holds the database write lock.
func (r *studentRepo) LockByID(ctx context.Context, id string) (*account.Student, error) {
	return r.GetByID(ctx, id)
}

// LockAll implements account.StudentRepository.
func (r *studentRepo) LockAll(ctx context.Context) ([]*account.Student, error) {
	return r.List(ctx)
}

// UpdateTotalHours implements account.StudentRepository.
func (r *studentRepo) UpdateTotalHours(ctx context.Context, id string, totalHours int) error {
	res, err := r.q.ExecContext(ctx, "UPDATE students SET total_hours = ? WHERE user_id = ?", totalHours, id)
	if err != nil {
		return fmt.Errorf("sqlite: update total hours: %w", err)
	}
	return expectOneRow(res, shared.ErrStudentNotFound)
}

// ══════════════════════════════════════════════════════════════════════════════
// STAFF
// ══════════════════════════════════════════════════════════════════════════════

const staffColumns = `
	u.id, u.username, u.password_hash, u.user_type, u.created_at,
	s.name, s.email`

const staffFrom = ` FROM staff s JOIN users u ON u.id = s.user_id`

type staffRepo struct {
	q querier
}

func scanStaff(row rowScanner) (*account.Staff, error) {
	var (
		st                  account.Staff
		userType, createdAt string
	)
	err := row.Scan(
		&st.ID, &st.Username, &st.PasswordHash, &userType, &createdAt,
		&st.Name, &st.Email,
	)
	if err != nil {
		return nil, err
	}
	if err := scanCredential(createdAt, userType, &st.Credential); err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *staffRepo) queryOne(ctx context.Context, where string, arg any) (*account.Staff, error) {
	st, err := scanStaff(r.q.QueryRowContext(ctx, "SELECT"+staffColumns+staffFrom+" WHERE "+where, arg))
	if IsNoRows(err) {
		return nil, shared.ErrStaffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get staff: %w", err)
	}
	return st, nil
}

// Create implements account.StaffRepository.
func (r *staffRepo) Create(ctx context.Context, st *account.Staff) error {
	if err := insertCredential(ctx, r.q, st.Credential); err != nil {
		return err
	}
	_, err := r.q.ExecContext(ctx,
		"INSERT INTO staff (user_id, name, email) VALUES (?, ?, ?)",
		st.ID, st.Name, st.Email,
	)
	return err
}

// GetByID implements account.StaffRepository.
func (r *staffRepo) GetByID(ctx context.Context, id string) (*account.Staff, error) {
	return r.queryOne(ctx, "u.id = ?", id)
}

// GetByUsername implements account.StaffRepository.
func (r *staffRepo) GetByUsername(ctx context.Context, username string) (*account.Staff, error) {
	return r.queryOne(ctx, "u.username = ?", username)
}

// List implements account.StaffRepository.
func (r *staffRepo) List(ctx context.Context) ([]*account.Staff, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT"+staffColumns+staffFrom+" ORDER BY u.id")
	if err != nil {
		return nil, fmt.Errorf("sqlite: list staff: %w", err)
	}
	defer rows.Close()

	var result []*account.Staff
	for rows.Next() {
		st, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan staff: %w", err)
		}
		result = append(result, st)
	}
	return result, rows.Err()
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
