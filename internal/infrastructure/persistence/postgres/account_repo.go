package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/servicehours/hours-hub/internal/domain/account"
	"github.com/servicehours/hours-hub/internal/domain/shared"
)

func insertCredential(ctx context.Context, q Querier, c account.Credential) error {
	_, err := q.Exec(ctx, `
		INSERT INTO users (id, username, password_hash, user_type, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Username, c.PasswordHash, string(c.UserType), c.CreatedAt,
	)
	if IsUniqueViolation(err) {
		return shared.ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("postgres: insert user: %w", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

const studentSelect = `
	SELECT u.id, u.username, u.password_hash, u.user_type, u.created_at,
	       s.name, s.email, s.total_hours
	FROM students s
	JOIN users u ON u.id = s.user_id`

type studentRepo struct {
	q Querier
}

func scanStudent(row pgx.Row) (*account.Student, error) {
	var (
		st       account.Student
		userType string
	)
	err := row.Scan(
		&st.ID, &st.Username, &st.PasswordHash, &userType, &st.CreatedAt,
		&st.Name, &st.Email, &st.TotalHours,
	)
	if err != nil {
		return nil, err
	}
	st.UserType = account.UserType(userType)
	st.CreatedAt = st.CreatedAt.UTC()
	return &st, nil
}

func (r *studentRepo) queryOne(ctx context.Context, query string, arg any) (*account.Student, error) {
	st, err := scanStudent(r.q.QueryRow(ctx, query, arg))
	if IsNoRows(err) {
		return nil, shared.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get student: %w", err)
	}
	return st, nil
}

func (r *studentRepo) queryMany(ctx context.Context, query string) ([]*account.Student, error) {
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list students: %w", err)
	}
	defer rows.Close()

	var result []*account.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan student: %w", err)
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
	_, err := r.q.Exec(ctx,
		"INSERT INTO students (user_id, name, email, total_hours) VALUES ($1, $2, $3, $4)",
		st.ID, st.Name, st.Email, st.TotalHours,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert student: %w", err)
	}
	return nil
}

// GetByID implements account.StudentRepository.
func (r *studentRepo) GetByID(ctx context.Context, id string) (*account.Student, error) {
	if !validID(id) {
		return nil, shared.ErrStudentNotFound
	}
	return r.queryOne(ctx, studentSelect+" WHERE s.user_id = $1", id)
}

// GetByUsername implements account.StudentRepository.
func (r *studentRepo) GetByUsername(ctx context.Context, username string) (*account.Student, error) {
	return r.queryOne(ctx, studentSelect+" WHERE u.username = $1", username)
}

// List implements account.StudentRepository.
func (r *studentRepo) List(ctx context.Context) ([]*account.Student, error) {
	return r.queryMany(ctx, studentSelect+" ORDER BY s.user_id")
}

// LockByID implements account.StudentRepository.
func (r *studentRepo) LockByID(ctx context.Context, id string) (*account.Student, error) {
	if !validID(id) {
		return nil, shared.ErrStudentNotFound
	}
	return r.queryOne(ctx, studentSelect+" WHERE s.user_id = $1 FOR UPDATE OF s", id)
}

// LockAll implements account.StudentRepository.
// Rows are locked in ID order, the same order every writer uses.
func (r *studentRepo) LockAll(ctx context.Context) ([]*account.Student, error) {
	return r.queryMany(ctx, studentSelect+" ORDER BY s.user_id FOR UPDATE OF s")
}

// UpdateTotalHours implements account.StudentRepository.
func (r *studentRepo) UpdateTotalHours(ctx context.Context, id string, totalHours int) error {
	if !validID(id) {
		return shared.ErrStudentNotFound
	}
	tag, err := r.q.Exec(ctx, "UPDATE students SET total_hours = $1 WHERE user_id = $2", totalHours, id)
	if err != nil {
		return fmt.Errorf("postgres: update total hours: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrStudentNotFound
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STAFF
// ══════════════════════════════════════════════════════════════════════════════

const staffSelect = `
	SELECT u.id, u.username, u.password_hash, u.user_type, u.created_at,
	       s.name, s.email
	FROM staff s
	JOIN users u ON u.id = s.user_id`

type staffRepo struct {
	q Querier
}

func scanStaff(row pgx.Row) (*account.Staff, error) {
	var (
		st       account.Staff
		userType string
	)
	err := row.Scan(&st.ID, &st.Username, &st.PasswordHash, &userType, &st.CreatedAt, &st.Name, &st.Email)
	if err != nil {
		return nil, err
	}
	st.UserType = account.UserType(userType)
	st.CreatedAt = st.CreatedAt.UTC()
	return &st, nil
}

func (r *staffRepo) queryOne(ctx context.Context, query string, arg any) (*account.Staff, error) {
	st, err := scanStaff(r.q.QueryRow(ctx, query, arg))
	if IsNoRows(err) {
		return nil, shared.ErrStaffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get staff: %w", err)
	}
	return st, nil
}

// Create implements account.StaffRepository.
func (r *staffRepo) Create(ctx context.Context, st *account.Staff) error {
	if err := insertCredential(ctx, r.q, st.Credential); err != nil {
		return err
	}
	_, err := r.q.Exec(ctx,
		"INSERT INTO staff (user_id, name, email) VALUES ($1, $2, $3)",
		st.ID, st.Name, st.Email,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert staff: %w", err)
	}
	return nil
}

// GetByID implements account.StaffRepository.
func (r *staffRepo) GetByID(ctx context.Context, id string) (*account.Staff, error) {
	if !validID(id) {
		return nil, shared.ErrStaffNotFound
	}
	return r.queryOne(ctx, staffSelect+" WHERE s.user_id = $1", id)
}

// GetByUsername implements account.StaffRepository.
func (r *staffRepo) GetByUsername(ctx context.Context, username string) (*account.Staff, error) {
	return r.queryOne(ctx, staffSelect+" WHERE u.username = $1", username)
}

// List implements account.StaffRepository.
func (r *staffRepo) List(ctx context.Context) ([]*account.Staff, error) {
	rows, err := r.q.Query(ctx, staffSelect+" ORDER BY s.user_id")
	if err != nil {
		return nil, fmt.Errorf("postgres: list staff: %w", err)
	}
	defer rows.Close()

	var result []*account.Staff
	for rows.Next() {
		st, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan staff: %w", err)
		}
		result = append(result, st)
	}
	return result, rows.Err()
}
