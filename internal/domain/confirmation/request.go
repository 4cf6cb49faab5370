// Package confirmation содержит запросы студентов на подтверждение часов.
package confirmation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/servicehours/hours-hub/internal/domain/ledger"
	"github.com/servicehours/hours-hub/internal/domain/shared"
)

// Status - состояние запроса.
type Status string

const (
	// StatusPending - запрос ждёт решения сотрудника.
	StatusPending Status = "pending"
	// StatusApproved - запись, на которую ссылается запрос, подтверждена.
	StatusApproved Status = "approved"
)

// IsValid проверяет, что статус известен.
func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusApproved
}

// Request - запрос студента на подтверждение записи о часах.
type Request struct {
	ID          string
	EntryID     string
	StudentID   string
	RequestedAt time.Time
	Status      Status
}

// NewRequest создаёт запрос в статусе pending.
// Запись должна принадлежать студенту и быть неподтверждённой.
func NewRequest(studentID string, entry *ledger.Entry, now time.Time) (*Request, error) {
	if !entry.BelongsTo(studentID) {
		return nil, shared.ErrForeignEntry
	}
	if !entry.IsPending() {
		return nil, shared.ErrEntryNotPending
	}

	return &Request{
		ID:          uuid.NewString(),
		EntryID:     entry.ID,
		StudentID:   studentID,
		RequestedAt: now.UTC(),
		Status:      StatusPending,
	}, nil
}

// IsPending возвращает true, пока запрос не разрешён.
func (r *Request) IsPending() bool {
	return r.Status == StatusPending
}

// Approve помечает запрос как одобренный.
func (r *Request) Approve() error {
	if !r.IsPending() {
		return shared.ErrInvalidRequestState
	}
	r.Status = StatusApproved
	return nil
}

// ToMap возвращает плоское представление запроса.
func (r *Request) ToMap() map[string]any {
	return map[string]any{
		"requestID":     r.ID,
		"loggedHoursID": r.EntryID,
		"studentID":     r.StudentID,
		"requestDate":   shared.FormatTime(&r.RequestedAt),
		"status":        string(r.Status),
	}
}

// Repository определяет контракт хранилища запросов.
type Repository interface {
	// Create сохраняет запрос.
	Create(ctx context.Context, request *Request) error

	// GetByID возвращает запрос по ID.
	// Возвращает ErrRequestNotFound, если запрос не найден.
	GetByID(ctx context.Context, id string) (*Request, error)

	// ListByStudent возвращает запросы студента в порядке создания.
	ListByStudent(ctx context.Context, studentID string) ([]*Request, error)

	// ListByEntry возвращает запросы по записи в порядке создания.
	ListByEntry(ctx context.Context, entryID string) ([]*Request, error)

	// UpdateStatus сохраняет новый статус запроса.
	UpdateStatus(ctx context.Context, id string, status Status) error
}
