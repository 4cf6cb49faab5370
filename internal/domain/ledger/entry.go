// Package ledger содержит журнал часов общественной работы.
// Запись создаётся сотрудником и один раз переходит в состояние "подтверждено".
// Записи никогда не удаляются.
package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/servicehours/hours-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Entry - одна запись о часах, отработанных студентом.
type Entry struct {
	// ID - уникальный идентификатор записи.
	ID string

	// StudentID - студент, которому засчитываются часы.
	StudentID string

	// StaffID - сотрудник, создавший запись.
	StaffID string

	// Hours - количество часов, всегда больше нуля.
	Hours int

	// Description - произвольное описание работы.
	Description string

	// LoggedAt - момент создания записи.
	LoggedAt time.Time

	// Confirmed - подтверждена ли запись сотрудником.
	Confirmed bool

	// ConfirmedAt - момент подтверждения, nil пока запись не подтверждена.
	ConfirmedAt *time.Time
}

// NewEntry создаёт неподтверждённую запись.
// Возвращает ErrNonPositiveHours, если hours <= 0.
func NewEntry(studentID, staffID string, hours int, description string, now time.Time) (*Entry, error) {
	if hours <= 0 {
		return nil, shared.ErrNonPositiveHours
	}
	if studentID == "" || staffID == "" {
		return nil, shared.NewDomainError("ledger", "Log", shared.ErrValidation, "student and staff are required")
	}

	return &Entry{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		StaffID:     staffID,
		Hours:       hours,
		Description: strings.TrimSpace(description),
		LoggedAt:    now.UTC(),
	}, nil
}

// Confirm переводит запись в состояние "подтверждено".
// Повторное подтверждение - ошибка, а не пустая операция.
func (e *Entry) Confirm(at time.Time) error {
	if e.Confirmed {
		return shared.ErrEntryAlreadyConfirmed
	}

	at = at.UTC()
	e.Confirmed = true
	e.ConfirmedAt = &at
	return nil
}

// IsPending возвращает true, пока запись ждёт подтверждения.
func (e *Entry) IsPending() bool {
	return !e.Confirmed
}

// BelongsTo проверяет, что запись принадлежит студенту.
func (e *Entry) BelongsTo(studentID string) bool {
	return e.StudentID == studentID
}

// ToMap возвращает плоское представление записи для сериализации.
func (e *Entry) ToMap() map[string]any {
	return map[string]any{
		"logID":         e.ID,
		"studentID":     e.StudentID,
		"staffID":       e.StaffID,
		"hours":         e.Hours,
		"description":   e.Description,
		"logDate":       shared.FormatTime(&e.LoggedAt),
		"isConfirmed":   e.Confirmed,
		"dateConfirmed": shared.FormatTime(e.ConfirmedAt),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATION
// ══════════════════════════════════════════════════════════════════════════════

// SumConfirmed суммирует часы только подтверждённых записей.
func SumConfirmed(entries []*Entry) int {
	total := 0
	for _, e := range entries {
		if e.Confirmed {
			total += e.Hours
		}
	}
	return total
}

// FilterConfirmed возвращает только подтверждённые записи, сохраняя порядок.
func FilterConfirmed(entries []*Entry) []*Entry {
	result := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if e.Confirmed {
			result = append(result, e)
		}
	}
	return result
}

// MapAll сериализует список записей.
func MapAll(entries []*Entry) []map[string]any {
	result := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		result = append(result, e.ToMap())
	}
	return result
}
