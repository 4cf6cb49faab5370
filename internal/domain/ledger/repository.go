package ledger

import (
	"context"
	"time"
)

// Repository определяет контракт хранилища записей о часах.
// Все методы вызываются внутри единицы работы (store.Tx).
type Repository interface {
	// Create сохраняет новую запись.
	Create(ctx context.Context, entry *Entry) error

	// GetByID возвращает запись по ID.
	// Возвращает ErrEntryNotFound, если запись не найдена.
	GetByID(ctx context.Context, id string) (*Entry, error)

	// LockByID возвращает запись и блокирует её до конца транзакции.
	// Возвращает ErrEntryNotFound, если запись не найдена.
	LockByID(ctx context.Context, id string) (*Entry, error)

	// MarkConfirmed фиксирует подтверждение записи.
	MarkConfirmed(ctx context.Context, id string, at time.Time) error

	// ListByStudent возвращает записи студента в порядке создания.
	ListByStudent(ctx context.Context, studentID string) ([]*Entry, error)

	// ListByStaff возвращает записи, созданные сотрудником, в порядке создания.
	ListByStaff(ctx context.Context, staffID string) ([]*Entry, error)

	// SumConfirmed возвращает сумму подтверждённых часов студента.
	SumConfirmed(ctx context.Context, studentID string) (int, error)

	// ConfirmedTotals возвращает суммы подтверждённых часов по всем студентам,
	// у которых есть хотя бы одна подтверждённая запись.
	ConfirmedTotals(ctx context.Context) (map[string]int, error)
}
