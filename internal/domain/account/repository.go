package account

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository определяет операции над студентами.
type StudentRepository interface {
	// Create создаёт студента.
	// Возвращает ErrUsernameTaken, если логин уже занят любой учётной записью.
	Create(ctx context.Context, student *Student) error

	// GetByID возвращает студента по ID.
	// Возвращает ErrStudentNotFound, если студент не найден.
	GetByID(ctx context.Context, id string) (*Student, error)

	// GetByUsername возвращает студента по логину.
	GetByUsername(ctx context.Context, username string) (*Student, error)

	// List возвращает всех студентов по возрастанию ID.
	List(ctx context.Context) ([]*Student, error)

	// LockByID возвращает студента и блокирует его строку до конца транзакции.
	LockByID(ctx context.Context, id string) (*Student, error)

	// LockAll блокирует всех студентов по возрастанию ID и возвращает их.
	LockAll(ctx context.Context) ([]*Student, error)

	// UpdateTotalHours перезаписывает кешированную сумму часов.
	UpdateTotalHours(ctx context.Context, id string, totalHours int) error
}

// StaffRepository определяет операции над сотрудниками.
type StaffRepository interface {
	// Create создаёт сотрудника.
	// Возвращает ErrUsernameTaken, если логин уже занят любой учётной записью.
	Create(ctx context.Context, staff *Staff) error

	// GetByID возвращает сотрудника по ID.
	// Возвращает ErrStaffNotFound, если сотрудник не найден.
	GetByID(ctx context.Context, id string) (*Staff, error)

	// GetByUsername возвращает сотрудника по логину.
	GetByUsername(ctx context.Context, username string) (*Staff, error)

	// List возвращает всех сотрудников по возрастанию ID.
	List(ctx context.Context) ([]*Staff, error)
}
