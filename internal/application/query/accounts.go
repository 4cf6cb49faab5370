package query

import (
	"context"

	"github.com/servicehours/hours-hub/internal/domain/accolade"
	"github.com/servicehours/hours-hub/internal/domain/account"
	"github.com/servicehours/hours-hub/internal/domain/confirmation"
	"github.com/servicehours/hours-hub/internal/domain/ledger"
	"github.com/servicehours/hours-hub/internal/domain/store"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACCOUNT QUERIES
// Чтение учётных записей вместе с их записями о часах и наградами.
// ══════════════════════════════════════════════════════════════════════════════

// Accounts - запросы по студентам и сотрудникам.
type Accounts struct {
	store store.Store
}

// NewAccounts создаёт сервис запросов.
func NewAccounts(st store.Store) *Accounts {
	return &Accounts{store: st}
}

// Student возвращает студента с записями и наградами.
func (q *Accounts) Student(ctx context.Context, id string) (*account.Student, error) {
	var result *account.Student
	err := q.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		st, err := tx.Students().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := hydrateStudent(ctx, tx, st); err != nil {
			return err
		}
		result = st
		return nil
	})
	return result, err
}

// StudentByUsername возвращает студента по логину.
func (q *Accounts) StudentByUsername(ctx context.Context, username string) (*account.Student, error) {
	var result *account.Student
	err := q.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		st, err := tx.Students().GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if err := hydrateStudent(ctx, tx, st); err != nil {
			return err
		}
		result = st
		return nil
	})
	return result, err
}

// Students возвращает всех студентов по возрастанию ID.
func (q *Accounts) Students(ctx context.Context) ([]*account.Student, error) {
	var result []*account.Student
	err := q.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		students, err := tx.Students().List(ctx)
		if err != nil {
			return err
		}
		for _, st := range students {
			if err := hydrateStudent(ctx, tx, st); err != nil {
				return err
			}
		}
		result = students
		return nil
	})
	return result, err
}

// Staff возвращает сотрудника с созданными им записями.
func (q *Accounts) Staff(ctx context.Context, id string) (*account.Staff, error) {
	var result *account.Staff
	err := q.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		sf, err := tx.Staff().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if sf.LoggedHours, err = tx.Entries().ListByStaff(ctx, sf.ID); err != nil {
			return err
		}
		result = sf
		return nil
	})
	return result, err
}

// StaffMembers возвращает всех сотрудников по возрастанию ID.
func (q *Accounts) StaffMembers(ctx context.Context) ([]*account.Staff, error) {
	var result []*account.Staff
	err := q.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		staff, err := tx.Staff().List(ctx)
		if err != nil {
			return err
		}
		for _, sf := range staff {
			if sf.LoggedHours, err = tx.Entries().ListByStaff(ctx, sf.ID); err != nil {
				return err
			}
		}
		result = staff
		return nil
	})
	return result, err
}

// Accolades возвращает награды студента по возрастанию порога.
func (q *Accounts) Accolades(ctx context.Context, studentID string) ([]*accolade.Accolade, error) {
	var result []*accolade.Accolade
	err := q.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Students().GetByID(ctx, studentID); err != nil {
			return err
		}
		list, err := tx.Accolades().ListByStudent(ctx, studentID)
		result = list
		return err
	})
	return result, err
}

// Requests возвращает запросы на подтверждение, созданные студентом.
func (q *Accounts) Requests(ctx context.Context, studentID string) ([]*confirmation.Request, error) {
	var result []*confirmation.Request
	err := q.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Students().GetByID(ctx, studentID); err != nil {
			return err
		}
		list, err := tx.Requests().ListByStudent(ctx, studentID)
		result = list
		return err
	})
	return result, err
}

// Entry возвращает запись о часах.
func (q *Accounts) Entry(ctx context.Context, id string) (*ledger.Entry, error) {
	var result *ledger.Entry
	err := q.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		e, err := tx.Entries().GetByID(ctx, id)
		result = e
		return err
	})
	return result, err
}

func hydrateStudent(ctx context.Context, tx store.Tx, st *account.Student) error {
	var err error
	if st.LoggedHours, err = tx.Entries().ListByStudent(ctx, st.ID); err != nil {
		return err
	}
	st.Accolades, err = tx.Accolades().ListByStudent(ctx, st.ID)
	return err
}
