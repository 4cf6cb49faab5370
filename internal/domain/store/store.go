// Package store описывает контракт долговременного хранилища записей.
// Любое чтение и изменение выполняется внутри единицы работы: либо фиксируются
// все изменения, либо ни одно.
package store

import (
	"context"

	"github.com/servicehours/hours-hub/internal/domain/accolade"
	"github.com/servicehours/hours-hub/internal/domain/account"
	"github.com/servicehours/hours-hub/internal/domain/confirmation"
	"github.com/servicehours/hours-hub/internal/domain/ledger"
)

// Tx - единица работы. Репозитории действительны только внутри WithinTx.
type Tx interface {
	Students() account.StudentRepository
	Staff() account.StaffRepository
	Entries() ledger.Repository
	Accolades() accolade.Repository
	Requests() confirmation.Repository
}

// TxFunc выполняется внутри единицы работы.
// Функция может быть вызвана повторно, если хранилище откатило транзакцию
// из-за конфликта сериализации, поэтому побочные эффекты вне Tx недопустимы.
type TxFunc func(ctx context.Context, tx Tx) error

// Store - долговременное хранилище.
type Store interface {
	// WithinTx выполняет fn в транзакции. Любая ошибка fn откатывает все изменения.
	// Ошибки драйвера возвращаются с видом shared.ErrStorage.
	WithinTx(ctx context.Context, fn TxFunc) error

	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error

	// Close освобождает ресурсы.
	Close() error
}
