package command

import (
	"context"
	"errors"
	"log/slog"

	"github.com/servicehours/hours-hub/internal/domain/account"
	"github.com/servicehours/hours-hub/internal/domain/shared"
	"github.com/servicehours/hours-hub/internal/domain/store"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER ACCOUNT COMMAND
// Creates a student or staff account. Usernames are unique across both roles.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterAccountCommand contains the data to create an account.
type RegisterAccountCommand struct {
	Username string           `validate:"required,min=2,max=100"`
	Password string           `validate:"required,max=72"`
	UserType account.UserType `validate:"required,oneof=student staff"`
	Name     string           `validate:"max=200"`
	Email    string           `validate:"omitempty,email,max=200"`
}

// Validate validates the command.
func (c RegisterAccountCommand) Validate() error {
	return validateCommand("account", "Create", c)
}

// RegisterAccountResult contains the created account; exactly one field is set.
type RegisterAccountResult struct {
	Student *account.Student
	Staff   *account.Staff
}

// ID returns the identifier of the created account.
func (r *RegisterAccountResult) ID() string {
	if r.Student != nil {
		return r.Student.ID
	}
	return r.Staff.ID
}

// RegisterAccountHandler handles RegisterAccountCommand.
type RegisterAccountHandler struct {
	store     store.Store
	publisher shared.EventPublisher
	clock     shared.Clock
	logger    *slog.Logger
}

// NewRegisterAccountHandler creates a new RegisterAccountHandler.
func NewRegisterAccountHandler(st store.Store, publisher shared.EventPublisher, clock shared.Clock, logger *slog.Logger) *RegisterAccountHandler {
	if clock == nil {
		clock = shared.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RegisterAccountHandler{
		store:     st,
		publisher: publisher,
		clock:     clock,
		logger:    logger.With("handler", "register_account"),
	}
}

// Handle creates the account.
func (h *RegisterAccountHandler) Handle(ctx context.Context, cmd RegisterAccountCommand) (*RegisterAccountResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	cred, err := account.NewCredential(cmd.Username, cmd.Password, cmd.UserType, h.clock())
	if err != nil {
		return nil, err
	}

	result := &RegisterAccountResult{}
	err = h.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		taken, err := usernameTaken(ctx, tx, cred.Username)
		if err != nil {
			return err
		}
		if taken {
			return shared.ErrUsernameTaken
		}

		switch cred.UserType {
		case account.UserTypeStudent:
			st, err := account.NewStudent(cred, cmd.Name, cmd.Email)
			if err != nil {
				return err
			}
			result.Student = st
			return tx.Students().Create(ctx, st)
		default:
			sf, err := account.NewStaff(cred, cmd.Name, cmd.Email)
			if err != nil {
				return err
			}
			result.Staff = sf
			return tx.Staff().Create(ctx, sf)
		}
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("account registered", "id", result.ID(), "username", cred.Username, "user_type", cred.UserType)
	if result.Student != nil {
		publishAll(h.publisher, h.logger, []shared.Event{
			shared.NewStudentRegisteredEvent(result.Student.ID, result.Student.Username),
		})
	}
	return result, nil
}

func usernameTaken(ctx context.Context, tx store.Tx, username string) (bool, error) {
	if _, err := tx.Students().GetByUsername(ctx, username); err == nil {
		return true, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return false, err
	}

	if _, err := tx.Staff().GetByUsername(ctx, username); err == nil {
		return true, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return false, err
	}

	return false, nil
}
