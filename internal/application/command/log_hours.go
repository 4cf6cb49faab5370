package command

import (
	"context"
	"log/slog"

	"github.com/servicehours/hours-hub/internal/domain/ledger"
	"github.com/servicehours/hours-hub/internal/domain/shared"
	"github.com/servicehours/hours-hub/internal/domain/store"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOG HOURS COMMAND
// A staff member records hours worked by a student. The entry starts unconfirmed
// and does not affect the student's total until it is confirmed.
// ══════════════════════════════════════════════════════════════════════════════

// LogHoursCommand contains the data to log hours.
type LogHoursCommand struct {
	// StaffID is the staff member recording the hours.
	StaffID string `validate:"required"`

	// StudentID is the student the hours are credited to.
	StudentID string `validate:"required"`

	// Hours must be greater than zero.
	Hours int

	// Description is free text.
	Description string `validate:"max=1000"`
}

// Validate validates the command.
func (c LogHoursCommand) Validate() error {
	if c.Hours <= 0 {
		return shared.ErrNonPositiveHours
	}
	return validateCommand("ledger", "Log", c)
}

// LogHoursResult contains the created entry.
type LogHoursResult struct {
	Entry *ledger.Entry
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// LogHoursHandler handles LogHoursCommand.
type LogHoursHandler struct {
	store     store.Store
	publisher shared.EventPublisher
	clock     shared.Clock
	logger    *slog.Logger
}

// NewLogHoursHandler creates a new LogHoursHandler.
func NewLogHoursHandler(st store.Store, publisher shared.EventPublisher, clock shared.Clock, logger *slog.Logger) *LogHoursHandler {
	if clock == nil {
		clock = shared.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LogHoursHandler{
		store:     st,
		publisher: publisher,
		clock:     clock,
		logger:    logger.With("handler", "log_hours"),
	}
}

// Handle logs hours for a student.
func (h *LogHoursHandler) Handle(ctx context.Context, cmd LogHoursCommand) (*LogHoursResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var entry *ledger.Entry
	err := h.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Staff().GetByID(ctx, cmd.StaffID); err != nil {
			return err
		}
		if _, err := tx.Students().GetByID(ctx, cmd.StudentID); err != nil {
			return err
		}

		e, err := ledger.NewEntry(cmd.StudentID, cmd.StaffID, cmd.Hours, cmd.Description, h.clock())
		if err != nil {
			return err
		}
		if err := tx.Entries().Create(ctx, e); err != nil {
			return err
		}

		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("hours logged",
		"entry_id", entry.ID,
		"student_id", entry.StudentID,
		"staff_id", entry.StaffID,
		"hours", entry.Hours,
	)
	publishAll(h.publisher, h.logger, []shared.Event{
		shared.NewHoursLoggedEvent(entry.ID, entry.StudentID, entry.StaffID, entry.Hours),
	})

	return &LogHoursResult{Entry: entry}, nil
}
