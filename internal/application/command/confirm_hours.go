package command

import (
	"context"
	"log/slog"

	"github.com/servicehours/hours-hub/internal/domain/accolade"
	"github.com/servicehours/hours-hub/internal/domain/ledger"
	"github.com/servicehours/hours-hub/internal/domain/shared"
	"github.com/servicehours/hours-hub/internal/domain/store"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIRM HOURS COMMAND
// Confirms a logged entry. In one unit of work: the entry and its student are
// locked, the entry is marked confirmed, the student's total is recomputed from
// all confirmed entries, milestone accolades are awarded and pending
// confirmation requests for the entry are approved.
// ══════════════════════════════════════════════════════════════════════════════

// ConfirmHoursCommand contains the data to confirm an entry.
type ConfirmHoursCommand struct {
	// StaffID is the staff member confirming the entry.
	StaffID string `validate:"required"`

	// EntryID is the entry being confirmed.
	EntryID string `validate:"required"`
}

// Validate validates the command.
func (c ConfirmHoursCommand) Validate() error {
	return validateCommand("ledger", "Confirm", c)
}

// ConfirmHoursResult contains the outcome of a confirmation.
type ConfirmHoursResult struct {
	// Entry is the confirmed entry.
	Entry *ledger.Entry

	// TotalHours is the student's recomputed confirmed total.
	TotalHours int

	// NewAccolades are the accolades awarded by this confirmation, ascending by milestone.
	NewAccolades []*accolade.Accolade

	// ApprovedRequests is the number of pending requests resolved for the entry.
	ApprovedRequests int
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ConfirmHoursHandler handles ConfirmHoursCommand.
type ConfirmHoursHandler struct {
	store     store.Store
	accolades *accolade.Engine
	publisher shared.EventPublisher
	clock     shared.Clock
	logger    *slog.Logger
}

// NewConfirmHoursHandler creates a new ConfirmHoursHandler.
func NewConfirmHoursHandler(
	st store.Store,
	accolades *accolade.Engine,
	publisher shared.EventPublisher,
	clock shared.Clock,
	logger *slog.Logger,
) *ConfirmHoursHandler {
	if clock == nil {
		clock = shared.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	if accolades == nil {
		accolades = accolade.NewEngine(nil, clock)
	}
	return &ConfirmHoursHandler{
		store:     st,
		accolades: accolades,
		publisher: publisher,
		clock:     clock,
		logger:    logger.With("handler", "confirm_hours"),
	}
}

// Handle confirms an entry.
func (h *ConfirmHoursHandler) Handle(ctx context.Context, cmd ConfirmHoursCommand) (*ConfirmHoursResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var (
		result *ConfirmHoursResult
		events []shared.Event
	)

	err := h.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		// The function may be re-run after a serialization failure.
		result = &ConfirmHoursResult{}
		events = events[:0]

		if _, err := tx.Staff().GetByID(ctx, cmd.StaffID); err != nil {
			return err
		}

		// Lock order: entry, then student.
		entry, err := tx.Entries().LockByID(ctx, cmd.EntryID)
		if err != nil {
			return err
		}
		if _, err := tx.Students().LockByID(ctx, entry.StudentID); err != nil {
			return err
		}

		if err := entry.Confirm(h.clock()); err != nil {
			return err
		}
		if err := tx.Entries().MarkConfirmed(ctx, entry.ID, *entry.ConfirmedAt); err != nil {
			return err
		}

		total, err := tx.Entries().SumConfirmed(ctx, entry.StudentID)
		if err != nil {
			return err
		}
		if err := tx.Students().UpdateTotalHours(ctx, entry.StudentID, total); err != nil {
			return err
		}

		awarded, err := h.accolades.CheckAndAward(ctx, tx.Accolades(), entry.StudentID, total)
		if err != nil {
			return err
		}

		requests, err := tx.Requests().ListByEntry(ctx, entry.ID)
		if err != nil {
			return err
		}
		for _, req := range requests {
			if !req.IsPending() {
				continue
			}
			if err := req.Approve(); err != nil {
				return err
			}
			if err := tx.Requests().UpdateStatus(ctx, req.ID, req.Status); err != nil {
				return err
			}
			result.ApprovedRequests++
		}

		result.Entry = entry
		result.TotalHours = total
		result.NewAccolades = awarded

		events = append(events, shared.NewHoursConfirmedEvent(entry.ID, entry.StudentID, cmd.StaffID, entry.Hours, total))
		for _, a := range awarded {
			events = append(events, shared.NewAccoladeAwardedEvent(a.ID, a.StudentID, a.Milestone, a.Name))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("hours confirmed",
		"entry_id", result.Entry.ID,
		"student_id", result.Entry.StudentID,
		"staff_id", cmd.StaffID,
		"total_hours", result.TotalHours,
		"new_accolades", len(result.NewAccolades),
	)
	publishAll(h.publisher, h.logger, events)

	return result, nil
}
