package command

import (
	"context"
	"log/slog"

	"github.com/servicehours/hours-hub/internal/domain/confirmation"
	"github.com/servicehours/hours-hub/internal/domain/shared"
	"github.com/servicehours/hours-hub/internal/domain/store"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST CONFIRMATION COMMAND
// A student asks staff to confirm one of their own pending entries.
// The request is a durable note; ledger state is not touched.
// ══════════════════════════════════════════════════════════════════════════════

// RequestConfirmationCommand contains the data to request confirmation.
type RequestConfirmationCommand struct {
	StudentID string `validate:"required"`
	EntryID   string `validate:"required"`
}

// Validate validates the command.
func (c RequestConfirmationCommand) Validate() error {
	return validateCommand("confirmation", "Request", c)
}

// RequestConfirmationHandler handles RequestConfirmationCommand.
type RequestConfirmationHandler struct {
	store     store.Store
	publisher shared.EventPublisher
	clock     shared.Clock
	logger    *slog.Logger
}

// NewRequestConfirmationHandler creates a new RequestConfirmationHandler.
func NewRequestConfirmationHandler(st store.Store, publisher shared.EventPublisher, clock shared.Clock, logger *slog.Logger) *RequestConfirmationHandler {
	if clock == nil {
		clock = shared.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestConfirmationHandler{
		store:     st,
		publisher: publisher,
		clock:     clock,
		logger:    logger.With("handler", "request_confirmation"),
	}
}

// Handle creates a pending confirmation request.
func (h *RequestConfirmationHandler) Handle(ctx context.Context, cmd RequestConfirmationCommand) (*confirmation.Request, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var req *confirmation.Request
	err := h.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		student, err := tx.Students().GetByID(ctx, cmd.StudentID)
		if err != nil {
			return err
		}
		entry, err := tx.Entries().GetByID(ctx, cmd.EntryID)
		if err != nil {
			return err
		}

		r, err := confirmation.NewRequest(student.ID, entry, h.clock())
		if err != nil {
			return err
		}
		if err := tx.Requests().Create(ctx, r); err != nil {
			return err
		}

		req = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("confirmation requested", "request_id", req.ID, "student_id", req.StudentID, "entry_id", req.EntryID)
	publishAll(h.publisher, h.logger, []shared.Event{
		shared.NewConfirmationRequestedEvent(req.ID, req.StudentID, req.EntryID),
	})

	return req, nil
}
