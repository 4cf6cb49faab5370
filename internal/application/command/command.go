// Package command contains write operations (CQRS - Commands).
package command

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/servicehours/hours-hub/internal/domain/shared"
)

// validate is shared by all commands; validator.Validate caches struct metadata and is safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// validateCommand runs struct-tag validation and reports failures as shared.ErrValidation.
func validateCommand(domain, op string, cmd any) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fmt.Sprintf("%s failed on %q", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return shared.NewDomainError(domain, op, shared.ErrValidation, strings.Join(msgs, "; "))
	}
	return shared.WrapError(domain, op, shared.ErrValidation, "invalid command", err)
}

// publishAll publishes events after a successful commit. Failures are logged, never returned:
// the unit of work is already durable.
func publishAll(publisher shared.EventPublisher, logger *slog.Logger, events []shared.Event) {
	if publisher == nil {
		return
	}
	for _, event := range events {
		if err := publisher.Publish(event); err != nil {
			logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
		}
	}
}
