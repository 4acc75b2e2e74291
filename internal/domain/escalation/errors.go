package escalation

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("escalation not found")
	ErrInvalidTransition = errors.New("invalid escalation status transition")
)

// ActiveExistsError reports a create attempt while a non-RESOLVED
// escalation already exists for the appointment. It carries the existing
// escalation id so callers can surface it in the conflict response.
type ActiveExistsError struct {
	EscalationID uuid.UUID
}

func (e *ActiveExistsError) Error() string {
	return fmt.Sprintf("an active escalation already exists for this appointment: %s", e.EscalationID)
}
