package escalation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// Create inserts a PENDING escalation. The existence check for an
	// active (non-RESOLVED) escalation on the same appointment and the
	// insert run in one transaction; a concurrent duplicate attempt fails
	// with *ActiveExistsError.
	Create(ctx context.Context, cmd *CreateCommand) (*Escalation, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Escalation, error)

	// GetByAppointment returns the most recently created escalation for
	// the appointment, or ErrNotFound.
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Escalation, error)

	// ListPending returns escalations still awaiting dispatch
	// (PENDING or NOTIFIED), newest first.
	ListPending(ctx context.Context, limit int) ([]*Escalation, error)

	MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) (*Escalation, error)
	MarkDispatched(ctx context.Context, id uuid.UUID, at time.Time, reference string) (*Escalation, error)

	// Resolve transitions to the terminal RESOLVED state; non-empty notes
	// overwrite the stored notes.
	Resolve(ctx context.Context, id uuid.UUID, notes string) (*Escalation, error)
}
