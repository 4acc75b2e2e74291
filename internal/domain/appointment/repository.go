package appointment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Book creates the appointment inside one transaction: it locks and
	// checks for a conflicting BOOKED row on (doctor_id, scheduled_at),
	// inserts the appointment with a fresh reference number, and appends
	// the booked-slot marker to the doctor's schedule for that date.
	// Returns ErrSlotTaken on conflict. The lock/append steps are skipped
	// when no doctor is assigned.
	Book(ctx context.Context, cmd *BookCommand) (*Appointment, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// ListByUser returns the user's appointments, most recent scheduled_at
	// first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Appointment, error)

	Cancel(ctx context.Context, id, userID uuid.UUID) error

	CreateAssessment(ctx context.Context, ua *UrgencyAssessment) error
}
