package doctor

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	List(ctx context.Context) ([]*Doctor, error)

	// FindBySpecialties returns doctors whose specialty matches any of the
	// accepted aliases, ordered by ascending current patient load.
	FindBySpecialties(ctx context.Context, specialties []string) ([]*Doctor, error)
}

type ScheduleRepository interface {
	Create(ctx context.Context, s *Schedule) error

	// GetByDoctorAndDate returns ErrScheduleNotFound when the doctor has no
	// schedule row for the date.
	GetByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) (*Schedule, error)
}
