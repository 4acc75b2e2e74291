package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/citamed/citamed/internal/domain/doctor"
)

// DoctorService exposes the practitioner directory.
type DoctorService struct {
	doctors doctor.Repository
}

func NewDoctorService(doctors doctor.Repository) *DoctorService {
	return &DoctorService{doctors: doctors}
}

func (s *DoctorService) List(ctx context.Context) ([]*doctor.Doctor, error) {
	return s.doctors.List(ctx)
}

func (s *DoctorService) Get(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

// Search matches a specialty in any of its accepted spellings, ordered by
// current patient load so the least busy practitioners come first.
func (s *DoctorService) Search(ctx context.Context, specialty string) ([]*doctor.Doctor, error) {
	if specialty == "" {
		return nil, &ValidationError{Fields: []string{"specialty: required"}}
	}
	return s.doctors.FindBySpecialties(ctx, acceptedSpecialties(specialty))
}
