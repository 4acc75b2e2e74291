package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/citamed/citamed/internal/domain/doctor"
)

type DoctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

func (r *DoctorRepository) Create(ctx context.Context, d *doctor.Doctor) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DoctorRepository) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	var d doctor.Doctor
	err := r.db.WithContext(ctx).Take(&d, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, doctor.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DoctorRepository) List(ctx context.Context) ([]*doctor.Doctor, error) {
	var ds []*doctor.Doctor
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&ds).Error; err != nil {
		return nil, err
	}
	return ds, nil
}

func (r *DoctorRepository) FindBySpecialties(ctx context.Context, specialties []string) ([]*doctor.Doctor, error) {
	var ds []*doctor.Doctor
	err := r.db.WithContext(ctx).
		Where("specialty IN ?", specialties).
		Order("current_patient_load ASC").
		Find(&ds).Error
	if err != nil {
		return nil, err
	}
	return ds, nil
}

type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) Create(ctx context.Context, s *doctor.Schedule) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *ScheduleRepository) GetByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) (*doctor.Schedule, error) {
	var s doctor.Schedule
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND date = ?", doctorID, date.UTC().Format("2006-01-02")).
		Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, doctor.ErrScheduleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
