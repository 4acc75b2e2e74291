package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/citamed/citamed/internal/domain/appointment"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// maxReferenceRetries bounds re-rolls of a colliding booking reference.
const maxReferenceRetries = 3

// Book runs the whole booking as one transaction: conflict check under a
// row lock, insert, and booked-slot append. The pre-check gives a fast
// ErrSlotTaken when the winner already committed, but FOR UPDATE on an
// empty result set locks nothing, so two concurrent bookings for a free
// slot both reach the insert. The partial unique index on
// (doctor_id, scheduled_at) WHERE status = 'BOOKED' then stops the loser
// and its 23505 is mapped to ErrSlotTaken here.
func (r *AppointmentRepository) Book(ctx context.Context, cmd *appointment.BookCommand) (*appointment.Appointment, error) {
	appt := &appointment.Appointment{
		UserID:          cmd.UserID,
		DoctorID:        cmd.DoctorID,
		ScheduledAt:     cmd.ScheduledAt,
		UrgencyLevel:    cmd.UrgencyLevel,
		Reason:          cmd.Reason,
		Status:          appointment.StatusBooked,
		ReferenceNumber: appointment.NewReferenceNumber(time.Now()),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if cmd.DoctorID != nil {
			var existing appointment.Appointment
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("doctor_id = ? AND scheduled_at = ? AND status = ?",
					*cmd.DoctorID, cmd.ScheduledAt, appointment.StatusBooked).
				Take(&existing).Error
			if err == nil {
				return appointment.ErrSlotTaken
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("checking slot conflict: %w", err)
			}
		}

		// Each attempt runs under a savepoint so a failed insert leaves
		// the outer transaction usable for the retry.
		for attempt := 0; ; attempt++ {
			insertErr := tx.Transaction(func(inner *gorm.DB) error {
				return inner.Create(appt).Error
			})
			if insertErr == nil {
				break
			}
			switch {
			case violatesIndex(insertErr, "ux_appointments_doctor_slot"):
				return appointment.ErrSlotTaken
			case violatesIndex(insertErr, "ux_appointments_reference") && attempt < maxReferenceRetries:
				appt.ReferenceNumber = appointment.NewReferenceNumber(time.Now())
			default:
				return fmt.Errorf("inserting appointment: %w", insertErr)
			}
		}

		if cmd.DoctorID != nil {
			if err := appendBookedSlot(tx, *cmd.DoctorID, appt.ID, cmd.ScheduledAt); err != nil {
				return fmt.Errorf("marking slot booked: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return appt, nil
}

// appendBookedSlot adds a {start, appointment_id} marker to the doctor's
// schedule for the appointment date. A missing schedule row is not an
// error: emergency bookings land on times no schedule ever offered.
func appendBookedSlot(tx *gorm.DB, doctorID, appointmentID uuid.UUID, scheduledAt time.Time) error {
	date := scheduledAt.UTC().Format("2006-01-02")
	start := scheduledAt.UTC().Format("15:04")
	marker := fmt.Sprintf(`[{"start":%q,"appointment_id":%q}]`, start, appointmentID)

	return tx.Exec(
		`UPDATE doctor_schedules
		 SET booked_slots = COALESCE(booked_slots, '[]'::jsonb) || ?::jsonb,
		     updated_at = now()
		 WHERE doctor_id = ? AND date = ?`,
		marker, doctorID, date,
	).Error
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	err := r.db.WithContext(ctx).Take(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appointment.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AppointmentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*appointment.Appointment, error) {
	var as []*appointment.Appointment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("scheduled_at DESC").
		Find(&as).Error
	if err != nil {
		return nil, err
	}
	return as, nil
}

func (r *AppointmentRepository) Cancel(ctx context.Context, id, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&appointment.Appointment{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, appointment.StatusBooked).
		Update("status", appointment.StatusCancelled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return appointment.ErrNotFound
	}
	return nil
}

func (r *AppointmentRepository) CreateAssessment(ctx context.Context, ua *appointment.UrgencyAssessment) error {
	return r.db.WithContext(ctx).Create(ua).Error
}
