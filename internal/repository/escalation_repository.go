package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/citamed/citamed/internal/domain/escalation"
)

type EscalationRepository struct {
	db *gorm.DB
}

func NewEscalationRepository(db *gorm.DB) *EscalationRepository {
	return &EscalationRepository{db: db}
}

// Create enforces the at-most-one-active invariant: the existence check
// runs under a row lock in the same transaction as the insert, and a
// partial unique index on (appointment_id) WHERE status <> 'RESOLVED'
// backs it up against races the lock cannot see (no rows to lock yet).
func (r *EscalationRepository) Create(ctx context.Context, cmd *escalation.CreateCommand) (*escalation.Escalation, error) {
	esc := &escalation.Escalation{
		AppointmentID:  cmd.AppointmentID,
		UserID:         cmd.UserID,
		DoctorID:       cmd.DoctorID,
		EscalationType: cmd.Type,
		Reason:         cmd.Reason,
		Status:         escalation.StatusPending,
		Notes:          cmd.Notes,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing escalation.Escalation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("appointment_id = ? AND status <> ?", cmd.AppointmentID, escalation.StatusResolved).
			Order("created_at DESC").
			Take(&existing).Error
		if err == nil {
			return &escalation.ActiveExistsError{EscalationID: existing.ID}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("checking active escalation: %w", err)
		}

		if createErr := tx.Create(esc).Error; createErr != nil {
			if isUniqueViolation(createErr) {
				return &escalation.ActiveExistsError{}
			}
			return fmt.Errorf("inserting escalation: %w", createErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return esc, nil
}

func (r *EscalationRepository) GetByID(ctx context.Context, id uuid.UUID) (*escalation.Escalation, error) {
	var e escalation.Escalation
	err := r.db.WithContext(ctx).Take(&e, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, escalation.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EscalationRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*escalation.Escalation, error) {
	var e escalation.Escalation
	err := r.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("created_at DESC").
		Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, escalation.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EscalationRepository) ListPending(ctx context.Context, limit int) ([]*escalation.Escalation, error) {
	var es []*escalation.Escalation
	err := r.db.WithContext(ctx).
		Where("status IN ?", []escalation.Status{escalation.StatusPending, escalation.StatusNotified}).
		Order("created_at DESC").
		Limit(limit).
		Find(&es).Error
	if err != nil {
		return nil, err
	}
	return es, nil
}

func (r *EscalationRepository) MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) (*escalation.Escalation, error) {
	return r.update(ctx, id, map[string]any{
		"status":              escalation.StatusNotified,
		"on_call_notified_at": at,
		"updated_at":          at,
	})
}

func (r *EscalationRepository) MarkDispatched(ctx context.Context, id uuid.UUID, at time.Time, reference string) (*escalation.Escalation, error) {
	return r.update(ctx, id, map[string]any{
		"status":                escalation.StatusDispatched,
		"dispatch_initiated_at": at,
		"dispatch_reference":    reference,
		"updated_at":            at,
	})
}

func (r *EscalationRepository) Resolve(ctx context.Context, id uuid.UUID, notes string) (*escalation.Escalation, error) {
	updates := map[string]any{
		"status":     escalation.StatusResolved,
		"updated_at": time.Now(),
	}
	if notes != "" {
		updates["notes"] = notes
	}
	return r.update(ctx, id, updates)
}

func (r *EscalationRepository) update(ctx context.Context, id uuid.UUID, updates map[string]any) (*escalation.Escalation, error) {
	res := r.db.WithContext(ctx).Model(&escalation.Escalation{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, escalation.ErrNotFound
	}
	return r.GetByID(ctx, id)
}
