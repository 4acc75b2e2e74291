package escalation

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeChestPain         Type = "CHEST_PAIN"
	TypeTrauma            Type = "TRAUMA"
	TypeSevereSymptoms    Type = "SEVERE_SYMPTOMS"
	TypeCriticalCondition Type = "CRITICAL_CONDITION"
	TypePatientRequest    Type = "PATIENT_REQUEST"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeChestPain, TypeTrauma, TypeSevereSymptoms, TypeCriticalCondition, TypePatientRequest:
		return true
	}
	return false
}

// State transitions possibilities:
//
//	PENDING → NOTIFIED → DISPATCHED → RESOLVED
//
// RESOLVED is terminal. NOTIFIED may be skipped when the on-call
// notification fails non-fatally; every state may resolve directly.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusNotified   Status = "NOTIFIED"
	StatusDispatched Status = "DISPATCHED"
	StatusResolved   Status = "RESOLVED"
)

// Active reports whether the escalation still blocks creation of a new one
// for the same appointment.
func (s Status) Active() bool {
	return s != StatusResolved
}

type Escalation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	AppointmentID uuid.UUID  `gorm:"column:appointment_id;type:uuid;not null;index" json:"appointmentId"`
	UserID        uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	DoctorID      *uuid.UUID `gorm:"column:doctor_id;type:uuid" json:"doctorId,omitempty"`

	EscalationType Type   `gorm:"column:escalation_type;type:varchar(30);not null" json:"escalationType"`
	Reason         string `gorm:"column:reason;type:text;not null" json:"reason"`
	Status         Status `gorm:"column:status;type:varchar(20);not null;default:'PENDING';index" json:"status"`

	OnCallNotifiedAt    *time.Time `gorm:"column:on_call_notified_at" json:"onCallNotifiedAt,omitempty"`
	DispatchInitiatedAt *time.Time `gorm:"column:dispatch_initiated_at" json:"dispatchInitiatedAt,omitempty"`
	DispatchReference   string     `gorm:"column:dispatch_reference;type:text" json:"dispatchReference,omitempty"`
	Notes               string     `gorm:"column:notes;type:text" json:"notes,omitempty"`
}

func (Escalation) TableName() string {
	return "emergency_escalations"
}

func (e *Escalation) CanTransitionTo(newStatus Status) bool {
	if e.Status == StatusResolved {
		return false
	}
	switch newStatus {
	case StatusNotified:
		return e.Status == StatusPending
	case StatusDispatched:
		return e.Status == StatusPending || e.Status == StatusNotified
	case StatusResolved:
		return true
	}
	return false
}

type CreateCommand struct {
	AppointmentID uuid.UUID
	UserID        uuid.UUID
	DoctorID      *uuid.UUID
	Type          Type
	Reason        string
	Notes         string
}
