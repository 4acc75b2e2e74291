package appointment

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

type UrgencyLevel string

const (
	UrgencyLow       UrgencyLevel = "LOW"
	UrgencyMid       UrgencyLevel = "MID"
	UrgencyHigh      UrgencyLevel = "HIGH"
	UrgencyEmergency UrgencyLevel = "EMERGENCY"
)

func (u UrgencyLevel) IsValid() bool {
	switch u {
	case UrgencyLow, UrgencyMid, UrgencyHigh, UrgencyEmergency:
		return true
	}
	return false
}

// State transitions possibilities:
//
//	BOOKED → COMPLETED
//	BOOKED → CANCELLED
type Status string

const (
	StatusBooked    Status = "BOOKED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

type Appointment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"-"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`

	// DoctorID is null only transiently, for emergency appointments created
	// before a placeholder doctor has been resolved.
	DoctorID *uuid.UUID `gorm:"column:doctor_id;type:uuid;index" json:"doctorId"`

	ScheduledAt  time.Time    `gorm:"column:scheduled_at;not null;index" json:"scheduledAt"`
	UrgencyLevel UrgencyLevel `gorm:"column:urgency_level;type:varchar(20);not null;default:'LOW';index" json:"urgencyLevel"`
	Reason       string       `gorm:"column:reason;type:text" json:"reason,omitempty"`
	Status       Status       `gorm:"column:status;type:varchar(20);not null;default:'BOOKED';index" json:"status"`

	// ReferenceNumber is the human-readable booking reference handed to the
	// patient, format APPT-YYYYMMDD-NNNN.
	ReferenceNumber string `gorm:"column:reference_number;type:varchar(30);uniqueIndex:ux_appointments_reference;not null" json:"referenceNumber"`
}

func (Appointment) TableName() string {
	return "appointments"
}

func (a *Appointment) CanTransitionTo(newStatus Status) bool {
	allowed := map[Status][]Status{
		StatusBooked:    {StatusCompleted, StatusCancelled},
		StatusCompleted: {},
		StatusCancelled: {},
	}

	for _, s := range allowed[a.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// NewReferenceNumber generates a human-readable booking reference. The
// random suffix keeps references guessable-resistant without being opaque;
// the unique index on reference_number catches the rare collision.
func NewReferenceNumber(now time.Time) string {
	return fmt.Sprintf("APPT-%s-%04d", now.UTC().Format("20060102"), rand.Intn(9000)+1000)
}

// UrgencyAssessment is the persisted outcome of the triage questionnaire,
// created exactly once per triaged appointment and never mutated.
type UrgencyAssessment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`

	AppointmentID uuid.UUID `gorm:"column:appointment_id;type:uuid;not null;index" json:"appointmentId"`

	QuestionResponses  []int        `gorm:"column:question_responses;serializer:json;not null" json:"questionResponses"`
	Score              int          `gorm:"column:score;not null" json:"score"`
	CalculatedUrgency  UrgencyLevel `gorm:"column:calculated_urgency;type:varchar(20);not null" json:"calculatedUrgency"`
	EmergencyFlag      bool         `gorm:"column:emergency_flag;default:false" json:"emergencyFlag"`
}

func (UrgencyAssessment) TableName() string {
	return "urgency_assessments"
}

type BookCommand struct {
	UserID       uuid.UUID
	DoctorID     *uuid.UUID
	ScheduledAt  time.Time
	UrgencyLevel UrgencyLevel
	Reason       string
}
