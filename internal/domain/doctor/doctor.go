package doctor

import (
	"time"

	"github.com/google/uuid"
)

type Doctor struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"-"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	Name      string `gorm:"column:name;type:text;not null" json:"name"`
	Specialty string `gorm:"column:specialty;type:text;not null;index" json:"specialty"`

	Qualifications  []string `gorm:"column:qualifications;serializer:json" json:"qualifications,omitempty"`
	YearsExperience int      `gorm:"column:years_experience" json:"yearsExperience,omitempty"`

	// CurrentPatientLoad is the load-balancing tie-break for slot search:
	// doctors with fewer assigned patients are scanned first.
	CurrentPatientLoad int     `gorm:"column:current_patient_load;default:0" json:"currentPatientLoad"`
	AverageRating      float64 `gorm:"column:average_rating;type:numeric(3,2);default:0.0" json:"averageRating"`
}

func (Doctor) TableName() string {
	return "doctors"
}

// Slot is one bookable time unit in a day's schedule. Start/End are bare
// HH:MM strings; SlotID is optional and takes precedence as the identity
// when matching against booked slots.
type Slot struct {
	SlotID string `json:"slot_id,omitempty"`
	Start  string `json:"start"`
	End    string `json:"end,omitempty"`
}

// Key returns the identity used to match a slot against booked markers.
func (s Slot) Key() string {
	if s.SlotID != "" {
		return s.SlotID
	}
	return s.Start
}

// BookedSlot marks a slot as taken by an appointment.
type BookedSlot struct {
	SlotID        string    `json:"slot_id,omitempty"`
	Start         string    `json:"start"`
	AppointmentID uuid.UUID `json:"appointment_id"`
}

func (b BookedSlot) Key() string {
	if b.SlotID != "" {
		return b.SlotID
	}
	return b.Start
}

// Schedule is one doctor's slot plan for one calendar date; (doctor_id,
// date) is unique. Booked state is derived, availableSlots never shrinks.
type Schedule struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`

	DoctorID uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;uniqueIndex:ux_doctor_schedule_date" json:"doctorId"`
	Date     time.Time `gorm:"column:date;type:date;not null;uniqueIndex:ux_doctor_schedule_date" json:"date"`

	AvailableSlots []Slot       `gorm:"column:available_slots;serializer:json;not null" json:"availableSlots"`
	BookedSlots    []BookedSlot `gorm:"column:booked_slots;serializer:json;not null;default:'[]'" json:"bookedSlots"`
	MaxCapacity    int          `gorm:"column:max_capacity;default:0" json:"maxCapacity"`
}

func (Schedule) TableName() string {
	return "doctor_schedules"
}

// FirstFreeSlot scans availableSlots in original order and returns the
// first one whose key has no booked marker, or nil.
func (s *Schedule) FirstFreeSlot() *Slot {
	booked := make(map[string]struct{}, len(s.BookedSlots))
	for _, b := range s.BookedSlots {
		booked[b.Key()] = struct{}{}
	}
	for i := range s.AvailableSlots {
		if _, taken := booked[s.AvailableSlots[i].Key()]; !taken {
			return &s.AvailableSlots[i]
		}
	}
	return nil
}
