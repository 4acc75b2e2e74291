package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/citamed/citamed/internal/domain/doctor"
)

// specialtyAliases groups names that refer to the same specialty across
// languages. Lookup of any member returns the full group; unknown names
// pass through as a single-element group. Extend by adding rows.
var specialtyAliases = [][]string{
	{"Medicina General", "General"},
	{"Cardiologia", "Cardiology"},
	{"Pediatria", "Pediatrics"},
	{"Ortopedia", "Orthopedics"},
	{"Dermatologia", "Dermatology"},
}

func acceptedSpecialties(name string) []string {
	for _, group := range specialtyAliases {
		for _, s := range group {
			if s == name {
				return group
			}
		}
	}
	return []string{name}
}

// defaultSlots is the bootstrap schedule attached to auto-provisioned
// placeholder doctors.
var defaultSlots = []doctor.Slot{
	{Start: "09:00", End: "09:30"},
	{Start: "10:00", End: "10:30"},
	{Start: "14:00", End: "14:30"},
	{Start: "15:00", End: "15:30"},
}

// SlotProposal is the slot finder's result. It is advisory only: final
// conflict detection happens at booking time, inside the appointment
// store's transaction.
type SlotProposal struct {
	DoctorID   uuid.UUID   `json:"doctorId"`
	DoctorName string      `json:"doctorName"`
	Date       time.Time   `json:"date"`
	Slot       doctor.Slot `json:"slot"`
}

// ScheduledAt derives the concrete appointment time from the proposal.
// Bare HH:MM start values are interpreted as UTC on the proposal's date.
func (p *SlotProposal) ScheduledAt() (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, p.Slot.Start); err == nil {
		return t, nil
	}
	raw := fmt.Sprintf("%sT%s:00Z", p.Date.UTC().Format("2006-01-02"), p.Slot.Start)
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing slot start %q: %w", p.Slot.Start, err)
	}
	return t, nil
}

type SchedulingService struct {
	doctors       doctor.Repository
	schedules     doctor.ScheduleRepository
	autoProvision bool
	log           *zap.Logger

	now func() time.Time
}

func NewSchedulingService(
	doctors doctor.Repository,
	schedules doctor.ScheduleRepository,
	autoProvision bool,
	log *zap.Logger,
) *SchedulingService {
	return &SchedulingService{
		doctors:       doctors,
		schedules:     schedules,
		autoProvision: autoProvision,
		log:           log,
		now:           time.Now,
	}
}

// FindAvailableSlot scans per-doctor daily schedules for the first free
// slot within now..now+withinHours. Doctors are tried in ascending
// patient-load order, dates ascending, slots in schedule order; the first
// free slot wins, with no secondary optimization. Returns (nil, nil) when
// the window is exhausted. Performs no writes unless auto-provisioning
// kicks in for a specialty with no doctors.
func (s *SchedulingService) FindAvailableSlot(ctx context.Context, specialty string, withinHours int) (*SlotProposal, error) {
	doctors, err := s.doctors.FindBySpecialties(ctx, acceptedSpecialties(specialty))
	if err != nil {
		return nil, fmt.Errorf("finding doctors for %q: %w", specialty, err)
	}

	if len(doctors) == 0 {
		if !s.autoProvision {
			return nil, nil
		}
		return s.provisionDoctor(ctx, specialty)
	}

	now := s.now().UTC()
	end := now.Add(time.Duration(withinHours) * time.Hour)

	for _, d := range doctors {
		for cur := now; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
			date := cur.Truncate(24 * time.Hour)
			sched, err := s.schedules.GetByDoctorAndDate(ctx, d.ID, date)
			if errors.Is(err, doctor.ErrScheduleNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("loading schedule for doctor %s on %s: %w",
					d.ID, date.Format("2006-01-02"), err)
			}
			if free := sched.FirstFreeSlot(); free != nil {
				return &SlotProposal{
					DoctorID:   d.ID,
					DoctorName: d.Name,
					Date:       date,
					Slot:       *free,
				}, nil
			}
		}
	}

	return nil, nil
}

// EnsureDoctor resolves a practitioner for the specialty, creating a
// placeholder when none exists and auto-provisioning is enabled. Used by
// the emergency path, which needs an anchor doctor but no slot search.
// Returns (nil, nil) when no doctor can be resolved.
func (s *SchedulingService) EnsureDoctor(ctx context.Context, specialty string) (*doctor.Doctor, error) {
	doctors, err := s.doctors.FindBySpecialties(ctx, acceptedSpecialties(specialty))
	if err != nil {
		return nil, fmt.Errorf("finding doctors for %q: %w", specialty, err)
	}
	if len(doctors) > 0 {
		return doctors[0], nil
	}
	if !s.autoProvision {
		return nil, nil
	}
	return s.createPlaceholder(ctx, specialty)
}

func (s *SchedulingService) provisionDoctor(ctx context.Context, specialty string) (*SlotProposal, error) {
	d, err := s.createPlaceholder(ctx, specialty)
	if err != nil {
		return nil, err
	}
	return &SlotProposal{
		DoctorID:   d.ID,
		DoctorName: d.Name,
		Date:       s.now().UTC().AddDate(0, 0, 1).Truncate(24 * time.Hour),
		Slot:       defaultSlots[0],
	}, nil
}

func (s *SchedulingService) createPlaceholder(ctx context.Context, specialty string) (*doctor.Doctor, error) {
	s.log.Warn("no doctors found for specialty, provisioning placeholder",
		zap.String("specialty", specialty),
	)

	d := &doctor.Doctor{
		Name:      fmt.Sprintf("Dr. Guardia - %s", specialty),
		Specialty: specialty,
	}
	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("creating placeholder doctor: %w", err)
	}

	sched := &doctor.Schedule{
		DoctorID:       d.ID,
		Date:           s.now().UTC().AddDate(0, 0, 1).Truncate(24 * time.Hour),
		AvailableSlots: defaultSlots,
		BookedSlots:    []doctor.BookedSlot{},
		MaxCapacity:    len(defaultSlots),
	}
	if err := s.schedules.Create(ctx, sched); err != nil {
		// Schedule may already exist from a concurrent provision; the slot
		// search still works without it.
		s.log.Warn("could not create placeholder schedule", zap.Error(err))
	}

	return d, nil
}
