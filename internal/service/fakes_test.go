package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/citamed/citamed/internal/domain"
	"github.com/citamed/citamed/internal/domain/appointment"
	"github.com/citamed/citamed/internal/domain/doctor"
	"github.com/citamed/citamed/internal/domain/escalation"
	"github.com/citamed/citamed/internal/repository"
)

// In-memory fakes mirroring the transactional contracts of the postgres
// repositories, so service behavior can be tested without a database.

type fakeDoctorRepo struct {
	mu      sync.Mutex
	doctors []*doctor.Doctor
}

func (f *fakeDoctorRepo) Create(_ context.Context, d *doctor.Doctor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	f.doctors = append(f.doctors, d)
	return nil
}

func (f *fakeDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.doctors {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, doctor.ErrNotFound
}

func (f *fakeDoctorRepo) List(_ context.Context) ([]*doctor.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*doctor.Doctor(nil), f.doctors...), nil
}

func (f *fakeDoctorRepo) FindBySpecialties(_ context.Context, specialties []string) ([]*doctor.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	accepted := make(map[string]struct{}, len(specialties))
	for _, s := range specialties {
		accepted[s] = struct{}{}
	}
	var out []*doctor.Doctor
	for _, d := range f.doctors {
		if _, ok := accepted[d.Specialty]; ok {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CurrentPatientLoad < out[j].CurrentPatientLoad
	})
	return out, nil
}

type fakeScheduleRepo struct {
	mu        sync.Mutex
	schedules map[string]*doctor.Schedule
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{schedules: make(map[string]*doctor.Schedule)}
}

func scheduleKey(doctorID uuid.UUID, date time.Time) string {
	return doctorID.String() + "|" + date.UTC().Format("2006-01-02")
}

func (f *fakeScheduleRepo) Create(_ context.Context, s *doctor.Schedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := scheduleKey(s.DoctorID, s.Date)
	if _, exists := f.schedules[key]; exists {
		return errors.New("duplicate key value violates unique constraint (SQLSTATE 23505)")
	}
	f.schedules[key] = s
	return nil
}

func (f *fakeScheduleRepo) GetByDoctorAndDate(_ context.Context, doctorID uuid.UUID, date time.Time) (*doctor.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[scheduleKey(doctorID, date)]
	if !ok {
		return nil, doctor.ErrScheduleNotFound
	}
	return s, nil
}

type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*appointment.Appointment
	assessments  []*appointment.UrgencyAssessment

	assessmentErr error
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*appointment.Appointment)}
}

func (f *fakeAppointmentRepo) Book(_ context.Context, cmd *appointment.BookCommand) (*appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cmd.DoctorID != nil {
		for _, a := range f.appointments {
			if a.Status == appointment.StatusBooked &&
				a.DoctorID != nil && *a.DoctorID == *cmd.DoctorID &&
				a.ScheduledAt.Equal(cmd.ScheduledAt) {
				return nil, appointment.ErrSlotTaken
			}
		}
	}

	appt := &appointment.Appointment{
		ID:              uuid.New(),
		CreatedAt:       time.Now(),
		UserID:          cmd.UserID,
		DoctorID:        cmd.DoctorID,
		ScheduledAt:     cmd.ScheduledAt,
		UrgencyLevel:    cmd.UrgencyLevel,
		Reason:          cmd.Reason,
		Status:          appointment.StatusBooked,
		ReferenceNumber: appointment.NewReferenceNumber(time.Now()),
	}
	f.appointments[appt.ID] = appt
	return appt, nil
}

func (f *fakeAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appointments[id]
	if !ok {
		return nil, appointment.ErrNotFound
	}
	return a, nil
}

func (f *fakeAppointmentRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*appointment.Appointment
	for _, a := range f.appointments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledAt.After(out[j].ScheduledAt)
	})
	return out, nil
}

func (f *fakeAppointmentRepo) Cancel(_ context.Context, id, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appointments[id]
	if !ok || a.UserID != userID || a.Status != appointment.StatusBooked {
		return appointment.ErrNotFound
	}
	a.Status = appointment.StatusCancelled
	return nil
}

func (f *fakeAppointmentRepo) CreateAssessment(_ context.Context, ua *appointment.UrgencyAssessment) error {
	if f.assessmentErr != nil {
		return f.assessmentErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assessments = append(f.assessments, ua)
	return nil
}

func (f *fakeAppointmentRepo) bookedCount(doctorID uuid.UUID, at time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.appointments {
		if a.Status == appointment.StatusBooked &&
			a.DoctorID != nil && *a.DoctorID == doctorID && a.ScheduledAt.Equal(at) {
			n++
		}
	}
	return n
}

type fakeEscalationRepo struct {
	mu          sync.Mutex
	escalations []*escalation.Escalation

	createErr   error
	notifyErr   error
	dispatchErr error
}

func (f *fakeEscalationRepo) Create(_ context.Context, cmd *escalation.CreateCommand) (*escalation.Escalation, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.escalations {
		if e.AppointmentID == cmd.AppointmentID && e.Status.Active() {
			return nil, &escalation.ActiveExistsError{EscalationID: e.ID}
		}
	}
	esc := &escalation.Escalation{
		ID:             uuid.New(),
		CreatedAt:      time.Now(),
		AppointmentID:  cmd.AppointmentID,
		UserID:         cmd.UserID,
		DoctorID:       cmd.DoctorID,
		EscalationType: cmd.Type,
		Reason:         cmd.Reason,
		Status:         escalation.StatusPending,
		Notes:          cmd.Notes,
	}
	f.escalations = append(f.escalations, esc)
	return esc, nil
}

func (f *fakeEscalationRepo) GetByID(_ context.Context, id uuid.UUID) (*escalation.Escalation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.escalations {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, escalation.ErrNotFound
}

func (f *fakeEscalationRepo) GetByAppointment(_ context.Context, appointmentID uuid.UUID) (*escalation.Escalation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *escalation.Escalation
	for _, e := range f.escalations {
		if e.AppointmentID == appointmentID {
			if latest == nil || e.CreatedAt.After(latest.CreatedAt) {
				latest = e
			}
		}
	}
	if latest == nil {
		return nil, escalation.ErrNotFound
	}
	return latest, nil
}

func (f *fakeEscalationRepo) ListPending(_ context.Context, limit int) ([]*escalation.Escalation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*escalation.Escalation
	for _, e := range f.escalations {
		if e.Status == escalation.StatusPending || e.Status == escalation.StatusNotified {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeEscalationRepo) MarkNotified(_ context.Context, id uuid.UUID, at time.Time) (*escalation.Escalation, error) {
	if f.notifyErr != nil {
		return nil, f.notifyErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.escalations {
		if e.ID == id {
			e.Status = escalation.StatusNotified
			e.OnCallNotifiedAt = &at
			return e, nil
		}
	}
	return nil, escalation.ErrNotFound
}

func (f *fakeEscalationRepo) MarkDispatched(_ context.Context, id uuid.UUID, at time.Time, reference string) (*escalation.Escalation, error) {
	if f.dispatchErr != nil {
		return nil, f.dispatchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.escalations {
		if e.ID == id {
			e.Status = escalation.StatusDispatched
			e.DispatchInitiatedAt = &at
			e.DispatchReference = reference
			return e, nil
		}
	}
	return nil, escalation.ErrNotFound
}

func (f *fakeEscalationRepo) Resolve(_ context.Context, id uuid.UUID, notes string) (*escalation.Escalation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.escalations {
		if e.ID == id {
			e.Status = escalation.StatusResolved
			if notes != "" {
				e.Notes = notes
			}
			return e, nil
		}
	}
	return nil, escalation.ErrNotFound
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (f *fakeAuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUserStore) Create(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUserStore) TouchLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}
