package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/citamed/citamed/internal/domain/doctor"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
}

func newSchedulingFixture(t *testing.T, autoProvision bool) (*SchedulingService, *fakeDoctorRepo, *fakeScheduleRepo) {
	t.Helper()
	doctors := &fakeDoctorRepo{}
	schedules := newFakeScheduleRepo()
	svc := NewSchedulingService(doctors, schedules, autoProvision, zap.NewNop())
	svc.now = fixedNow
	return svc, doctors, schedules
}

func addDoctor(t *testing.T, repo *fakeDoctorRepo, specialty string, load int) *doctor.Doctor {
	t.Helper()
	d := &doctor.Doctor{ID: uuid.New(), Name: "Dr. Test", Specialty: specialty, CurrentPatientLoad: load}
	require.NoError(t, repo.Create(context.Background(), d))
	return d
}

func addSchedule(t *testing.T, repo *fakeScheduleRepo, doctorID uuid.UUID, date time.Time, slots []doctor.Slot, booked []doctor.BookedSlot) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &doctor.Schedule{
		DoctorID:       doctorID,
		Date:           date,
		AvailableSlots: slots,
		BookedSlots:    booked,
	}))
}

func TestFindAvailableSlotFirstFreeWins(t *testing.T) {
	svc, doctors, schedules := newSchedulingFixture(t, false)
	d := addDoctor(t, doctors, "Cardiologia", 0)

	date := fixedNow().Truncate(24 * time.Hour)
	addSchedule(t, schedules, d.ID, date,
		[]doctor.Slot{{Start: "09:00", End: "09:30"}, {Start: "10:00", End: "10:30"}},
		[]doctor.BookedSlot{{Start: "09:00"}},
	)

	got, err := svc.FindAvailableSlot(context.Background(), "Cardiologia", 24)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, d.ID, got.DoctorID)
	assert.Equal(t, "10:00", got.Slot.Start)
}

func TestFindAvailableSlotPrefersLeastLoadedDoctor(t *testing.T) {
	svc, doctors, schedules := newSchedulingFixture(t, false)
	busy := addDoctor(t, doctors, "Pediatria", 12)
	idle := addDoctor(t, doctors, "Pediatria", 2)

	date := fixedNow().Truncate(24 * time.Hour)
	addSchedule(t, schedules, busy.ID, date, []doctor.Slot{{Start: "09:00", End: "09:30"}}, nil)
	addSchedule(t, schedules, idle.ID, date, []doctor.Slot{{Start: "11:00", End: "11:30"}}, nil)

	got, err := svc.FindAvailableSlot(context.Background(), "Pediatria", 24)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, idle.ID, got.DoctorID)
}

func TestFindAvailableSlotSpecialtyAliases(t *testing.T) {
	svc, doctors, schedules := newSchedulingFixture(t, false)
	d := addDoctor(t, doctors, "Cardiology", 0)
	addSchedule(t, schedules, d.ID, fixedNow().Truncate(24*time.Hour),
		[]doctor.Slot{{Start: "09:00", End: "09:30"}}, nil)

	// The Spanish name must find the doctor registered under the English one.
	got, err := svc.FindAvailableSlot(context.Background(), "Cardiologia", 24)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, d.ID, got.DoctorID)
}

func TestFindAvailableSlotScansForwardWithinWindow(t *testing.T) {
	svc, doctors, schedules := newSchedulingFixture(t, false)
	d := addDoctor(t, doctors, "Dermatologia", 0)

	// Schedule exists only two days out; a 72h window reaches it, a 24h
	// window must not.
	date := fixedNow().Truncate(24 * time.Hour).AddDate(0, 0, 2)
	addSchedule(t, schedules, d.ID, date, []doctor.Slot{{Start: "14:00", End: "14:30"}}, nil)

	got, err := svc.FindAvailableSlot(context.Background(), "Dermatologia", 24)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.FindAvailableSlot(context.Background(), "Dermatologia", 72)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, date, got.Date)
}

func TestFindAvailableSlotIdempotentWithoutBooking(t *testing.T) {
	svc, doctors, schedules := newSchedulingFixture(t, false)
	d := addDoctor(t, doctors, "Ortopedia", 0)
	addSchedule(t, schedules, d.ID, fixedNow().Truncate(24*time.Hour),
		[]doctor.Slot{{Start: "09:00", End: "09:30"}, {Start: "10:00", End: "10:30"}}, nil)

	first, err := svc.FindAvailableSlot(context.Background(), "Ortopedia", 24)
	require.NoError(t, err)
	second, err := svc.FindAvailableSlot(context.Background(), "Ortopedia", 24)
	require.NoError(t, err)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.DoctorID, second.DoctorID)
	assert.Equal(t, first.Slot, second.Slot)
}

func TestFindAvailableSlotNoDoctorsWithoutProvisioning(t *testing.T) {
	svc, _, _ := newSchedulingFixture(t, false)

	got, err := svc.FindAvailableSlot(context.Background(), "Medicina General", 24)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindAvailableSlotAutoProvisionsPlaceholder(t *testing.T) {
	svc, doctors, schedules := newSchedulingFixture(t, true)

	got, err := svc.FindAvailableSlot(context.Background(), "Medicina General", 24)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Dr. Guardia - Medicina General", got.DoctorName)
	assert.Equal(t, "09:00", got.Slot.Start)

	created, err := doctors.List(context.Background())
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "Medicina General", created[0].Specialty)

	// The placeholder gets a next-day schedule with the default slots.
	tomorrow := fixedNow().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	sched, err := schedules.GetByDoctorAndDate(context.Background(), created[0].ID, tomorrow)
	require.NoError(t, err)
	assert.Len(t, sched.AvailableSlots, 4)
}

func TestEnsureDoctorReturnsNilWhenProvisioningDisabled(t *testing.T) {
	svc, _, _ := newSchedulingFixture(t, false)

	d, err := svc.EnsureDoctor(context.Background(), "Cardiologia")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestSlotProposalScheduledAt(t *testing.T) {
	date := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	t.Run("bare HH:MM assumes UTC", func(t *testing.T) {
		p := &SlotProposal{Date: date, Slot: doctor.Slot{Start: "09:00"}}
		got, err := p.ScheduledAt()
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), got)
	})

	t.Run("full timestamps pass through", func(t *testing.T) {
		p := &SlotProposal{Date: date, Slot: doctor.Slot{Start: "2026-03-11T09:00:00-06:00"}}
		got, err := p.ScheduledAt()
		require.NoError(t, err)
		assert.Equal(t, "2026-03-11T09:00:00-06:00", got.Format(time.RFC3339))
	})

	t.Run("garbage start is an error", func(t *testing.T) {
		p := &SlotProposal{Date: date, Slot: doctor.Slot{Start: "morning"}}
		_, err := p.ScheduledAt()
		assert.Error(t, err)
	})
}
