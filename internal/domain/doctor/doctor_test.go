package doctor

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSlotKeyPrefersSlotID(t *testing.T) {
	assert.Equal(t, "s1", Slot{SlotID: "s1", Start: "09:00"}.Key())
	assert.Equal(t, "09:00", Slot{Start: "09:00"}.Key())
	assert.Equal(t, "s1", BookedSlot{SlotID: "s1", Start: "09:00"}.Key())
	assert.Equal(t, "09:00", BookedSlot{Start: "09:00"}.Key())
}

func TestFirstFreeSlot(t *testing.T) {
	slots := []Slot{
		{Start: "09:00", End: "09:30"},
		{Start: "10:00", End: "10:30"},
		{Start: "14:00", End: "14:30"},
	}

	t.Run("empty schedule returns first slot", func(t *testing.T) {
		s := &Schedule{AvailableSlots: slots}
		free := s.FirstFreeSlot()
		assert.Equal(t, "09:00", free.Start)
	})

	t.Run("skips booked slots in order", func(t *testing.T) {
		s := &Schedule{
			AvailableSlots: slots,
			BookedSlots: []BookedSlot{
				{Start: "09:00", AppointmentID: uuid.New()},
				{Start: "10:00", AppointmentID: uuid.New()},
			},
		}
		free := s.FirstFreeSlot()
		assert.Equal(t, "14:00", free.Start)
	})

	t.Run("fully booked returns nil", func(t *testing.T) {
		s := &Schedule{
			AvailableSlots: slots[:1],
			BookedSlots:    []BookedSlot{{Start: "09:00"}},
		}
		assert.Nil(t, s.FirstFreeSlot())
	})

	t.Run("matches by slot id when present", func(t *testing.T) {
		s := &Schedule{
			AvailableSlots: []Slot{{SlotID: "a", Start: "09:00"}, {SlotID: "b", Start: "09:00"}},
			BookedSlots:    []BookedSlot{{SlotID: "a", Start: "09:00"}},
		}
		free := s.FirstFreeSlot()
		assert.Equal(t, "b", free.SlotID)
	})
}
