package appointment

import "errors"

var (
	ErrNotFound       = errors.New("appointment not found")
	ErrSlotTaken      = errors.New("slot already booked for this doctor and time")
	ErrNoAvailability = errors.New("no available slot within the requested window")
	ErrNotBooked      = errors.New("appointment is not in BOOKED status")
)
