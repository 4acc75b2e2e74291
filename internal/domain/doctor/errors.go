package doctor

import "errors"

var (
	ErrNotFound         = errors.New("doctor not found")
	ErrScheduleNotFound = errors.New("no schedule for this doctor and date")
)
