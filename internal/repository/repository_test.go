package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// The driver surfaces constraint failures as text, in this shape:
//
//	ERROR: duplicate key value violates unique constraint "<name>" (SQLSTATE 23505)
func pgUniqueViolation(constraint string) error {
	return fmt.Errorf("ERROR: duplicate key value violates unique constraint %q (SQLSTATE 23505)", constraint)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(pgUniqueViolation("users_email_key")))
	assert.False(t, isUniqueViolation(errors.New("ERROR: deadlock detected (SQLSTATE 40P01)")))
	assert.False(t, isUniqueViolation(nil))
}

func TestViolatesIndexDistinguishesConstraints(t *testing.T) {
	slotErr := pgUniqueViolation("ux_appointments_doctor_slot")
	refErr := pgUniqueViolation("ux_appointments_reference")

	// A concurrent double-booking and a reference collision are both
	// 23505, but only one of them may surface as a slot conflict.
	assert.True(t, violatesIndex(slotErr, "ux_appointments_doctor_slot"))
	assert.False(t, violatesIndex(refErr, "ux_appointments_doctor_slot"))

	assert.True(t, violatesIndex(refErr, "ux_appointments_reference"))
	assert.False(t, violatesIndex(slotErr, "ux_appointments_reference"))

	assert.False(t, violatesIndex(errors.New("context canceled"), "ux_appointments_doctor_slot"))
}
