package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/citamed/citamed/internal/domain/appointment"
)

func TestAssess(t *testing.T) {
	tests := []struct {
		name      string
		answers   []int
		wantScore int
		wantLevel appointment.UrgencyLevel
		wantFlag  bool
	}{
		{"all zeros", []int{0, 0, 0, 0, 0}, 0, appointment.UrgencyLow, false},
		{"low", []int{1, 0, 0, 0, 0}, 1, appointment.UrgencyLow, false},
		{"mid threshold", []int{1, 1, 1, 1, 1}, 5, appointment.UrgencyMid, false},
		{"just under mid", []int{1, 1, 1, 1, 0}, 4, appointment.UrgencyLow, false},
		{"high threshold", []int{3, 3, 1, 1, 1}, 9, appointment.UrgencyHigh, true},
		{"max score", []int{3, 3, 3, 3, 3}, 15, appointment.UrgencyHigh, true},
		{"emergency flag low score", []int{2, 0, 0, 0, 0}, 2, appointment.UrgencyEmergency, true},
		{"emergency flag mid score", []int{2, 1, 1, 1, 1}, 6, appointment.UrgencyEmergency, true},
		{"short input padded", []int{2}, 2, appointment.UrgencyEmergency, true},
		{"empty input", []int{}, 0, appointment.UrgencyLow, false},
		{"nil input", nil, 0, appointment.UrgencyLow, false},
		{"extra entries ignored", []int{1, 1, 1, 1, 1, 3, 3}, 5, appointment.UrgencyMid, false},
		{"out of range coerced to zero", []int{7, -1, 2, 0, 0}, 2, appointment.UrgencyLow, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assess(tt.answers)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantLevel, got.Urgency)
			assert.Equal(t, tt.wantFlag, got.EmergencyFlag)
		})
	}
}

// A score of 9+ is labeled HIGH even when question 0 raised the emergency
// flag. The label only drives the scheduling window; emergency routing is
// DetectEmergency's job. Pinned so a refactor cannot silently reorder the
// precedence.
func TestAssessHighScoreBeatsEmergencyFlag(t *testing.T) {
	got := Assess([]int{3, 3, 1, 1, 1})

	assert.True(t, got.EmergencyFlag)
	assert.Equal(t, 9, got.Score)
	assert.Equal(t, appointment.UrgencyHigh, got.Urgency)
}

func TestAssessScoreIsSumOfAnswers(t *testing.T) {
	for _, answers := range [][]int{
		{0, 1, 2, 3, 0},
		{3, 0, 0, 0, 3},
		{1, 2, 3, 1, 2},
	} {
		sum := 0
		for _, a := range answers {
			sum += a
		}
		assert.Equal(t, sum, Assess(answers).Score)
	}
}
