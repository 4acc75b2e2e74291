package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/citamed/citamed/internal/domain/appointment"
	"github.com/citamed/citamed/internal/domain/escalation"
)

func TestDetectEmergency(t *testing.T) {
	tests := []struct {
		name     string
		answers  []int
		wantType escalation.Type
	}{
		{"chest pain", []int{3, 0, 0, 0, 0}, escalation.TypeChestPain},
		{"trauma with moderate symptoms", []int{0, 2, 0, 1, 0}, escalation.TypeTrauma},
		{"severe symptoms with breathing difficulty", []int{0, 3, 2, 0, 0}, escalation.TypeSevereSymptoms},
		{"loss of consciousness", []int{0, 0, 0, 0, 1}, escalation.TypeCriticalCondition},
		{"severe breathing distress", []int{0, 0, 3, 0, 0}, escalation.TypeCriticalCondition},
		{"short array padded", []int{3}, escalation.TypeChestPain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectEmergency(tt.answers)
			assert.True(t, got.IsEmergency)
			assert.Equal(t, tt.wantType, got.Type)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestDetectEmergencyNegativeCases(t *testing.T) {
	for _, answers := range [][]int{
		{},
		nil,
		{0, 0, 0, 0, 0},
		{1, 1, 1, 0, 0},
		{2, 1, 1, 0, 0}, // moderate chest pain alone is not an emergency here
		{0, 2, 0, 0, 0}, // moderate symptoms without trauma
		{0, 3, 1, 0, 0}, // severe symptoms but mild breathing difficulty
	} {
		got := DetectEmergency(answers)
		assert.False(t, got.IsEmergency, "answers %v", answers)
		assert.Empty(t, got.Type)
	}
}

// Chest pain outranks every other rule: an unconscious trauma patient with
// q0=3 is classified CHEST_PAIN because rules match in priority order.
func TestDetectEmergencyPriorityOrder(t *testing.T) {
	got := DetectEmergency([]int{3, 3, 3, 1, 1})
	assert.Equal(t, escalation.TypeChestPain, got.Type)
}

// The detector and the scorer disagree on purpose: q0=2 raises the scorer's
// emergency flag but is below the detector's chest-pain threshold.
func TestDetectorIndependentFromScorer(t *testing.T) {
	answers := []int{2, 0, 0, 0, 0}

	assert.False(t, DetectEmergency(answers).IsEmergency)
	assert.Equal(t, appointment.UrgencyEmergency, Assess(answers).Urgency)
}
