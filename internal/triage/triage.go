// Package triage implements the five-question symptom questionnaire: a
// weighted scorer that classifies urgency, and a separate rule set that
// detects emergency cases. Both are deterministic and side-effect free;
// they share raw answers but are deliberately independent rule sets.
package triage

import "github.com/citamed/citamed/internal/domain/appointment"

const questionCount = 5

// Weights per question. All 1 for now, matching the calibrated thresholds
// below (score range 0-15).
var weights = [questionCount]int{1, 1, 1, 1, 1}

// Questions whose answer >= 2 raises the emergency flag. Only question 0
// (primary symptom, e.g. chest pain) triggers in the current rule set.
var emergencyQuestions = map[int]bool{0: true}

type Result struct {
	Score         int                      `json:"score"`
	Urgency       appointment.UrgencyLevel `json:"urgency"`
	EmergencyFlag bool                     `json:"emergencyFlag"`
}

// Assess scores a questionnaire. Answers are right-padded with zeros to
// five entries, extra entries are ignored, and out-of-range values are
// coerced to zero.
//
// Urgency precedence is intentional and pinned by tests: a raw score >= 9
// is labeled HIGH even when the emergency flag is set; the flag only
// upgrades lower-scoring questionnaires. Emergency routing is decided by
// DetectEmergency, not by this label.
func Assess(answers []int) Result {
	padded := normalize(answers)

	var res Result
	for i, a := range padded {
		res.Score += a * weights[i]
		if emergencyQuestions[i] && a >= 2 {
			res.EmergencyFlag = true
		}
	}

	// Thresholds: 0-4 LOW, 5-8 MID, 9-15 HIGH.
	switch {
	case res.Score >= 9:
		res.Urgency = appointment.UrgencyHigh
	case res.EmergencyFlag:
		res.Urgency = appointment.UrgencyEmergency
	case res.Score >= 5:
		res.Urgency = appointment.UrgencyMid
	default:
		res.Urgency = appointment.UrgencyLow
	}

	return res
}

func normalize(answers []int) [questionCount]int {
	var padded [questionCount]int
	for i := 0; i < questionCount && i < len(answers); i++ {
		if answers[i] >= 0 && answers[i] <= 3 {
			padded[i] = answers[i]
		}
	}
	return padded
}
