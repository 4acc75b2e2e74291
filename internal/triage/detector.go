package triage

import "github.com/citamed/citamed/internal/domain/escalation"

// Detection is the emergency detector's verdict. Type and Reason are set
// only when IsEmergency is true.
type Detection struct {
	IsEmergency bool            `json:"isEmergency"`
	Type        escalation.Type `json:"escalationType,omitempty"`
	Reason      string          `json:"reason,omitempty"`
}

// DetectEmergency evaluates the escalation rule set over the raw answers.
// Positional semantics:
//
//	q0 primary symptom severity (0-3)
//	q1 overall symptom severity (0-3)
//	q2 breathing difficulty (0-3)
//	q3 recent trauma flag (0/1)
//	q4 loss of consciousness flag (0/1)
//
// Rules are evaluated in priority order, first match wins. An empty
// questionnaire is never an emergency; short questionnaires are padded
// with zeros.
func DetectEmergency(answers []int) Detection {
	if len(answers) == 0 {
		return Detection{}
	}

	padded := normalize(answers)
	q0, q1, q2, q3, q4 := padded[0], padded[1], padded[2], padded[3], padded[4]

	switch {
	case q0 == 3:
		return Detection{
			IsEmergency: true,
			Type:        escalation.TypeChestPain,
			Reason:      "Dolor torácico severo - riesgo cardíaco potencial",
		}
	case q3 == 1 && q1 >= 2:
		return Detection{
			IsEmergency: true,
			Type:        escalation.TypeTrauma,
			Reason:      "Traumatismo reciente con síntomas moderados o severos",
		}
	case q1 == 3 && q2 >= 2:
		return Detection{
			IsEmergency: true,
			Type:        escalation.TypeSevereSymptoms,
			Reason:      "Síntomas severos con dificultad respiratoria",
		}
	case q4 == 1 || q2 == 3:
		return Detection{
			IsEmergency: true,
			Type:        escalation.TypeCriticalCondition,
			Reason:      "Condición crítica - pérdida de conciencia o distress respiratorio severo",
		}
	}

	return Detection{}
}
