// Package wizard holds the session-scoped intake flow state: a tagged
// record keyed by the login session, not a loose bag of optional values.
package wizard

// Step is a stage of the intake wizard. The flow is strictly forward;
// submissions may overwrite their own step's data but never move the
// wizard backwards.
type Step int

const (
	StepStart Step = iota
	StepReasonCaptured
	StepAudioProcessed
	StepPainAssessed
	StepVisitConfirmed
	StepAppointmentConfirmed
)

// String returns the step name used in API responses.
func (s Step) String() string {
	switch s {
	case StepStart:
		return "start"
	case StepReasonCaptured:
		return "reason_captured"
	case StepAudioProcessed:
		return "audio_processed"
	case StepPainAssessed:
		return "pain_assessed"
	case StepVisitConfirmed:
		return "visit_confirmed"
	case StepAppointmentConfirmed:
		return "appointment_confirmed"
	default:
		return "unknown"
	}
}

// State is the server-authoritative wizard record for one session.
// CurrentVisitID is zero until audio/text processing creates a visit;
// pain and reason fields mirror what later steps write onto that visit.
type State struct {
	Step           Step     `json:"step"`
	VisitReason    string   `json:"visit_reason"`
	Symptoms       []string `json:"symptoms"`
	PainLevel      int      `json:"pain_level"`
	PainDuration   string   `json:"pain_duration"`
	CurrentVisitID uint     `json:"current_visit_id"`
}

// Advance moves the wizard to step if it is further along than the current
// one. Resubmitting an earlier or equal step keeps the furthest position.
func (s *State) Advance(step Step) {
	if step > s.Step {
		s.Step = step
	}
}
