package domain

import "fmt"

// Phase is the state of one SOS activation. One activation runs
// Idle -> Arming -> Submitted -> EvidenceAttached; cancellation during
// Arming returns to Idle, and a new activation resets whatever phase the
// previous one ended in.
type Phase string

const (
	Idle             Phase = "idle"
	Arming           Phase = "arming"
	PhaseSubmitted   Phase = "submitted"
	EvidenceAttached Phase = "evidence-attached"
)

func CanTransitionPhase(from, to Phase) bool {
	switch from {
	case Idle:
		return to == Arming
	case Arming:
		return to == Idle || to == PhaseSubmitted
	case PhaseSubmitted:
		return to == EvidenceAttached || to == Idle
	case EvidenceAttached:
		return to == Idle
	default:
		return false
	}
}

func ValidatePhaseTransition(from, to Phase) error {
	if !CanTransitionPhase(from, to) {
		return fmt.Errorf("invalid phase transition: %s -> %s", from, to)
	}
	return nil
}
