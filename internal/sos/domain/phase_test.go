package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionPhase(t *testing.T) {
	allowed := map[Phase][]Phase{
		Idle:             {Arming},
		Arming:           {Idle, PhaseSubmitted},
		PhaseSubmitted:   {EvidenceAttached, Idle},
		EvidenceAttached: {Idle},
	}
	all := []Phase{Idle, Arming, PhaseSubmitted, EvidenceAttached}

	for from, tos := range allowed {
		ok := make(map[Phase]bool, len(tos))
		for _, to := range tos {
			ok[to] = true
		}
		for _, to := range all {
			assert.Equal(t, ok[to], CanTransitionPhase(from, to), "%s -> %s", from, to)
		}
	}
}

func TestValidatePhaseTransition(t *testing.T) {
	assert.NoError(t, ValidatePhaseTransition(Arming, PhaseSubmitted))

	err := ValidatePhaseTransition(Idle, EvidenceAttached)
	assert.ErrorContains(t, err, "invalid phase transition")
}
