package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := map[Status][]Status{
		Submitted:  {Reviewed, Assigned},
		Reviewed:   {Assigned},
		Assigned:   {InProgress},
		InProgress: {Completed},
		Completed:  {},
	}
	all := []Status{Submitted, Reviewed, Assigned, InProgress, Completed}

	for from, tos := range allowed {
		ok := make(map[Status]bool, len(tos))
		for _, to := range tos {
			ok[to] = true
		}
		for _, to := range all {
			assert.Equal(t, ok[to], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransition_UnknownStatus(t *testing.T) {
	assert.False(t, CanTransition("archived", Submitted))
	assert.False(t, CanTransition(Submitted, "archived"))
}

func TestValidateTransition(t *testing.T) {
	assert.NoError(t, ValidateTransition(Submitted, Assigned))

	// переход в тот же статус всегда разрешён
	assert.NoError(t, ValidateTransition(Completed, Completed))

	err := ValidateTransition(Completed, Submitted)
	assert.ErrorContains(t, err, "invalid transition")
}
