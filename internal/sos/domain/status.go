package domain

import "fmt"

type Status string

const (
	Submitted  Status = "submitted"
	Reviewed   Status = "reviewed"
	Assigned   Status = "assigned"
	InProgress Status = "in-progress"
	Completed  Status = "completed"
)

func CanTransition(from, to Status) bool {
	switch from {
	case Submitted:
		// Dispatchers may assign directly without a review step.
		return to == Reviewed || to == Assigned
	case Reviewed:
		return to == Assigned
	case Assigned:
		return to == InProgress
	case InProgress:
		return to == Completed
	case Completed:
		return false
	default:
		return false
	}
}

func ValidateTransition(from, to Status) error {
	if from == to {
		return nil
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid transition: %s -> %s", from, to)
	}
	return nil
}
