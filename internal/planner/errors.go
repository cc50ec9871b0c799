package planner

import "fmt"

// ErrorKind classifies a placement failure.
type ErrorKind string

const (
	// KindClosed means the venue is shut for the requested time.
	KindClosed ErrorKind = "closed"
	// KindMealWindow means a meal would start outside its allowed window.
	KindMealWindow ErrorKind = "meal_window"
	// KindInvalid covers malformed input such as a bad clock string.
	KindInvalid ErrorKind = "invalid"
)

// PlacementError reports why an activity could not be placed. Callers
// usually retry with the next ranked candidate.
type PlacementError struct {
	Kind   ErrorKind
	Reason string
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("placement failed (%s): %s", e.Kind, e.Reason)
}

func placementErr(kind ErrorKind, format string, args ...any) error {
	return &PlacementError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}
