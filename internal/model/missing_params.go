package model

import "fmt"

// MissingParamsError reports an event summary whose index had no matching,
// non-empty parameter set in the params response.
type MissingParamsError struct {
	EventIndex string
}

func (e *MissingParamsError) Error() string {
	return fmt.Sprintf("no parameters found for event %s", e.EventIndex)
}
