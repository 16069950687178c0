package scenario

import "fmt"

// InfraError is a failure to reach or talk to the device.
type InfraError struct {
	Op     string // "connect", "read", "edit"
	Device string
	Err    error
}

func (e *InfraError) Error() string {
	if e.Device != "" {
		return fmt.Sprintf("scenario: %s %s: %v", e.Op, e.Device, e.Err)
	}
	return fmt.Sprintf("scenario: %s: %v", e.Op, e.Err)
}

func (e *InfraError) Unwrap() error {
	return e.Err
}

// StepError is a step that could not run to completion.
type StepError struct {
	Step   string
	Action StepAction
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("scenario: step %s (%s): %v", e.Step, e.Action, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
