package stage

import "fmt"

// ErrUnknownStage indicates a stage code or ID that is not in the registry.
// This is a programmer error: callers must reject it before mutating anything.
type ErrUnknownStage struct {
	Code string
}

func (e *ErrUnknownStage) Error() string {
	return fmt.Sprintf("unknown stage: %s", e.Code)
}
