package lifecycle

import "fmt"

// ErrLockTimeout is returned when a transition could not acquire its batch
// locks in time. The call is not started and nothing is written.
type ErrLockTimeout struct {
	Keys []string
}

func (e *ErrLockTimeout) Error() string {
	return fmt.Sprintf("timed out acquiring transition locks %v", e.Keys)
}

// ErrEmptyCropSet is returned when a call names no crops
type ErrEmptyCropSet struct{}

func (e *ErrEmptyCropSet) Error() string {
	return "transition requires at least one crop"
}
