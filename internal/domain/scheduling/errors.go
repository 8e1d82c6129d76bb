package scheduling

import "fmt"

// ErrTaskNotFound is returned when a referenced task does not exist
type ErrTaskNotFound struct {
	TaskID string
}

func (e *ErrTaskNotFound) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

// ErrInvalidTaskTransition is returned when a task leaves a terminal status
type ErrInvalidTaskTransition struct {
	TaskID string
	From   TaskStatus
	To     TaskStatus
}

func (e *ErrInvalidTaskTransition) Error() string {
	return fmt.Sprintf("task %s cannot move from %s to %s", e.TaskID, e.From, e.To)
}
