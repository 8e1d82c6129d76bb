package planning

import "fmt"

// ErrPlanNotFound is returned when a plan does not exist
type ErrPlanNotFound struct {
	PlanID string
}

func (e *ErrPlanNotFound) Error() string {
	return fmt.Sprintf("crop plan not found: %s", e.PlanID)
}

// ErrInvalidPlanTransition is returned for out-of-order plan status changes
type ErrInvalidPlanTransition struct {
	PlanID string
	From   PlanStatus
	To     PlanStatus
}

func (e *ErrInvalidPlanTransition) Error() string {
	return fmt.Sprintf("crop plan %s cannot move from %s to %s", e.PlanID, e.From, e.To)
}

// ErrPlanLocked is returned when re-aggregating a plan that is no longer a draft
type ErrPlanLocked struct {
	PlanID string
	Status PlanStatus
}

func (e *ErrPlanLocked) Error() string {
	return fmt.Sprintf("crop plan %s is %s and cannot be recalculated", e.PlanID, e.Status)
}
