package recipe

import "fmt"

// ErrSeedLotDepleted blocks batch creation against a recipe whose seed lot is empty
type ErrSeedLotDepleted struct {
	RecipeID string
}

func (e *ErrSeedLotDepleted) Error() string {
	return fmt.Sprintf("seed lot depleted for recipe %s", e.RecipeID)
}

// ErrParameterMissing indicates that a duration needed for a calculation is absent
type ErrParameterMissing struct {
	RecipeID  string
	Parameter string
}

func (e *ErrParameterMissing) Error() string {
	return fmt.Sprintf("recipe %s is missing %s", e.RecipeID, e.Parameter)
}

// ErrRecipeNotFound is returned when a recipe reference does not resolve
type ErrRecipeNotFound struct {
	RecipeID string
}

func (e *ErrRecipeNotFound) Error() string {
	return fmt.Sprintf("recipe not found: %s", e.RecipeID)
}
