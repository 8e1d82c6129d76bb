package shared

import "strings"

// SystemActor is recorded when a change is made by the daemon itself (sweeps, reconciliation)
const SystemActor = "system"

// Actor identifies who performed an operation (user ID or "system")
type Actor struct {
	value string
}

// NewActor creates an Actor, falling back to SystemActor for blank input
func NewActor(id string) Actor {
	id = strings.TrimSpace(id)
	if id == "" {
		id = SystemActor
	}
	return Actor{value: id}
}

// Value returns the raw actor identifier
func (a Actor) Value() string {
	return a.value
}

// String returns a string representation of the Actor
func (a Actor) String() string {
	return a.value
}

// IsSystem reports whether the operation was performed by the daemon itself
func (a Actor) IsSystem() bool {
	return a.value == "" || a.value == SystemActor
}

// UserID returns the actor as an optional user reference (nil for system actions)
func (a Actor) UserID() *string {
	if a.IsSystem() {
		return nil
	}
	v := a.value
	return &v
}
