package stage

import (
	"fmt"
	"sort"
)

// Registry is the ordered catalog of active growth stages.
//
// Invariants:
//   - only active stages participate in ordering
//   - sort orders and codes are unique
//   - harvested is registered, active, and sorts last
//
// A Registry is read-only after construction and safe for concurrent use.
type Registry struct {
	ordered []*Stage
	byCode  map[Code]int
	byID    map[int]int
}

// NewRegistry builds a registry from catalog entries. Inactive entries are ignored.
// Any violation of the invariants is a configuration error and is returned immediately.
func NewRegistry(stages []*Stage) (*Registry, error) {
	active := make([]*Stage, 0, len(stages))
	for _, s := range stages {
		if s == nil || !s.IsActive() {
			continue
		}
		active = append(active, s)
	}
	if len(active) < 2 {
		return nil, fmt.Errorf("stage registry needs at least two active stages, got %d", len(active))
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].SortOrder() < active[j].SortOrder()
	})

	r := &Registry{
		ordered: active,
		byCode:  make(map[Code]int, len(active)),
		byID:    make(map[int]int, len(active)),
	}
	for i, s := range active {
		if i > 0 && active[i-1].SortOrder() == s.SortOrder() {
			return nil, fmt.Errorf("stages %s and %s share sort order %d", active[i-1].Code(), s.Code(), s.SortOrder())
		}
		if _, dup := r.byCode[s.Code()]; dup {
			return nil, fmt.Errorf("duplicate stage code: %s", s.Code())
		}
		if _, dup := r.byID[s.ID()]; dup {
			return nil, fmt.Errorf("duplicate stage id: %d", s.ID())
		}
		r.byCode[s.Code()] = i
		r.byID[s.ID()] = i
	}

	last := active[len(active)-1]
	if !last.IsTerminal() {
		return nil, fmt.Errorf("terminal stage %s must sort last, found %s", CodeHarvested, last.Code())
	}

	return r, nil
}

// MustNewRegistry builds a registry, panicking on invalid catalogs (tests and seeds only)
func MustNewRegistry(stages []*Stage) *Registry {
	r, err := NewRegistry(stages)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultStages returns the default microgreens catalog
func DefaultStages() []*Stage {
	names := map[Code]string{
		CodeSoaking:     "Soaking",
		CodeGermination: "Germination",
		CodeBlackout:    "Blackout",
		CodeLight:       "Light",
		CodeHarvested:   "Harvested",
	}
	stages := make([]*Stage, 0, len(names))
	for i, code := range CanonicalCodes() {
		s, _ := NewStage(i+1, code, names[code], i+1, true)
		stages = append(stages, s)
	}
	return stages
}

// OrderOf returns the zero-based position of the stage in the growth order
func (r *Registry) OrderOf(code Code) (int, error) {
	idx, ok := r.byCode[code]
	if !ok {
		return 0, &ErrUnknownStage{Code: string(code)}
	}
	return idx, nil
}

// ByCode returns the stage with the given code
func (r *Registry) ByCode(code Code) (*Stage, error) {
	idx, ok := r.byCode[code]
	if !ok {
		return nil, &ErrUnknownStage{Code: string(code)}
	}
	return r.ordered[idx], nil
}

// ByID returns the stage with the given database ID
func (r *Registry) ByID(id int) (*Stage, error) {
	idx, ok := r.byID[id]
	if !ok {
		return nil, &ErrUnknownStage{Code: fmt.Sprintf("id=%d", id)}
	}
	return r.ordered[idx], nil
}

// Next returns the immediate successor, or nil for the terminal stage
func (r *Registry) Next(code Code) (*Stage, error) {
	idx, err := r.OrderOf(code)
	if err != nil {
		return nil, err
	}
	if idx+1 >= len(r.ordered) {
		return nil, nil
	}
	return r.ordered[idx+1], nil
}

// Previous returns the immediate predecessor, or nil for the first stage
func (r *Registry) Previous(code Code) (*Stage, error) {
	idx, err := r.OrderOf(code)
	if err != nil {
		return nil, err
	}
	if idx == 0 {
		return nil, nil
	}
	return r.ordered[idx-1], nil
}

// First returns the earliest stage
func (r *Registry) First() *Stage {
	return r.ordered[0]
}

// Terminal returns the harvested stage
func (r *Registry) Terminal() *Stage {
	return r.ordered[len(r.ordered)-1]
}

// IsFinalPreHarvest reports whether the stage's successor is the terminal stage
func (r *Registry) IsFinalPreHarvest(code Code) bool {
	idx, ok := r.byCode[code]
	return ok && idx == len(r.ordered)-2
}

// Compare orders two stage codes: negative when a precedes b, zero when equal
func (r *Registry) Compare(a, b Code) (int, error) {
	ia, err := r.OrderOf(a)
	if err != nil {
		return 0, err
	}
	ib, err := r.OrderOf(b)
	if err != nil {
		return 0, err
	}
	return ia - ib, nil
}

// InitialFor returns the stage a new crop starts in: soaking when the recipe soaks
// seed and soaking is active, otherwise the first stage after soaking.
func (r *Registry) InitialFor(requiresSoaking bool) *Stage {
	first := r.ordered[0]
	if first.Code() == CodeSoaking && !requiresSoaking {
		return r.ordered[1]
	}
	return first
}

// All returns the active stages in growth order
func (r *Registry) All() []*Stage {
	out := make([]*Stage, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Len returns the number of active stages
func (r *Registry) Len() int {
	return len(r.ordered)
}
