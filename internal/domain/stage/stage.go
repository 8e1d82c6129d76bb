package stage

import "fmt"

// Code is the stable identifier of a growth stage
type Code string

// Canonical stage codes. Every registered stage must use one of these codes
// because crops store one entry timestamp per canonical code.
const (
	CodeSoaking     Code = "soaking"
	CodeGermination Code = "germination"
	CodeBlackout    Code = "blackout"
	CodeLight       Code = "light"
	CodeHarvested   Code = "harvested"
)

// CanonicalCodes returns the canonical codes in their default growth order
func CanonicalCodes() []Code {
	return []Code{
		CodeSoaking,
		CodeGermination,
		CodeBlackout,
		CodeLight,
		CodeHarvested,
	}
}

// String returns the string representation of the Code
func (c Code) String() string {
	return string(c)
}

// IsCanonical checks if the code maps to a crop timestamp slot
func (c Code) IsCanonical() bool {
	switch c {
	case CodeSoaking, CodeGermination, CodeBlackout, CodeLight, CodeHarvested:
		return true
	default:
		return false
	}
}

// ParseCode parses a string into a canonical Code
func ParseCode(s string) (Code, error) {
	c := Code(s)
	if !c.IsCanonical() {
		return "", fmt.Errorf("invalid stage code: %s", s)
	}
	return c, nil
}

// Stage is an entry of the stage catalog.
// Stages are immutable once referenced by history, so the type exposes getters only.
type Stage struct {
	id        int
	code      Code
	name      string
	sortOrder int
	isActive  bool
}

// NewStage creates a stage catalog entry
func NewStage(id int, code Code, name string, sortOrder int, isActive bool) (*Stage, error) {
	if id <= 0 {
		return nil, fmt.Errorf("stage id must be positive")
	}
	if !code.IsCanonical() {
		return nil, fmt.Errorf("invalid stage code: %s", code)
	}
	if name == "" {
		name = string(code)
	}
	return &Stage{
		id:        id,
		code:      code,
		name:      name,
		sortOrder: sortOrder,
		isActive:  isActive,
	}, nil
}

func (s *Stage) ID() int        { return s.id }
func (s *Stage) Code() Code     { return s.code }
func (s *Stage) Name() string   { return s.name }
func (s *Stage) SortOrder() int { return s.sortOrder }
func (s *Stage) IsActive() bool { return s.isActive }

// IsTerminal reports whether this is the harvested stage
func (s *Stage) IsTerminal() bool {
	return s.code == CodeHarvested
}

func (s *Stage) String() string {
	return fmt.Sprintf("Stage[%d, %s, order=%d]", s.id, s.code, s.sortOrder)
}
