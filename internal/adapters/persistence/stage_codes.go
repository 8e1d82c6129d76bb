package persistence

import (
	"fmt"

	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// StageCodes maps stage row IDs to codes for every catalog entry, including
// deactivated ones, so rows that still reference them remain readable
type StageCodes struct {
	byID   map[int]stage.Code
	byCode map[stage.Code]int
}

// NewStageCodes indexes a stage catalog
func NewStageCodes(stages []*stage.Stage) *StageCodes {
	c := &StageCodes{
		byID:   make(map[int]stage.Code, len(stages)),
		byCode: make(map[stage.Code]int, len(stages)),
	}
	for _, s := range stages {
		c.byID[s.ID()] = s.Code()
		c.byCode[s.Code()] = s.ID()
	}
	return c
}

// CodeOf returns the code of a stage row
func (c *StageCodes) CodeOf(id int) (stage.Code, error) {
	code, ok := c.byID[id]
	if !ok {
		return "", &stage.ErrUnknownStage{Code: fmt.Sprintf("id=%d", id)}
	}
	return code, nil
}

// IDOf returns the row ID of a stage code
func (c *StageCodes) IDOf(code stage.Code) (int, error) {
	id, ok := c.byCode[code]
	if !ok {
		return 0, &stage.ErrUnknownStage{Code: string(code)}
	}
	return id, nil
}

func (c *StageCodes) optionalID(code *stage.Code) (*int, error) {
	if code == nil {
		return nil, nil
	}
	id, err := c.IDOf(*code)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (c *StageCodes) optionalCode(id *int) (*stage.Code, error) {
	if id == nil {
		return nil, nil
	}
	code, err := c.CodeOf(*id)
	if err != nil {
		return nil, err
	}
	return &code, nil
}
