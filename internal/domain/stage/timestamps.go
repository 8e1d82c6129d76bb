package stage

import "time"

// Timestamps holds one entry timestamp per canonical stage slot
type Timestamps struct {
	Soaking     *time.Time `json:"soaking_at,omitempty"`
	Germination *time.Time `json:"germination_at,omitempty"`
	Blackout    *time.Time `json:"blackout_at,omitempty"`
	Light       *time.Time `json:"light_at,omitempty"`
	Harvested   *time.Time `json:"harvested_at,omitempty"`
}

// Get returns the entry timestamp recorded for a stage (nil when unset)
func (t Timestamps) Get(code Code) *time.Time {
	switch code {
	case CodeSoaking:
		return t.Soaking
	case CodeGermination:
		return t.Germination
	case CodeBlackout:
		return t.Blackout
	case CodeLight:
		return t.Light
	case CodeHarvested:
		return t.Harvested
	default:
		return nil
	}
}

// With returns a copy with the slot for code set to at (nil clears it)
func (t Timestamps) With(code Code, at *time.Time) Timestamps {
	var v *time.Time
	if at != nil {
		c := *at
		v = &c
	}
	switch code {
	case CodeSoaking:
		t.Soaking = v
	case CodeGermination:
		t.Germination = v
	case CodeBlackout:
		t.Blackout = v
	case CodeLight:
		t.Light = v
	case CodeHarvested:
		t.Harvested = v
	}
	return t
}

// Earliest returns the earliest growing-stage timestamp (soaking through light).
// The harvested slot is not a growth start and is ignored.
func (t Timestamps) Earliest() *time.Time {
	var earliest *time.Time
	for _, ts := range []*time.Time{t.Soaking, t.Germination, t.Blackout, t.Light} {
		if ts == nil {
			continue
		}
		if earliest == nil || ts.Before(*earliest) {
			earliest = ts
		}
	}
	return earliest
}

// MinTimestamps merges per-crop timestamps slot by slot, keeping the earliest value.
// Batch views use the result as the batch's representative timestamps.
func MinTimestamps(all ...Timestamps) Timestamps {
	var out Timestamps
	for _, ts := range all {
		for _, code := range CanonicalCodes() {
			v := ts.Get(code)
			if v == nil {
				continue
			}
			cur := out.Get(code)
			if cur == nil || v.Before(*cur) {
				out = out.With(code, v)
			}
		}
	}
	return out
}
