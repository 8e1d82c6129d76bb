package timing

import (
	"time"

	"github.com/andrescamacho/microgreens-go/internal/domain/recipe"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// Member is one crop of a batch as seen by the batch view
type Member struct {
	CropID     string
	Stage      stage.Code
	Timestamps stage.Timestamps
}

// BatchPhase is the representative timing of a batch
type BatchPhase struct {
	Stage      stage.Code       `json:"stage"`
	Timestamps stage.Timestamps `json:"-"`
	Phase      Phase            `json:"phase"`
}

// CalculateBatch derives batch timing from the least-advanced crop's stage and
// the earliest per-crop timestamps, so the batch reflects its slowest tray.
func CalculateBatch(reg *stage.Registry, members []Member, params recipe.Parameters, now time.Time) (BatchPhase, error) {
	if len(members) == 0 {
		return BatchPhase{}, nil
	}

	rep := members[0].Stage
	all := make([]stage.Timestamps, 0, len(members))
	for _, m := range members {
		cmp, err := reg.Compare(m.Stage, rep)
		if err != nil {
			return BatchPhase{}, err
		}
		if cmp < 0 {
			rep = m.Stage
		}
		all = append(all, m.Timestamps)
	}

	merged := stage.MinTimestamps(all...)
	return BatchPhase{
		Stage:      rep,
		Timestamps: merged,
		Phase: Calculate(Input{
			Stage:      rep,
			Timestamps: merged,
			Recipe:     params,
			Now:        now,
		}),
	}, nil
}
