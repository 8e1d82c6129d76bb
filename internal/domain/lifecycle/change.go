package lifecycle

import (
	"time"

	"github.com/andrescamacho/microgreens-go/internal/domain/crop"
	"github.com/andrescamacho/microgreens-go/internal/domain/scheduling"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// StageChange is everything one crop's transition writes. The store applies it
// atomically and only if the crop is still at ExpectedVersion.
type StageChange struct {
	Crop            *crop.Crop
	ExpectedVersion int
	From            stage.Code
	To              stage.Code

	// CloseOpenHistoryAt closes the crop's open history row
	CloseOpenHistoryAt time.Time
	OpenHistory        *crop.HistoryEntry

	// DismissStage names the exited stage whose pending tasks are dismissed
	DismissStage  stage.Code
	DismissAt     time.Time
	DismissReason string

	NewTasks []*scheduling.CropTask
}
