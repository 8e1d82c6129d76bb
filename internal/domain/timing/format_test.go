package timing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/microgreens-go/internal/domain/timing"
)

func TestFormatMinutes(t *testing.T) {
	cases := map[int64]string{
		0:            "0m",
		59:           "59m",
		60:           "1h 0m",
		61:           "1h 1m",
		23*60 + 59:   "23h 59m",
		24 * 60:      "1d 0h",
		26*60 + 45:   "1d 2h",
		3*24*60 + 61: "3d 1h",
		-15:          "0m",
	}
	for minutes, want := range cases {
		assert.Equal(t, want, timing.FormatMinutes(minutes), "minutes=%d", minutes)
	}
}

func TestFormatCountdown(t *testing.T) {
	assert.Equal(t, timing.DisplayReadyToAdvance, timing.FormatCountdown(0))
	assert.Equal(t, timing.DisplayReadyToAdvance, timing.FormatCountdown(-600))
	assert.Equal(t, "5m", timing.FormatCountdown(5))
}
