package timing

import "fmt"

const (
	DisplayReadyToAdvance = "Ready to advance"
	DisplayHarvested      = "Harvested"
	DisplayUnknown        = "Unknown"
)

// FormatMinutes renders a duration in minutes as "{d}d {h}h", "{h}h {m}m" or "{m}m".
// Days are used once the whole-hour count reaches 24, hours once it reaches 1.
// Negative values render as zero.
func FormatMinutes(minutes int64) string {
	if minutes < 0 {
		minutes = 0
	}

	hours := minutes / 60
	switch {
	case hours >= 24:
		return fmt.Sprintf("%dd %dh", hours/24, hours%24)
	case hours >= 1:
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// FormatCountdown renders time-to-next-stage, never showing a negative countdown
func FormatCountdown(minutes int64) string {
	if minutes <= 0 {
		return DisplayReadyToAdvance
	}
	return FormatMinutes(minutes)
}
