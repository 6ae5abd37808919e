package analytics

import (
	"fmt"
	"math"
)

// NotAvailable is rendered for durations that cannot be shown.
const NotAvailable = "N/A"

// FormatDuration renders seconds as H:MM:SS. Fractional seconds are truncated;
// negative and NaN inputs yield "N/A".
func FormatDuration(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 || math.IsInf(seconds, 1) {
		return NotAvailable
	}

	total := int64(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
}

// FormatOptionalDuration is FormatDuration for values that may be absent.
func FormatOptionalDuration(seconds *int64) string {
	if seconds == nil {
		return NotAvailable
	}
	return FormatDuration(float64(*seconds))
}
