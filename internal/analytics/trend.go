package analytics

import (
	"math"
	"time"

	"github.com/kapu/youtube-channel-analyzer/internal/domain"
)

// WindowDays is the width of each trend window.
const WindowDays = 30

// Window is a half-open publish-time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// TrendWindows pairs the current 30-day window with the one right before it.
type TrendWindows struct {
	Today    time.Time
	Current  Window
	Previous Window
}

// NewTrendWindows anchors both windows to the UTC calendar day of now.
// Videos published today belong to neither window.
func NewTrendWindows(now time.Time) TrendWindows {
	u := now.UTC()
	today := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	currentStart := today.AddDate(0, 0, -WindowDays)
	previousStart := today.AddDate(0, 0, -2*WindowDays)

	return TrendWindows{
		Today:    today,
		Current:  Window{Start: currentStart, End: today},
		Previous: Window{Start: previousStart, End: currentStart},
	}
}

// Split partitions records into the current and previous windows, dropping the rest.
func (tw TrendWindows) Split(records []domain.VideoRecord) (current, previous []domain.VideoRecord) {
	for _, r := range records {
		switch {
		case tw.Current.Contains(r.PublishedAt):
			current = append(current, r)
		case tw.Previous.Contains(r.PublishedAt):
			previous = append(previous, r)
		}
	}
	return current, previous
}

// CalculateWindowStats aggregates the current window and compares its views against the previous one.
func CalculateWindowStats(current, previous []domain.VideoRecord) domain.WindowStats {
	stats := domain.WindowStats{
		VideosLast30dCount: int64(len(current)),
		AvgEngagementRate:  CalculateAverageEngagementRate(current),
	}

	var durationSum int64
	for _, r := range current {
		stats.ViewsSumLast30d += r.ViewCount
		durationSum += r.DurationSeconds
	}
	for _, r := range previous {
		stats.ViewsSumPrev30d += r.ViewCount
	}

	if stats.VideosLast30dCount > 0 {
		stats.AvgViewsPerVideo30d = roundedMean(stats.ViewsSumLast30d, stats.VideosLast30dCount)
		if durationSum > 0 {
			stats.AvgDurationSec30d = roundedMean(durationSum, stats.VideosLast30dCount)
		}
	}

	stats.ViewTrendRatio = CalculateTrendRatio(stats.ViewsSumLast30d, stats.ViewsSumPrev30d)
	return stats
}

// CalculateTrendRatio returns current/previous rounded to 2 decimals.
// With no previous views it returns +Inf if there are current views and nil otherwise.
func CalculateTrendRatio(currentSum, previousSum int64) *float64 {
	var ratio float64
	switch {
	case previousSum > 0:
		ratio = roundTo(float64(currentSum)/float64(previousSum), 2)
	case currentSum > 0:
		ratio = math.Inf(1)
	default:
		return nil
	}
	return &ratio
}
