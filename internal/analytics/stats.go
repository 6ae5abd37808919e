// Package analytics turns stored channel and video records into comparable metrics.
// Every function here is pure: no I/O, no shared state, inputs are never mutated.
package analytics

import (
	"math"

	"github.com/kapu/youtube-channel-analyzer/internal/domain"
)

// CalculateBasicStats computes count and avg/max/min of views, likes and duration.
// It returns nil for an empty input, which callers must not read as zero-valued stats.
func CalculateBasicStats(triples []domain.VideoStatTriple) *domain.BasicStats {
	if len(triples) == 0 {
		return nil
	}

	first := triples[0]
	stats := &domain.BasicStats{
		Count:          len(triples),
		MaxViews:       first.Views,
		MinViews:       first.Views,
		MaxLikes:       first.Likes,
		MinLikes:       first.Likes,
		MaxDurationSec: first.DurationSeconds,
		MinDurationSec: first.DurationSeconds,
	}

	var viewsSum, likesSum, durationSum int64
	for _, t := range triples {
		viewsSum += t.Views
		likesSum += t.Likes
		durationSum += t.DurationSeconds

		stats.MaxViews = max(stats.MaxViews, t.Views)
		stats.MinViews = min(stats.MinViews, t.Views)
		stats.MaxLikes = max(stats.MaxLikes, t.Likes)
		stats.MinLikes = min(stats.MinLikes, t.Likes)
		stats.MaxDurationSec = max(stats.MaxDurationSec, t.DurationSeconds)
		stats.MinDurationSec = min(stats.MinDurationSec, t.DurationSeconds)
	}

	stats.AvgViews = roundedMean(viewsSum, int64(stats.Count))
	stats.AvgLikes = roundedMean(likesSum, int64(stats.Count))
	stats.AvgDurationSec = roundedMean(durationSum, int64(stats.Count))

	stats.AvgDurationStr = FormatDuration(float64(stats.AvgDurationSec))
	stats.MaxDurationStr = FormatDuration(float64(stats.MaxDurationSec))
	stats.MinDurationStr = FormatDuration(float64(stats.MinDurationSec))

	return stats
}

// roundedMean returns sum/count rounded half to even; 0 when count is 0.
func roundedMean(sum, count int64) int64 {
	if count <= 0 {
		return 0
	}
	return int64(math.RoundToEven(float64(sum) / float64(count)))
}

// roundTo rounds half to even at the given number of decimal places.
func roundTo(value float64, places int) float64 {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return value
	}
	scale := math.Pow(10, float64(places))
	return math.RoundToEven(value*scale) / scale
}
