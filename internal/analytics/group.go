package analytics

import (
	"math"

	"github.com/kapu/youtube-channel-analyzer/internal/domain"
)

// GroupAggregate summarises one metric across every channel in a run.
type GroupAggregate struct {
	Metric string   `json:"metric"`
	Min    *float64 `json:"min"`
	Avg    *float64 `json:"avg"`
	Max    *float64 `json:"max"`
	Count  int      `json:"count"`
}

var defaultGroupMetrics = []string{
	domain.MetricSubscriberCount,
	domain.MetricObservedVideosCount,
	domain.MetricAvgViews,
	domain.MetricAvgLikes,
	domain.MetricAvgDurationSec,
	domain.MetricAvgDurationSec30d,
	domain.MetricAvgViewsPerVideo30d,
	domain.MetricVideosLast30dCount,
	domain.MetricAvgEngagementRate,
	domain.MetricViewsSumLast30d,
	domain.MetricViewTrendRatio,
}

// DefaultGroupMetrics returns the metrics summarised in the report footer.
func DefaultGroupMetrics() []string {
	out := make([]string, len(defaultGroupMetrics))
	copy(out, defaultGroupMetrics)
	return out
}

// CalculateGroupAggregates computes min/avg/max/count per metric.
// Missing, invalid and infinite values are skipped; a metric with nothing
// left reports a zero count and nil bounds.
func CalculateGroupAggregates(results []domain.ChannelResult, metrics []string) []GroupAggregate {
	if metrics == nil {
		metrics = defaultGroupMetrics
	}

	out := make([]GroupAggregate, 0, len(metrics))
	for _, metric := range metrics {
		agg := GroupAggregate{Metric: metric}
		var sum, lo, hi float64

		for i := range results {
			v := Coerce(results[i].Field(metric))
			f := v.Float64()
			if v.Kind() != KindNumber || math.IsInf(f, -1) {
				continue
			}
			if agg.Count == 0 {
				lo, hi = f, f
			}
			lo = min(lo, f)
			hi = max(hi, f)
			sum += f
			agg.Count++
		}

		if agg.Count > 0 {
			avg := sum / float64(agg.Count)
			agg.Min, agg.Avg, agg.Max = &lo, &avg, &hi
		}
		out = append(out, agg)
	}
	return out
}
