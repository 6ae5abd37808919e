package analytics

import (
	"fmt"
	"sort"

	"github.com/kapu/youtube-channel-analyzer/internal/domain"
	"go.uber.org/zap"
)

// SortDirection says which end of a metric is "better".
type SortDirection int

const (
	// Descending ranks the highest value first.
	Descending SortDirection = iota
	// Ascending ranks the lowest value first.
	Ascending
)

func (d SortDirection) String() string {
	if d == Ascending {
		return "ascending"
	}
	return "descending"
}

// RankedMetric is one entry of the ranking table.
type RankedMetric struct {
	Name      string
	Direction SortDirection
}

var defaultRankedMetrics = []RankedMetric{
	{Name: domain.MetricSubscriberCount, Direction: Descending},
	{Name: domain.MetricObservedVideosCount, Direction: Descending},
	{Name: domain.MetricAvgViews, Direction: Descending},
	{Name: domain.MetricMaxViews, Direction: Descending},
	{Name: domain.MetricMinViews, Direction: Descending},
	{Name: domain.MetricAvgLikes, Direction: Descending},
	{Name: domain.MetricMaxLikes, Direction: Descending},
	{Name: domain.MetricMinLikes, Direction: Descending},
	{Name: domain.MetricAvgDurationSec, Direction: Descending},
	{Name: domain.MetricMaxDurationSec, Direction: Descending},
	// a shorter minimum video length counts as better
	{Name: domain.MetricMinDurationSec, Direction: Ascending},
	{Name: domain.MetricAvgDurationSec30d, Direction: Descending},
	{Name: domain.MetricAvgViewsPerVideo30d, Direction: Descending},
	{Name: domain.MetricVideosLast30dCount, Direction: Descending},
	{Name: domain.MetricAvgEngagementRate, Direction: Descending},
	{Name: domain.MetricViewsSumLast30d, Direction: Descending},
	{Name: domain.MetricViewTrendRatio, Direction: Descending},
}

// DefaultRankedMetrics returns a copy of the standard ranking table.
func DefaultRankedMetrics() []RankedMetric {
	out := make([]RankedMetric, len(defaultRankedMetrics))
	copy(out, defaultRankedMetrics)
	return out
}

// RankedMetricsWithAscending returns the standard table with exactly the named
// metrics ranked ascending. Unknown names are reported as an error.
func RankedMetricsWithAscending(ascending []string) ([]RankedMetric, error) {
	metrics := DefaultRankedMetrics()
	wanted := make(map[string]bool, len(ascending))
	for _, name := range ascending {
		wanted[name] = true
	}

	for i := range metrics {
		if wanted[metrics[i].Name] {
			metrics[i].Direction = Ascending
			delete(wanted, metrics[i].Name)
		} else {
			metrics[i].Direction = Descending
		}
	}

	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for name := range wanted {
			unknown = append(unknown, name)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown ranked metrics: %v", unknown)
	}
	return metrics, nil
}

// IsRankedMetric reports whether name appears in the standard ranking table.
func IsRankedMetric(name string) bool {
	for _, m := range defaultRankedMetrics {
		if m.Name == name {
			return true
		}
	}
	return false
}

// Ranker assigns per-metric competition ranks across channel results.
type Ranker struct {
	metrics []RankedMetric
	logger  *zap.Logger
}

// NewRanker creates a ranker over the given table; nil metrics means the standard table.
func NewRanker(metrics []RankedMetric, logger *zap.Logger) *Ranker {
	if metrics == nil {
		metrics = DefaultRankedMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	table := make([]RankedMetric, len(metrics))
	copy(table, metrics)
	return &Ranker{metrics: table, logger: logger}
}

// Metrics returns the ranking table in evaluation order.
func (r *Ranker) Metrics() []RankedMetric {
	out := make([]RankedMetric, len(r.metrics))
	copy(out, r.metrics)
	return out
}

// CalculateRanks ranks results with the standard table and no logging.
func CalculateRanks(results []domain.ChannelResult) []domain.ChannelResult {
	return NewRanker(nil, nil).Rank(results)
}

// Rank returns copies of results, in input order, each carrying one rank per
// configured metric. Channels whose value is invalid get a nil rank for that
// metric and never take part in its tie groups. Existing ranks are overwritten.
func (r *Ranker) Rank(results []domain.ChannelResult) []domain.ChannelResult {
	ranked := make([]domain.ChannelResult, len(results))
	for i := range results {
		ranked[i] = results[i].Clone()
	}
	if len(ranked) == 0 {
		return ranked
	}

	r.logger.Debug("Calculating ranks",
		zap.Int("channels", len(ranked)),
		zap.Int("metrics", len(r.metrics)))

	values := make([]MetricValue, len(ranked))
	for _, metric := range r.metrics {
		for i := range ranked {
			raw := ranked[i].Field(metric.Name)
			values[i] = Coerce(raw)
			if s, ok := raw.(string); ok && !values[i].IsValid() {
				r.logger.Warn("Could not convert metric value",
					zap.String("metric", metric.Name),
					zap.String("channel", ranked[i].ChannelID),
					zap.String("value", s))
			}
		}

		for i, rank := range CompetitionRanks(values, metric.Direction) {
			ranked[i].SetRank(metric.Name, rank)
		}
	}

	return ranked
}

// CompetitionRanks assigns standard competition ranks (1224) to values.
// Equal values share a rank and the next distinct value skips past the whole
// tie group. Invalid values get nil. The result is aligned with values.
func CompetitionRanks(values []MetricValue, direction SortDirection) []*int {
	ranks := make([]*int, len(values))

	order := make([]int, 0, len(values))
	for i, v := range values {
		if v.IsValid() {
			order = append(order, i)
		}
	}

	sort.SliceStable(order, func(a, b int) bool {
		va, vb := values[order[a]], values[order[b]]
		if direction == Ascending {
			return va.Less(vb)
		}
		return vb.Less(va)
	})

	currentRank := 0
	tieCount := 0
	var last MetricValue
	for pos, idx := range order {
		value := values[idx]
		if pos == 0 || !value.Equal(last) {
			currentRank += tieCount + 1
			tieCount = 0
		} else {
			tieCount++
		}
		rank := currentRank
		ranks[idx] = &rank
		last = value
	}

	return ranks
}
